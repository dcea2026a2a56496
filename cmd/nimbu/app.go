package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-nimbu-client/auth"
	"github.com/jrsteele09/go-nimbu-client/client"
	"github.com/jrsteele09/go-nimbu-client/internal/config"
	"github.com/jrsteele09/go-nimbu-client/storage"
	"github.com/jrsteele09/go-nimbu-client/storage/memory"
	"github.com/jrsteele09/go-nimbu-client/storage/redisstore"
	"github.com/jrsteele09/go-nimbu-client/storage/sqlitestore"
	"github.com/jrsteele09/go-nimbu-client/transport"
)

type app struct {
	manager *auth.Manager
	client  *client.Client
	out     io.Writer
	closers []io.Closer
}

func newApp(ctx context.Context, c config.Config) (*app, error) {
	persistent, closer, err := openPersistentStorage(ctx, c)
	if err != nil {
		return nil, err
	}

	a := &app{out: os.Stdout}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}

	sender := transport.New(transport.WithTimeout(c.GetTimeout()), transport.WithLogger(log.Logger))
	requestOptions := transport.Options{Host: c.GetHost()}

	a.manager, err = auth.NewManager(c.GetClientID(),
		auth.WithName(c.GetName()),
		auth.WithClientSecret(c.GetClientSecret()),
		auth.WithScope(c.GetScope()...),
		auth.WithRemember(c.GetRemember()),
		auth.WithRequestOptions(requestOptions),
		auth.WithSessionStorage(memory.New()),
		auth.WithPersistentStorage(persistent),
		auth.WithSender(sender),
		auth.WithLogger(log.Logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.client, err = client.New(sender, a.manager,
		client.WithRequestOptions(requestOptions),
		client.WithSite(c.GetSite()),
		client.WithLogger(log.Logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// openPersistentStorage builds the durable tier that keeps the refresh token
// between invocations.
func openPersistentStorage(ctx context.Context, c config.StorageConfig) (storage.Storage, io.Closer, error) {
	switch c.GetStorageDriver() {
	case config.StorageRedis:
		store, err := redisstore.Dial(ctx, c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB(),
			redisstore.WithTTL(c.GetRedisTTL()),
			redisstore.WithPrefix(c.GetRedisPrefix()),
		)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StorageSQLite:
		path := c.GetSQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, errors.Wrap(err, "creating data folder")
		}
		store, err := sqlitestore.Open(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		log.Warn().Msg("Using in-memory storage, tokens will not survive this process")
		return memory.New(), nil, nil
	}
}

func (a *app) Close() {
	for _, closer := range a.closers {
		if err := closer.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close storage")
		}
	}
}

func (a *app) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "token":
		return a.token(ctx)
	case "get":
		return a.get(ctx, args)
	case "delete":
		return a.delete(ctx, args)
	case "customer-login":
		return a.customerLogin(ctx, args)
	case "validate-session":
		return a.validateSession(ctx, args)
	case "reset-password":
		return a.resetPassword(ctx, args)
	case "logout":
		return a.manager.Logout(ctx)
	default:
		usage()
		return errors.Errorf("unknown command %q", command)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ContinueOnError)
	remember := flags.Bool("remember", a.manager.Remember(), "keep the refresh token in persistent storage")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return errors.New("login requires <username> <password>")
	}

	ok, err := a.manager.Login(ctx, flags.Arg(0), flags.Arg(1), *remember)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("login rejected")
	}
	fmt.Fprintf(a.out, "Logged in, token expires at %s\n", a.manager.ExpiresAt().Format("2006-01-02 15:04:05"))
	return nil
}

func (a *app) token(ctx context.Context) error {
	token, err := a.manager.EnsureFresh(ctx)
	if err != nil {
		return err
	}
	if token == "" {
		return client.ErrUnauthenticated
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *app) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("get requires <path>")
	}
	var out any
	if err := a.client.Get(ctx, args[0], &out); err != nil {
		return describe(err)
	}
	return a.printJSON(out)
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("delete requires <path>")
	}
	return describe(a.client.Delete(ctx, args[0]))
}

func (a *app) customerLogin(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("customer-login requires <email> <password>")
	}
	customer, err := a.client.Login(ctx, args[0], args[1])
	if err != nil {
		return describe(err)
	}
	return a.printJSON(customer)
}

func (a *app) validateSession(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("validate-session requires <session-token>")
	}
	customer, err := a.client.ValidateSession(ctx, args[0])
	if err != nil {
		return describe(err)
	}
	if customer == nil {
		return errors.New("session is no longer valid")
	}
	return a.printJSON(customer)
}

func (a *app) resetPassword(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("reset-password requires <email>")
	}
	if err := a.client.RequestPasswordReset(ctx, args[0]); err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "Password reset requested for %s\n", args[0])
	return nil
}

func (a *app) printJSON(v any) error {
	encoder := json.NewEncoder(a.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// describe appends field level validation messages to API errors.
func describe(err error) error {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || len(apiErr.Errors) == 0 {
		return err
	}
	for _, e := range apiErr.Errors {
		err = errors.Wrapf(err, "%s.%s: %s", e.Resource, e.Field, e.Message)
	}
	return err
}
