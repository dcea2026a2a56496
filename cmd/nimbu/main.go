package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-nimbu-client/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	setupLogging(c)

	if len(args) == 0 {
		displayAppname(c.GetAppName())
		usage()
		return flag.ErrHelp
	}
	if err := c.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.dispatch(ctx, args[0], args[1:])
}

func setupLogging(c config.EnvConfig) {
	zerolog.SetGlobalLevel(c.GetLogLevel())
	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: nimbu <command> [arguments]

Commands:
  login [-remember] <username> <password>   obtain tokens with the password grant
  token                                      print a fresh access token
  get <path>                                 GET an API path and print the JSON response
  delete <path>                              DELETE an API path
  customer-login <email> <password>          log a customer in and print the profile
  validate-session <session-token>           print the customer owning a session token
  reset-password <email>                     request a customer password reset mail
  logout                                     forget all stored tokens
`)
}
