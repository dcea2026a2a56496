package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-nimbu-client/metrics"
	"github.com/jrsteele09/go-nimbu-client/transport"
)

// TokenProvider supplies a fresh access token before each request. An empty
// token with a nil error means no token could be obtained.
// *auth.Manager implements it.
type TokenProvider interface {
	EnsureFresh(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider for a fixed, externally managed token.
type StaticToken string

func (t StaticToken) EnsureFresh(context.Context) (string, error) {
	return string(t), nil
}

// Result describes a successful response. NoContent is set for 204 responses,
// in which case nothing was decoded.
type Result struct {
	Status    int
	NoContent bool
}

// Client performs authenticated API requests.
type Client struct {
	sender  transport.Sender
	tokens  TokenProvider
	options transport.Options
	logger  zerolog.Logger

	mu           sync.RWMutex
	sessionToken string
}

// New creates a Client. A nil sender defaults to transport.New().
func New(sender transport.Sender, tokens TokenProvider, options ...Option) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("[New] token provider is required")
	}

	c := &Client{
		sender:  sender,
		tokens:  tokens,
		options: transport.DefaultOptions(),
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.sender == nil {
		c.sender = transport.New(transport.WithLogger(c.logger))
	}
	return c, nil
}

// SessionToken returns the customer session token sent with every request.
func (c *Client) SessionToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionToken
}

func (c *Client) setSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

// requestOptions obtains a fresh token and merges it with the client options.
func (c *Client) requestOptions(ctx context.Context) (transport.Options, error) {
	token, err := c.tokens.EnsureFresh(ctx)
	if err != nil {
		return transport.Options{}, errors.Wrap(err, "[requestOptions] failed to obtain access token")
	}
	if token == "" {
		return transport.Options{}, ErrUnauthenticated
	}

	opts := c.options
	opts.Token = token
	opts.SessionToken = c.SessionToken()
	return opts, nil
}

// Fetch sends an authenticated request and returns the raw response without
// interpreting its status. The caller must close the body.
func (c *Client) Fetch(ctx context.Context, method transport.Method, path string, body io.Reader) (*http.Response, error) {
	opts, err := c.requestOptions(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.sender.Send(ctx, method, path, opts, body)
	metrics.APIRequestDuration.WithLabelValues(string(method)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(string(method), metrics.StatusLabel(0)).Inc()
		return nil, err
	}
	metrics.APIRequests.WithLabelValues(string(method), metrics.StatusLabel(resp.StatusCode)).Inc()
	return resp, nil
}

// Do sends body (JSON encoded when non-nil) and decodes a 2xx response into
// out (skipped when out is nil or the status is 204). Non-2xx responses
// return an *APIError.
func (c *Client) Do(ctx context.Context, method transport.Method, path string, body any, out any) (Result, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Result{}, errors.Wrap(err, "[Do] failed to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	resp, err := c.Fetch(ctx, method, path, reader)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	return c.handleResponse(method, path, resp, out)
}

func (c *Client) handleResponse(method transport.Method, path string, resp *http.Response, out any) (Result, error) {
	result := Result{Status: resp.StatusCode}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp)
		c.logger.Debug().Str("method", string(method)).Str("path", path).Int("status", resp.StatusCode).Msg("API request failed")
		return result, apiErr
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		result.NoContent = resp.StatusCode == http.StatusNoContent
		_, _ = io.Copy(io.Discard, resp.Body)
		return result, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return result, errors.Wrapf(err, "[Do] failed to decode %s %s response", method, path)
	}
	return result, nil
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	_, err := c.Do(ctx, transport.MethodGet, path, nil, out)
	return err
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, transport.MethodPost, path, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, transport.MethodPut, path, body, out)
	return err
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	_, err := c.Do(ctx, transport.MethodPatch, path, body, out)
	return err
}

// Delete removes the resource at path. Any response body is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, transport.MethodDelete, path, nil, nil)
	return err
}

// GetAs fetches path and decodes the response into a T.
func GetAs[T any](ctx context.Context, c *Client, path string) (T, error) {
	var out T
	err := c.Get(ctx, path, &out)
	return out, err
}

// PostAs posts body to path and decodes the response into a T.
func PostAs[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	var out T
	err := c.Post(ctx, path, body, &out)
	return out, err
}
