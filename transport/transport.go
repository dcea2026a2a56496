package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sender performs one HTTP request against the API. Implementations return the
// raw response and never interpret its status code; the caller owns the body.
type Sender interface {
	Send(ctx context.Context, method Method, path string, opts Options, body io.Reader) (*http.Response, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, method Method, path string, opts Options, body io.Reader) (*http.Response, error)

func (f SenderFunc) Send(ctx context.Context, method Method, path string, opts Options, body io.Reader) (*http.Response, error) {
	return f(ctx, method, path, opts, body)
}

// HTTPTransport is the net/http backed Sender.
type HTTPTransport struct {
	client    *http.Client
	timeout   time.Duration
	logger    zerolog.Logger
	requestID func() string
}

var _ Sender = (*HTTPTransport)(nil)

type Option func(*HTTPTransport)

func WithHTTPClient(client *http.Client) Option {
	return func(t *HTTPTransport) {
		t.client = client
	}
}

// WithTimeout bounds every request, including reading the response body.
// It applies to a copy of the client, so a client passed to WithHTTPClient
// is never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(t *HTTPTransport) {
		t.timeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(t *HTTPTransport) {
		t.logger = logger
	}
}

func New(options ...Option) *HTTPTransport {
	t := &HTTPTransport{
		client:    &http.Client{},
		logger:    log.Logger,
		requestID: func() string { return uuid.NewString() },
	}
	for _, opt := range options {
		opt(t)
	}
	if t.timeout > 0 {
		client := *t.client
		client.Timeout = t.timeout
		t.client = &client
	}
	return t
}

func (t *HTTPTransport) Send(ctx context.Context, method Method, path string, opts Options, body io.Reader) (*http.Response, error) {
	req, err := NewRequest(ctx, method, path, opts, body)
	if err != nil {
		return nil, err
	}
	requestID := t.requestID()
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Err(err).Str("method", string(method)).Str("path", path).Str("request_id", requestID).Msg("Request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	t.logger.Debug().
		Str("method", string(method)).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(start)).
		Msg("Request completed")
	return resp, nil
}

// NewRequest builds the outgoing request for path with opts merged over DefaultOptions.
func NewRequest(ctx context.Context, method Method, path string, opts Options, body io.Reader) (*http.Request, error) {
	o := DefaultOptions().Merge(opts)

	req, err := http.NewRequestWithContext(ctx, string(method), strings.TrimRight(o.Host, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	// Tokens are opaque and sent exactly as issued.
	if o.Token != "" {
		req.Header.Set("Authorization", o.Token)
	}
	req.Header.Set("User-Agent", o.UserAgent)
	req.Header.Set("Accept", ContentTypeJSON)
	req.Header.Set(HeaderClientVersion, o.ClientVersion)

	if body != nil {
		contentType := o.ContentType
		if contentType == "" {
			contentType = ContentTypeJSON
		}
		req.Header.Set("Content-Type", contentType)
	}
	if o.Site != "" {
		req.Header.Set(HeaderSite, o.Site)
	}
	if o.SessionToken != "" {
		req.Header.Set(HeaderSessionToken, o.SessionToken)
	}
	return req, nil
}

