package client

import (
	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-nimbu-client/transport"
)

// Option defines a function type to modify the Client instance.
type Option func(*Client)

func WithHost(host string) Option {
	return func(c *Client) {
		c.options.Host = host
	}
}

// WithSite targets a specific site (X-Nimbu-Site).
func WithSite(site string) Option {
	return func(c *Client) {
		c.options.Site = site
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.options.UserAgent = userAgent
	}
}

func WithClientVersion(clientVersion string) Option {
	return func(c *Client) {
		c.options.ClientVersion = clientVersion
	}
}

// WithRequestOptions merges opts over the client's request options.
// Token and content type are managed by the client and ignored.
func WithRequestOptions(opts transport.Options) Option {
	return func(c *Client) {
		opts.Token = ""
		opts.ContentType = ""
		c.options = c.options.Merge(opts)
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}
