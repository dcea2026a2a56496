package auth

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/go-nimbu-client/internal/utils"
	"github.com/jrsteele09/go-nimbu-client/storage"
	"github.com/jrsteele09/go-nimbu-client/transport"
)

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithName scopes the storage keys, for processes holding several token sets
// for the same client id.
func WithName(name string) ManagerOption {
	return func(m *Manager) {
		m.name = name
	}
}

func WithClientSecret(secret string) ManagerOption {
	return func(m *Manager) {
		m.clientSecret = secret
	}
}

// WithRefreshToken seeds a refresh token. A seeded token is never replaced by
// one read from storage.
func WithRefreshToken(refreshToken string) ManagerOption {
	return func(m *Manager) {
		m.refreshToken = refreshToken
	}
}

// WithScope sets the scopes requested on every grant.
func WithScope(scope ...string) ManagerOption {
	return func(m *Manager) {
		if len(scope) > 0 {
			m.scope = utils.CloneStrings(scope)
		}
	}
}

// WithRequestOptions overrides host, user agent and client version for token
// requests. Token, site and content type are ignored.
func WithRequestOptions(opts transport.Options) ManagerOption {
	return func(m *Manager) {
		m.requestOptions = transport.Options{
			Host:          opts.Host,
			UserAgent:     opts.UserAgent,
			ClientVersion: opts.ClientVersion,
		}
	}
}

// WithRemember persists newly obtained refresh tokens to the persistent tier.
// Login overrides it with its own remember argument.
func WithRemember(remember bool) ManagerOption {
	return func(m *Manager) {
		m.remember = remember
	}
}

func WithSessionStorage(s storage.Storage) ManagerOption {
	return func(m *Manager) {
		m.sessionStorage = s
	}
}

func WithPersistentStorage(s storage.Storage) ManagerOption {
	return func(m *Manager) {
		m.persistentStorage = s
	}
}

// WithSender sets the transport used to reach the token endpoint.
func WithSender(sender transport.Sender) ManagerOption {
	return func(m *Manager) {
		m.sender = sender
	}
}

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}
