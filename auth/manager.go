package auth

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jrsteele09/go-nimbu-client/internal/utils"
	"github.com/jrsteele09/go-nimbu-client/metrics"
	"github.com/jrsteele09/go-nimbu-client/oauth2"
	"github.com/jrsteele09/go-nimbu-client/oauthmodel"
	"github.com/jrsteele09/go-nimbu-client/storage"
	"github.com/jrsteele09/go-nimbu-client/transport"
)

const (
	// refreshLeeway is subtracted from the expiry so a token is never sent
	// moments before the server considers it expired.
	refreshLeeway = 10 * time.Second

	refreshFlightKey = "refresh"
)

// Manager owns the OAuth2 token state for one client id (and optional name).
// It obtains tokens via the password grant, renews them via the refresh_token
// grant, refreshes lazily once the access token is stale, and persists state
// to a session tier (full bundle) and a persistent tier (bare refresh token).
//
// A Manager is safe for concurrent use. Concurrent refreshes share a single
// request to the token endpoint.
type Manager struct {
	clientID          string
	clientSecret      string
	name              string
	keys              storage.Keys
	requestOptions    transport.Options
	sender            transport.Sender
	sessionStorage    storage.Storage
	persistentStorage storage.Storage
	logger            zerolog.Logger
	nowFunc           func() time.Time
	refreshGroup      singleflight.Group

	// writeMu orders storage writes in apply against the removals in Logout.
	writeMu sync.Mutex

	mu           sync.Mutex
	generation   uint64 // bumped by Logout
	remember     bool
	scope        []string
	accessToken  string
	refreshToken string
	expiresAt    time.Time // zero means no expiry was recorded
	restored     bool
}

// NewManager creates a Manager for clientID. Storage backends left unset fall
// back to storage.Noop and the transport defaults to transport.New().
func NewManager(clientID string, options ...ManagerOption) (*Manager, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, errors.New("[NewManager] client id is required")
	}

	m := &Manager{
		clientID: clientID,
		logger:   log.Logger,
		nowFunc:  time.Now,
	}

	for _, opt := range options {
		opt(m)
	}

	m.keys = storage.KeysFor(m.clientID, m.name)
	m.sessionStorage = storage.OrNoop(m.sessionStorage)
	m.persistentStorage = storage.OrNoop(m.persistentStorage)
	if m.sender == nil {
		m.sender = transport.New(transport.WithLogger(m.logger))
	}
	m.logger = m.logger.With().Str("client_id", m.clientID).Logger()

	return m, nil
}

// restore hydrates token state from storage on first use. Values already in
// memory always win over stored ones. Absent entries are not errors and a
// malformed session bundle is discarded.
func (m *Manager) restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.restored {
		return nil
	}
	m.restored = true

	raw, ok, err := m.sessionStorage.Get(ctx, m.keys.Session)
	if err != nil {
		return errors.Wrap(err, "[restore] failed to read session storage")
	}
	if ok {
		bundle, err := decodeBundle(raw)
		if err == nil {
			m.accessToken = bundle.AccessToken
			m.expiresAt = bundle.expiry()
			if m.scope == nil && len(bundle.Scope) > 0 {
				m.scope = bundle.Scope
			}
			if m.refreshToken == "" {
				m.refreshToken = utils.Value(bundle.RefreshToken)
			}
			m.logger.Debug().Msg("Restored token bundle from session storage")
			return nil
		}
		m.logger.Warn().Err(err).Str("key", m.keys.Session).Msg("Discarding malformed session token bundle")
	}

	if m.refreshToken != "" {
		return nil
	}

	refreshToken, ok, err := m.persistentStorage.Get(ctx, m.keys.Persistent)
	if err != nil {
		return errors.Wrap(err, "[restore] failed to read persistent storage")
	}
	if ok && refreshToken != "" && m.refreshToken == "" {
		m.refreshToken = refreshToken
		m.logger.Debug().Msg("Restored refresh token from persistent storage")
	}
	return nil
}

// NeedsRefresh reports whether the current access token must be renewed
// before use. A token without a recorded expiry never needs a refresh.
func (m *Manager) NeedsRefresh() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.needsRefreshLocked(m.nowFunc())
}

func (m *Manager) needsRefreshLocked(now time.Time) bool {
	if m.accessToken == "" {
		return true
	}
	if m.expiresAt.IsZero() {
		return false
	}
	return !m.expiresAt.Add(-refreshLeeway).After(now)
}

// apply adopts a grant response and persists it: always the full bundle to
// the session tier, then the bare refresh token to the persistent tier when
// remember is set and the response carried a new one.
func (m *Manager) apply(ctx context.Context, token *oauth2.TokenResponse) error {
	m.mu.Lock()
	m.accessToken = token.AccessToken
	m.expiresAt = time.Time{}
	if token.ExpiresIn != nil {
		m.expiresAt = m.nowFunc().Add(time.Duration(*token.ExpiresIn) * time.Second)
	}
	newRefreshToken := false
	if rt := utils.Value(token.RefreshToken); rt != "" {
		m.refreshToken = rt
		newRefreshToken = true
	}
	bundle := m.bundleLocked()
	remember := m.remember
	refreshToken := m.refreshToken
	generation := m.generation
	m.mu.Unlock()

	data, err := bundle.encode()
	if err != nil {
		return err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if !m.sameGeneration(generation) {
		m.logger.Debug().Msg("Logged out during grant, token bundle not persisted")
		return nil
	}
	if err := m.sessionStorage.Set(ctx, m.keys.Session, data); err != nil {
		return errors.Wrap(err, "[apply] failed to write session storage")
	}

	if remember && newRefreshToken {
		if err := m.persistentStorage.Set(ctx, m.keys.Persistent, refreshToken); err != nil {
			return errors.Wrap(err, "[apply] failed to write persistent storage")
		}
	}
	return nil
}

func (m *Manager) sameGeneration(generation uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation == generation
}

func (m *Manager) bundleLocked() sessionBundle {
	b := sessionBundle{
		AccessToken: m.accessToken,
		Scope:       utils.CloneStrings(m.scope),
	}
	if !m.expiresAt.IsZero() {
		b.ExpiresAt = utils.Ptr(m.expiresAt.UnixMilli())
	}
	if m.refreshToken != "" {
		b.RefreshToken = utils.Ptr(m.refreshToken)
	}
	return b
}

// Refresh exchanges the known refresh token for a new access token.
// It returns ErrNoRefreshToken when no refresh token is known. A rejected
// grant is not an error: Refresh returns an empty token and a nil error.
// Concurrent calls share one request to the token endpoint. The shared
// request outlives the cancellation of any single caller; a cancelled caller
// returns ctx.Err() without waiting for it.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	flight := m.refreshGroup.DoChan(refreshFlightKey, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-flight:
		if res.Shared {
			m.logger.Debug().Msg("Joined in-flight token refresh")
		}
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	if err := m.restore(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	req := oauthmodel.NewRefreshRequest(m.clientID, m.clientSecret, m.refreshToken, utils.CloneStrings(m.scope))
	m.mu.Unlock()

	if req.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	token, err := m.grant(ctx, req)
	if err != nil || token == nil {
		return "", err
	}
	if err := m.apply(ctx, token); err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// EnsureFresh returns an access token that is valid for at least the refresh
// leeway, refreshing it first when needed. An empty token with a nil error
// means the refresh grant was rejected.
func (m *Manager) EnsureFresh(ctx context.Context) (string, error) {
	if err := m.restore(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	if !m.needsRefreshLocked(m.nowFunc()) {
		accessToken := m.accessToken
		m.mu.Unlock()
		return accessToken, nil
	}
	m.mu.Unlock()

	return m.Refresh(ctx)
}

// Login performs a password grant. remember is recorded for this and later
// grants and decides whether a new refresh token goes to persistent storage.
// A rejected grant returns false and a nil error.
func (m *Manager) Login(ctx context.Context, username, password string, remember bool) (bool, error) {
	if err := m.restore(ctx); err != nil {
		return false, err
	}

	m.mu.Lock()
	m.remember = remember
	scope := utils.CloneStrings(m.scope)
	m.mu.Unlock()

	req := oauthmodel.NewPasswordRequest(m.clientID, username, password, scope)
	if err := req.Validate(); err != nil {
		return false, errors.Wrap(err, "[Login] invalid token request")
	}

	token, err := m.grant(ctx, req)
	if err != nil {
		return false, err
	}
	if token == nil {
		return false, nil
	}
	if err := m.apply(ctx, token); err != nil {
		return false, err
	}
	return true, nil
}

// Logout forgets all tokens and erases both storage entries. The refresh
// token is not revoked server side.
func (m *Manager) Logout(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.accessToken = ""
	m.refreshToken = ""
	m.expiresAt = time.Time{}
	m.generation++
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return errors.Wrap(m.sessionStorage.Remove(gctx, m.keys.Session), "[Logout] failed to clear session storage")
	})
	g.Go(func() error {
		return errors.Wrap(m.persistentStorage.Remove(gctx, m.keys.Persistent), "[Logout] failed to clear persistent storage")
	})
	return g.Wait()
}

// grant posts req to the token endpoint. A nil response with a nil error
// means the server rejected the grant.
func (m *Manager) grant(ctx context.Context, req *oauthmodel.TokenRequest) (*oauth2.TokenResponse, error) {
	grantType := string(req.GrantType)
	opts := m.requestOptions.Merge(transport.Options{ContentType: transport.ContentTypeForm})

	resp, err := m.sender.Send(ctx, transport.MethodPost, oauth2.TokenPath, opts, strings.NewReader(req.Encode()))
	if err != nil {
		metrics.OAuthGrants.WithLabelValues(grantType, metrics.OutcomeError).Inc()
		return nil, errors.Wrapf(err, "[grant] %s grant request failed", grantType)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		metrics.OAuthGrants.WithLabelValues(grantType, metrics.OutcomeRejected).Inc()
		m.logger.Info().Str("grant_type", grantType).Int("status", resp.StatusCode).Msg("Token grant rejected")
		return nil, nil
	}

	token, err := oauth2.DecodeTokenResponse(resp.Body)
	if err != nil {
		metrics.OAuthGrants.WithLabelValues(grantType, metrics.OutcomeError).Inc()
		return nil, errors.Wrapf(ErrInvalidGrantResponse, "[grant] %s: %v", grantType, err)
	}

	metrics.OAuthGrants.WithLabelValues(grantType, metrics.OutcomeGranted).Inc()
	m.logger.Debug().Str("grant_type", grantType).Int64("expires_in", utils.Value(token.ExpiresIn)).Msg("Token granted")
	return token, nil
}

// AccessToken returns the current access token without refreshing it.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accessToken
}

func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshToken
}

// ExpiresAt returns the access token expiry; the zero time means none was recorded.
func (m *Manager) ExpiresAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expiresAt
}

func (m *Manager) Scope() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return utils.CloneStrings(m.scope)
}

// Restored reports whether the one-time restore from storage has been attempted.
func (m *Manager) Restored() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restored
}

func (m *Manager) Remember() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remember
}

// Keys returns the storage keys used by this manager.
func (m *Manager) Keys() storage.Keys {
	return m.keys
}

func (m *Manager) SessionKey() string {
	return m.keys.Session
}

func (m *Manager) PersistentKey() string {
	return m.keys.Persistent
}
