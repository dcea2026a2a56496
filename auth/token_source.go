package auth

import (
	"context"

	xoauth2 "golang.org/x/oauth2"
)

// TokenSource adapts the manager to golang.org/x/oauth2 so it can drive
// oauth2.NewClient. Every Token call goes through EnsureFresh with ctx.
func (m *Manager) TokenSource(ctx context.Context) xoauth2.TokenSource {
	return &tokenSource{ctx: ctx, manager: m}
}

type tokenSource struct {
	ctx     context.Context
	manager *Manager
}

func (s *tokenSource) Token() (*xoauth2.Token, error) {
	accessToken, err := s.manager.EnsureFresh(s.ctx)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}

	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()
	return &xoauth2.Token{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		RefreshToken: s.manager.refreshToken,
		Expiry:       s.manager.expiresAt,
	}, nil
}
