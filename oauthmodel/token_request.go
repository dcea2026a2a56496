package oauthmodel

import (
	"net/url"

	"github.com/jrsteele09/go-nimbu-client/internal/utils"
	"github.com/jrsteele09/go-nimbu-client/oauth2"
)

// TokenRequest holds parameters for an OAuth2 token request.
// This is sent form-encoded to the token endpoint.
// Supports the password and refresh_token grant types.
type TokenRequest struct {
	// ClientID identifies the OAuth2 client making the request.
	// Required: Yes (for all grant types)
	ClientID string

	// ClientSecret is the secret credential for confidential clients.
	// Required: No. Only sent when set.
	// Security: Never log or expose this value
	ClientSecret string

	GrantType oauth2.GrantType

	// Username and Password are the resource owner credentials.
	// Required: Yes (only for the password grant)
	Username string
	Password string

	// RefreshToken is used to obtain a new access token without re-authentication.
	// Required: Yes (only for the refresh_token grant)
	RefreshToken string

	// Scope lists the requested scopes. Sent space-joined when non-empty.
	Scope []string
}

// NewPasswordRequest builds a password grant request.
func NewPasswordRequest(clientID, username, password string, scope []string) *TokenRequest {
	return &TokenRequest{
		ClientID:  clientID,
		GrantType: oauth2.PasswordGrant,
		Username:  username,
		Password:  password,
		Scope:     scope,
	}
}

// NewRefreshRequest builds a refresh_token grant request.
func NewRefreshRequest(clientID, clientSecret, refreshToken string, scope []string) *TokenRequest {
	return &TokenRequest{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		GrantType:    oauth2.RefreshTokenGrant,
		RefreshToken: refreshToken,
		Scope:        scope,
	}
}

// Validate checks the fields required by the grant type are present.
func (r *TokenRequest) Validate() error {
	if r.ClientID == "" {
		return ErrMissingClientID
	}
	switch r.GrantType {
	case oauth2.PasswordGrant:
		if r.Username == "" || r.Password == "" {
			return ErrMissingCredentials
		}
	case oauth2.RefreshTokenGrant:
		if r.RefreshToken == "" {
			return ErrMissingRefreshToken
		}
	default:
		return ErrUnsupportedGrant
	}
	return nil
}

// Form renders the request as form values.
func (r *TokenRequest) Form() url.Values {
	form := url.Values{}
	form.Set("client_id", r.ClientID)
	if r.ClientSecret != "" {
		form.Set("client_secret", r.ClientSecret)
	}
	form.Set("grant_type", string(r.GrantType))
	switch r.GrantType {
	case oauth2.PasswordGrant:
		form.Set("username", r.Username)
		form.Set("password", r.Password)
	case oauth2.RefreshTokenGrant:
		form.Set("refresh_token", r.RefreshToken)
	}
	if len(r.Scope) > 0 {
		form.Set("scope", utils.JoinScope(r.Scope))
	}
	return form
}

// Encode returns the application/x-www-form-urlencoded body.
func (r *TokenRequest) Encode() string {
	return r.Form().Encode()
}
