package oauth2

// GrantType represents the OAuth 2.0 grant type sent to the token endpoint.
// Determines what credentials accompany the request.
type GrantType string

const (
	// PasswordGrant exchanges a username and password for tokens
	// (resource owner password credentials).
	// Token request includes: username, password, client_id, scope
	// Returns: access_token, expires_in and usually a refresh_token
	PasswordGrant GrantType = "password"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token, client_id, client_secret, scope
	// Returns: new access_token, optionally a rotated refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// TokenPath is the API path of the token endpoint.
const TokenPath = "/oauth2/tokens"
