package oauth2

import (
	"encoding/json"
	"fmt"
	"io"
)

// TokenResponse is the JSON body returned by the token endpoint for a
// successful grant.
type TokenResponse struct {
	// AccessToken is the bearer credential used to access the API.
	// Opaque to the client.
	AccessToken string `json:"access_token"`

	// ExpiresIn is the lifetime in seconds of the access token, counted from
	// the moment the response is received. Absent means the token has no
	// known expiry; zero or negative means it is already stale.
	ExpiresIn *int64 `json:"expires_in,omitempty"`

	// RefreshToken is present when the server issues (or rotates) a refresh
	// token. Absent means the previously known refresh token stays valid.
	RefreshToken *string `json:"refresh_token,omitempty"`
}

// DecodeTokenResponse reads a grant response body. A body without an access
// token is rejected.
func DecodeTokenResponse(r io.Reader) (*TokenResponse, error) {
	var tr TokenResponse
	if err := json.NewDecoder(r).Decode(&tr); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("decode token response: missing access_token")
	}
	return &tr, nil
}
