package auth

import apperrors "github.com/jrsteele09/go-nimbu-client/internal/errors"

var (
	// ErrNoRefreshToken is returned by Refresh (and EnsureFresh when a refresh
	// is needed) when no refresh token was seeded, restored or obtained.
	ErrNoRefreshToken = apperrors.ErrNoRefreshToken

	// ErrUnauthenticated is returned by the oauth2 TokenSource adapter when
	// the grant was rejected and no access token is available.
	ErrUnauthenticated = apperrors.ErrUnauthenticated

	// ErrInvalidGrantResponse marks a 200 response from the token endpoint
	// whose body could not be used.
	ErrInvalidGrantResponse = apperrors.ErrInvalidGrantResponse
)
