package oauthmodel

import "errors"

var (
	ErrMissingClientID     = errors.New("missing client id")
	ErrMissingCredentials  = errors.New("missing username or password")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrUnsupportedGrant    = errors.New("unsupported grant type")
)
