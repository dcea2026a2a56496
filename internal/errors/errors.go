package errors

import (
	"errors"
	"fmt"
)

// Common error types for the Nimbu client
var (
	// Credential errors
	ErrNoRefreshToken       = errors.New("no refresh token available")
	ErrUnauthenticated      = errors.New("unauthenticated: no access token available")
	ErrInvalidGrantResponse = errors.New("invalid token grant response")

	// API errors
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
