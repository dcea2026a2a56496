package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/jrsteele09/go-nimbu-client/internal/errors"
)

var (
	// ErrUnauthenticated is returned before any network call when no access
	// token could be obtained for an authenticated request.
	ErrUnauthenticated = apperrors.ErrUnauthenticated

	// ErrValidation matches (via errors.Is) an *APIError for a 422 response.
	ErrValidation = apperrors.ErrValidation

	// ErrNotFound matches an *APIError for a 404 response.
	ErrNotFound = apperrors.ErrNotFound
)

// EntityError is one field level validation failure reported by the API.
type EntityError struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

// APIError is returned for every non-2xx API response. Errors is populated
// for 422 Unprocessable Entity responses.
type APIError struct {
	Status     int
	StatusText string
	Errors     []EntityError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d)", e.StatusText, e.Status)
}

// Is lets errors.Is match ErrValidation for 422 and ErrNotFound for 404.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// IsValidation reports whether the error carries field level validation errors.
func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// newAPIError builds an APIError from a non-2xx response, consuming its body.
func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		Status:     resp.StatusCode,
		StatusText: reasonPhrase(resp),
	}

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var body struct {
			Errors []EntityError `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Errors = body.Errors
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return apiErr
}

// reasonPhrase extracts "Not Found" from a "404 Not Found" status line.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
