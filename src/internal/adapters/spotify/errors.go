package spotify

import (
	"errors"
	"fmt"
)

// APIError carries the HTTP status of a failed catalog call so callers can
// tell auth failures, rate limits and server errors apart.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("catalog API returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("catalog API returned %d", e.StatusCode)
}

// IsAuthError reports an expired or revoked token (401/403).
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited reports a 429 from the provider.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsTransient reports failures worth retrying later: rate limits, server
// errors and plain network errors.
func IsTransient(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return err != nil
}
