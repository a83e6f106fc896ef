package domain

import (
	"errors"
	"fmt"
)

// Probe failure sentinels. Provider clients wrap these so the classifier can
// match on identity instead of scraping message text.
var (
	ErrRateLimited         = errors.New("rate limited")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrTokenExpired        = errors.New("token expired")
	ErrUnsupportedProvider = errors.New("unsupported provider")
)

// StatusError carries an unexpected HTTP status from a provider probe.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// NewStatusError wraps an HTTP status code as a probe error.
func NewStatusError(code int) *StatusError {
	return &StatusError{Code: code}
}
