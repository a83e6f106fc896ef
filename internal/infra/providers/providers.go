// Package providers holds the test-connection clients for calendar and video
// providers. Each client issues one cheap authenticated request and maps the
// response onto the shared probe error types.
package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

// Config carries everything a tester needs for one probe. Which fields are
// set depends on the provider family.
type Config struct {
	Provider domain.Provider
	BaseURL  string

	// Basic credentials (CalDAV)
	Username string
	Password string

	// API key (self-hosted video)
	APIKey string

	// OAuth token set
	AccessToken  string
	RefreshToken string
	TokenExpiry  time.Time
	Scope        string

	IntegrationID int64
	UserID        int64
}

// Result is a successful probe outcome.
type Result struct {
	Message string
}

// ConnectionTester probes one provider with the given configuration.
type ConnectionTester interface {
	TestConnection(ctx context.Context, cfg Config) (Result, error)
}

// Registry maps provider tags to their testers.
type Registry map[domain.Provider]ConnectionTester

// DefaultRegistry wires the built-in testers with a shared HTTP client.
func DefaultRegistry(timeout time.Duration) Registry {
	client := newHTTPClient(timeout)
	return Registry{
		domain.ProviderCalDAV:    NewCalDAVTester(client),
		domain.ProviderGoogle:    NewGoogleTester(client),
		domain.ProviderOffice365: NewOffice365Tester(client),
		domain.ProviderZoom:      NewZoomTester(client),
		domain.ProviderDaily:     NewDailyTester(client),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// checkStatus maps a probe response status onto the shared error taxonomy.
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return domain.ErrInvalidCredentials
	case code == http.StatusForbidden:
		return domain.ErrUnauthorized
	case code == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return domain.NewStatusError(code)
	}
}
