package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

// GoogleTester validates a Google Calendar token against the tokeninfo
// endpoint.
type GoogleTester struct {
	client  *http.Client
	baseURL string
}

// NewGoogleTester creates a Google Calendar connection tester.
func NewGoogleTester(client *http.Client) *GoogleTester {
	return &GoogleTester{client: client, baseURL: "https://oauth2.googleapis.com"}
}

func (t *GoogleTester) TestConnection(ctx context.Context, cfg Config) (Result, error) {
	if err := checkToken(cfg); err != nil {
		return Result{}, fmt.Errorf("google: %w", err)
	}

	endpoint := fmt.Sprintf("%s/tokeninfo?access_token=%s", t.baseURL, url.QueryEscape(cfg.AccessToken))
	return oauthProbe(ctx, t.client, "google", endpoint, "")
}

// Office365Tester validates a Microsoft Graph token by listing the default
// calendar.
type Office365Tester struct {
	client  *http.Client
	baseURL string
}

// NewOffice365Tester creates an Office 365 connection tester.
func NewOffice365Tester(client *http.Client) *Office365Tester {
	return &Office365Tester{client: client, baseURL: "https://graph.microsoft.com"}
}

func (t *Office365Tester) TestConnection(ctx context.Context, cfg Config) (Result, error) {
	if err := checkToken(cfg); err != nil {
		return Result{}, fmt.Errorf("office365: %w", err)
	}
	return oauthProbe(ctx, t.client, "office365", t.baseURL+"/v1.0/me/calendar", cfg.AccessToken)
}

// ZoomTester validates a Zoom OAuth token against the current-user endpoint.
type ZoomTester struct {
	client  *http.Client
	baseURL string
}

// NewZoomTester creates a Zoom connection tester.
func NewZoomTester(client *http.Client) *ZoomTester {
	return &ZoomTester{client: client, baseURL: "https://api.zoom.us"}
}

func (t *ZoomTester) TestConnection(ctx context.Context, cfg Config) (Result, error) {
	if err := checkToken(cfg); err != nil {
		return Result{}, fmt.Errorf("zoom: %w", err)
	}
	return oauthProbe(ctx, t.client, "zoom", t.baseURL+"/v2/users/me", cfg.AccessToken)
}

// checkToken rejects probes whose token is missing or already expired before
// any network round trip.
func checkToken(cfg Config) error {
	if cfg.AccessToken == "" {
		return domain.ErrInvalidCredentials
	}
	if !cfg.TokenExpiry.IsZero() && cfg.TokenExpiry.Before(time.Now()) {
		return domain.ErrTokenExpired
	}
	return nil
}

// oauthProbe issues one GET and maps the response status. bearer may be empty
// when the token rides in the URL.
func oauthProbe(ctx context.Context, client *http.Client, name, endpoint, bearer string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{}, fmt.Errorf("%s: create request: %w", name, err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return Result{}, fmt.Errorf("%s: %w", name, err)
	}
	return Result{Message: "connection verified"}, nil
}

var (
	_ ConnectionTester = (*GoogleTester)(nil)
	_ ConnectionTester = (*Office365Tester)(nil)
	_ ConnectionTester = (*ZoomTester)(nil)
)
