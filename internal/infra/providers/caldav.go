package providers

import (
	"context"
	"fmt"
	"net/http"
)

// CalDAVTester verifies a CalDAV server with an authenticated OPTIONS
// request. A server that speaks CalDAV advertises it in the DAV header; we
// only require the request to authenticate, since some servers omit the
// calendar-access token on OPTIONS.
type CalDAVTester struct {
	client *http.Client
}

// NewCalDAVTester creates a CalDAV connection tester.
func NewCalDAVTester(client *http.Client) *CalDAVTester {
	return &CalDAVTester{client: client}
}

func (t *CalDAVTester) TestConnection(ctx context.Context, cfg Config) (Result, error) {
	if cfg.BaseURL == "" {
		return Result{}, fmt.Errorf("caldav: missing server URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodOptions, cfg.BaseURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("caldav: create request: %w", err)
	}
	req.SetBasicAuth(cfg.Username, cfg.Password)

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("caldav: %w", err)
	}
	defer resp.Body.Close()

	// 405 means the server rejects OPTIONS but accepted the credentials.
	if resp.StatusCode == http.StatusMethodNotAllowed {
		return Result{Message: "connection verified"}, nil
	}
	if err := checkStatus(resp.StatusCode); err != nil {
		return Result{}, fmt.Errorf("caldav: %w", err)
	}

	if dav := resp.Header.Get("DAV"); dav != "" {
		return Result{Message: fmt.Sprintf("connection verified (DAV: %s)", dav)}, nil
	}
	return Result{Message: "connection verified"}, nil
}

var _ ConnectionTester = (*CalDAVTester)(nil)
