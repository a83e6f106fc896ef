package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/meetsync/healthwatch/internal/core/domain"
)

// DailyTester validates an API key against a self-hosted or hosted Daily
// deployment by listing rooms.
type DailyTester struct {
	client *http.Client
}

// NewDailyTester creates a Daily connection tester.
func NewDailyTester(client *http.Client) *DailyTester {
	return &DailyTester{client: client}
}

func (t *DailyTester) TestConnection(ctx context.Context, cfg Config) (Result, error) {
	if cfg.APIKey == "" {
		return Result{}, fmt.Errorf("daily: %w", domain.ErrInvalidCredentials)
	}

	base := cfg.BaseURL
	if base == "" {
		base = "https://api.daily.co"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/rooms?limit=1", nil)
	if err != nil {
		return Result{}, fmt.Errorf("daily: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("daily: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode); err != nil {
		return Result{}, fmt.Errorf("daily: %w", err)
	}
	return Result{Message: "connection verified"}, nil
}

var _ ConnectionTester = (*DailyTester)(nil)
