// Package assessor executes single health probes and reports their outcome.
package assessor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/infra/credentials"
	"github.com/meetsync/healthwatch/internal/infra/providers"
	"github.com/meetsync/healthwatch/internal/metrics"
)

// Result is one probe outcome. Err is nil on success.
type Result struct {
	OK      bool
	Message string
	Err     error
}

// Assessor dispatches probes to the correct provider tester, measures their
// duration, and emits a metric for every outcome. It never lets a probe crash
// the caller: panics and unknown providers come back as error results.
type Assessor struct {
	testers providers.Registry
	box     *credentials.Box
	log     *slog.Logger
}

// New creates an Assessor.
func New(testers providers.Registry, box *credentials.Box, log *slog.Logger) *Assessor {
	return &Assessor{testers: testers, box: box, log: log}
}

// Assess runs one probe for an integration and returns the result together
// with the probe's wall-clock duration. time.Since reads the monotonic clock,
// so system clock adjustments cannot skew the measurement.
func (a *Assessor) Assess(ctx context.Context, typ domain.IntegrationType, integ *domain.Integration) (Result, time.Duration) {
	start := time.Now()
	res := a.probe(ctx, typ, integ)
	elapsed := time.Since(start)

	success := "true"
	outcome := "ok"
	if !res.OK {
		success = "false"
		outcome = "error"
	}
	metrics.ChecksTotal.WithLabelValues(string(typ), integ.Provider, outcome).Inc()
	metrics.CheckDuration.WithLabelValues(string(typ), integ.Provider, success).Observe(elapsed.Seconds())
	a.log.Debug("probe finished",
		"type", typ,
		"provider", integ.Provider,
		"integration", integ.ID,
		"user", integ.UserID,
		"success", res.OK,
		"duration", elapsed,
	)

	return res, elapsed
}

func (a *Assessor) probe(ctx context.Context, typ domain.IntegrationType, integ *domain.Integration) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("probe panicked", "integration", integ.ID, "panic", r)
			res = Result{Err: fmt.Errorf("probe panic: %v", r)}
		}
	}()

	provider, ok := domain.ResolveProvider(integ.Provider)
	if !ok {
		return Result{Err: fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, integ.Provider)}
	}
	tester, ok := a.testers[provider]
	if !ok {
		return Result{Err: fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, integ.Provider)}
	}

	cfg, err := a.buildConfig(typ, provider, integ)
	if err != nil {
		return Result{Err: err}
	}

	out, err := tester.TestConnection(ctx, cfg)
	if err != nil {
		return Result{Err: err}
	}
	return Result{OK: true, Message: out.Message}
}

// buildConfig assembles the probe configuration, decrypting stored
// credentials. Video providers get a per-provider config: API key plus base
// URL for self-hosted deployments, the OAuth token set for OAuth providers.
func (a *Assessor) buildConfig(typ domain.IntegrationType, provider domain.Provider, integ *domain.Integration) (providers.Config, error) {
	cfg := providers.Config{
		Provider:      provider,
		BaseURL:       integ.BaseURL,
		Username:      integ.Username,
		IntegrationID: integ.ID,
		UserID:        integ.UserID,
	}

	if len(integ.Credentials) == 0 {
		return cfg, nil
	}
	plain, err := a.box.Open(integ.Credentials)
	if err != nil {
		return providers.Config{}, fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, err)
	}

	switch typ {
	case domain.TypeVideo:
		var creds domain.VideoCredentials
		if err := json.Unmarshal(plain, &creds); err != nil {
			return providers.Config{}, fmt.Errorf("%w: bad credential payload", domain.ErrInvalidCredentials)
		}
		cfg.APIKey = creds.APIKey
		cfg.AccessToken = creds.AccessToken
		cfg.RefreshToken = creds.RefreshToken
		cfg.Scope = creds.Scope
		if creds.ExpiresAt > 0 {
			cfg.TokenExpiry = time.Unix(creds.ExpiresAt, 0)
		}
	default:
		var creds domain.CalendarCredentials
		if err := json.Unmarshal(plain, &creds); err != nil {
			return providers.Config{}, fmt.Errorf("%w: bad credential payload", domain.ErrInvalidCredentials)
		}
		cfg.Password = creds.Password
		cfg.AccessToken = creds.AccessToken
	}

	return cfg, nil
}
