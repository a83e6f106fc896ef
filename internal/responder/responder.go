// Package responder performs the side effects of health transitions.
package responder

import (
	"context"
	"log/slog"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/infra/alerting"
	"github.com/meetsync/healthwatch/internal/infra/storage"
	"github.com/meetsync/healthwatch/internal/metrics"
)

// Responder reacts to detected health transitions: alerting operators and
// deactivating integrations that have failed for good.
type Responder struct {
	repo   storage.IntegrationRepository
	alerts alerting.Sender
	log    *slog.Logger
}

// New creates a Responder.
func New(repo storage.IntegrationRepository, alerts alerting.Sender, log *slog.Logger) *Responder {
	return &Responder{repo: repo, alerts: alerts, log: log}
}

// HandleTransition fires the side effects for one transition. Collaborator
// failures are logged, never propagated: an alert that cannot be delivered
// must not block deactivation, and a deactivation that fails must not crash
// the check that detected it.
func (r *Responder) HandleTransition(ctx context.Context, typ domain.IntegrationType, integ *domain.Integration, tr domain.Transition, reason string) {
	switch tr.Kind {
	case domain.TransitionInitialFailure, domain.TransitionBecameUnhealthy:
		r.log.Error("integration unhealthy",
			"type", typ, "integration", integ.ID, "provider", integ.Provider,
			"transition", tr.Kind, "from", tr.From, "to", tr.To, "reason", reason)
		r.sendAlert(ctx, alerting.EventIntegrationFailure, alerting.LevelError, typ, integ, reason)
		r.deactivate(ctx, typ, integ)

	case domain.TransitionBecameHealthy:
		// Recovery never reactivates the integration: the owner resumes it
		// deliberately, aware that it went down.
		r.log.Info("integration recovered",
			"type", typ, "integration", integ.ID, "provider", integ.Provider)
		r.sendAlert(ctx, alerting.EventIntegrationRecovery, alerting.LevelInfo, typ, integ, reason)

	case domain.TransitionBecameDegraded:
		// Early warning only; not yet actionable.
		r.log.Warn("integration degraded",
			"type", typ, "integration", integ.ID, "provider", integ.Provider, "reason", reason)
	}
}

func (r *Responder) sendAlert(ctx context.Context, event string, level alerting.Level, typ domain.IntegrationType, integ *domain.Integration, reason string) {
	payload := map[string]any{
		"category":       string(typ),
		"integration_id": integ.ID,
		"provider":       integ.Provider,
		"user_id":        integ.UserID,
		"reason":         reason,
	}
	if err := r.alerts.Send(ctx, event, payload, level); err != nil {
		r.log.Error("failed to send alert",
			"event", event, "integration", integ.ID, "error", err)
	}
}

func (r *Responder) deactivate(ctx context.Context, typ domain.IntegrationType, integ *domain.Integration) {
	if err := r.repo.SetActive(ctx, typ, integ.ID, false); err != nil {
		r.log.Error("failed to deactivate integration",
			"type", typ, "integration", integ.ID, "error", err)
		return
	}
	metrics.Deactivations.WithLabelValues(string(typ), integ.Provider).Inc()
	r.log.Info("integration deactivated", "type", typ, "integration", integ.ID)
}
