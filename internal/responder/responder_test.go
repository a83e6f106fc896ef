package responder

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/infra/alerting"
	"github.com/meetsync/healthwatch/internal/infra/storage/memory"
)

// =============================================================================
// Stubs
// =============================================================================

type recordingSender struct {
	events []string
	levels []alerting.Level
	err    error
}

func (s *recordingSender) Send(ctx context.Context, event string, payload map[string]any, level alerting.Level) error {
	s.events = append(s.events, event)
	s.levels = append(s.levels, level)
	return s.err
}

func testResponder(repo *memory.IntegrationRepo, sender alerting.Sender) *Responder {
	return New(repo, sender, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func activeIntegration(repo *memory.IntegrationRepo) *domain.Integration {
	integ := &domain.Integration{
		ID: 1, UserID: 9, Type: domain.TypeVideo, Provider: "zoom", IsActive: true,
	}
	repo.Put(integ)
	return integ
}

func transition(kind domain.TransitionKind) domain.Transition {
	return domain.Transition{Kind: kind, From: domain.StatusDegraded, To: domain.StatusUnhealthy}
}

// =============================================================================
// Tests
// =============================================================================

func TestUnhealthyAlertsAndDeactivates(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	integ := activeIntegration(repo)
	sender := &recordingSender{}

	r := testResponder(repo, sender)
	r.HandleTransition(context.Background(), domain.TypeVideo, integ, transition(domain.TransitionBecameUnhealthy), "invalid credentials")

	if len(sender.events) != 1 || sender.events[0] != alerting.EventIntegrationFailure {
		t.Errorf("events = %v, want one failure alert", sender.events)
	}
	got, err := repo.Get(context.Background(), domain.TypeVideo, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive {
		t.Error("integration still active after becoming unhealthy")
	}
}

func TestInitialFailureDeactivatesToo(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	integ := activeIntegration(repo)
	sender := &recordingSender{}

	r := testResponder(repo, sender)
	r.HandleTransition(context.Background(), domain.TypeVideo, integ, transition(domain.TransitionInitialFailure), "unauthorized")

	got, _ := repo.Get(context.Background(), domain.TypeVideo, 1)
	if got.IsActive {
		t.Error("first-ever hard failure should deactivate immediately")
	}
	if len(sender.events) != 1 {
		t.Errorf("events = %v, want one failure alert", sender.events)
	}
}

func TestAlertFailureDoesNotBlockDeactivation(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	integ := activeIntegration(repo)
	sender := &recordingSender{err: errors.New("webhook down")}

	r := testResponder(repo, sender)
	r.HandleTransition(context.Background(), domain.TypeVideo, integ, transition(domain.TransitionBecameUnhealthy), "unauthorized")

	got, _ := repo.Get(context.Background(), domain.TypeVideo, 1)
	if got.IsActive {
		t.Error("undeliverable alert must not block deactivation")
	}
}

func TestRecoveryAlertsWithoutReactivating(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	integ := &domain.Integration{
		ID: 1, UserID: 9, Type: domain.TypeVideo, Provider: "zoom", IsActive: false,
	}
	repo.Put(integ)
	sender := &recordingSender{}

	r := testResponder(repo, sender)
	tr := domain.Transition{Kind: domain.TransitionBecameHealthy, From: domain.StatusUnhealthy, To: domain.StatusHealthy}
	r.HandleTransition(context.Background(), domain.TypeVideo, integ, tr, "connection verified")

	if len(sender.events) != 1 || sender.events[0] != alerting.EventIntegrationRecovery {
		t.Errorf("events = %v, want one recovery alert", sender.events)
	}
	if sender.levels[0] != alerting.LevelInfo {
		t.Errorf("level = %s, want info", sender.levels[0])
	}
	got, _ := repo.Get(context.Background(), domain.TypeVideo, 1)
	if got.IsActive {
		t.Error("recovery must not reactivate a deactivated integration")
	}
}

func TestDegradedHasNoSideEffects(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	integ := activeIntegration(repo)
	sender := &recordingSender{}

	r := testResponder(repo, sender)
	tr := domain.Transition{Kind: domain.TransitionBecameDegraded, From: domain.StatusHealthy, To: domain.StatusDegraded}
	r.HandleTransition(context.Background(), domain.TypeVideo, integ, tr, "timeout")

	if len(sender.events) != 0 {
		t.Errorf("degraded sent alerts: %v", sender.events)
	}
	got, _ := repo.Get(context.Background(), domain.TypeVideo, 1)
	if !got.IsActive {
		t.Error("degraded must not deactivate")
	}
}

func TestNoChangeIsNoOp(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	integ := activeIntegration(repo)
	sender := &recordingSender{}

	r := testResponder(repo, sender)
	tr := domain.Transition{Kind: domain.TransitionNone, From: domain.StatusHealthy, To: domain.StatusHealthy}
	r.HandleTransition(context.Background(), domain.TypeVideo, integ, tr, "connection verified")

	if len(sender.events) != 0 {
		t.Errorf("no_change sent alerts: %v", sender.events)
	}
}
