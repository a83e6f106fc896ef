// Package scheduler turns per-integration health state and circuit-breaker
// signals into a bounded stream of check jobs.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/health"
	"github.com/meetsync/healthwatch/internal/infra/breaker"
	"github.com/meetsync/healthwatch/internal/infra/queue"
	"github.com/meetsync/healthwatch/internal/infra/storage"
	"github.com/meetsync/healthwatch/internal/metrics"
)

const (
	// JitterWindow bounds the random delay added to each scheduled check so
	// integrations that become due together do not probe together.
	JitterWindow = 30 * time.Second

	// DedupWindow is how long a check job's dedup reservation lives.
	DedupWindow = 5 * time.Minute
)

// Scheduler runs scheduling sweeps over all active integrations.
type Scheduler struct {
	repo     storage.IntegrationRepository
	states   *health.Store
	queue    queue.Queue
	breakers breaker.StatusReporter
	log      *slog.Logger

	// Overridable for tests.
	now    func() time.Time
	jitter func(max time.Duration) time.Duration
}

// New creates a Scheduler.
func New(repo storage.IntegrationRepository, states *health.Store, q queue.Queue, breakers breaker.StatusReporter, log *slog.Logger) *Scheduler {
	return &Scheduler{
		repo:     repo,
		states:   states,
		queue:    q,
		breakers: breakers,
		log:      log,
		now:      time.Now,
		jitter:   func(max time.Duration) time.Duration { return rand.N(max) },
	}
}

// Sweep runs one scheduling pass over every active integration of every
// type. One integration's failure never aborts the rest of the batch; errors
// are joined and returned at the end. With force set, due-ness is ignored and
// every active integration is considered.
func (s *Scheduler) Sweep(ctx context.Context, force bool) error {
	metrics.SweepsTotal.Inc()
	var errs []error

	for _, typ := range domain.IntegrationTypes {
		integrations, err := s.repo.ListActive(ctx, typ)
		if err != nil {
			errs = append(errs, fmt.Errorf("list active %s integrations: %w", typ, err))
			continue
		}
		for _, integ := range integrations {
			if err := s.scheduleOne(ctx, integ, force); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if depth, err := s.queue.Depth(ctx); err == nil {
		metrics.QueueDepth.Set(float64(depth))
	}

	return errors.Join(errs...)
}

func (s *Scheduler) scheduleOne(ctx context.Context, integ *domain.Integration, force bool) error {
	key := integ.Key()
	now := s.now()

	st := s.states.Get(key)
	if !force && !health.DueForCheck(st, now) {
		s.log.Debug("integration not due", "integration", key.String(),
			"last_check", st.LastCheck, "backoff", st.Backoff)
		metrics.SweepSkips.WithLabelValues("not_due").Inc()
		return nil
	}

	if s.breakerOpen(integ) {
		s.log.Debug("circuit open, skipping check", "integration", key.String(),
			"provider", integ.Provider)
		metrics.SweepSkips.WithLabelValues("breaker_open").Inc()
		return nil
	}

	payload, err := domain.CheckJob{Type: integ.Type, IntegrationID: integ.ID}.Marshal()
	if err != nil {
		return fmt.Errorf("marshal check job for %s: %w", key.String(), err)
	}

	job := queue.Job{
		ID:       uuid.NewString(),
		Type:     domain.JobTypeIntegrationCheck,
		Payload:  payload,
		RunAt:    now.Add(s.jitter(JitterWindow)),
		DedupKey: key.String(),
	}

	err = s.queue.Enqueue(ctx, job, DedupWindow)
	if errors.Is(err, queue.ErrDuplicate) {
		// A check is already pending or in flight; that is the dedup
		// constraint doing its job, not a failure.
		s.log.Debug("check already enqueued", "integration", key.String())
		metrics.SweepSkips.WithLabelValues("duplicate").Inc()
		return nil
	}
	if err != nil {
		s.log.Error("failed to enqueue check", "integration", key.String(), "error", err)
		return fmt.Errorf("enqueue check for %s: %w", key.String(), err)
	}

	metrics.JobsEnqueued.WithLabelValues(string(integ.Type)).Inc()
	s.log.Debug("check enqueued", "integration", key.String(), "run_at", job.RunAt)
	return nil
}

// breakerOpen reports whether the provider's circuit is known to be open.
// Half-open, closed, never-initialized, unresolvable provider, and status
// lookup failures all fall through to enqueueing: when breaker state is
// ambiguous the policy favors running checks over starving them.
func (s *Scheduler) breakerOpen(integ *domain.Integration) bool {
	provider, ok := domain.ResolveProvider(integ.Provider)
	if !ok {
		s.log.Warn("unknown provider on integration",
			"integration", integ.Key().String(),
			"provider", integ.Provider,
			"known", domain.KnownProviderNames(),
		)
		return false
	}

	status, err := s.breakers.Status(provider)
	if errors.Is(err, breaker.ErrNotFound) {
		return false
	}
	if err != nil {
		s.log.Warn("breaker status check failed", "provider", provider, "error", err)
		return false
	}
	return status == breaker.StatusOpen
}
