// Package checker executes one enqueued health check end to end: probe,
// classify, update state, detect the transition, hand it off.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meetsync/healthwatch/internal/assessor"
	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/health"
	"github.com/meetsync/healthwatch/internal/infra/queue"
	"github.com/meetsync/healthwatch/internal/infra/storage"
)

// Prober runs one probe. Satisfied by *assessor.Assessor.
type Prober interface {
	Assess(ctx context.Context, typ domain.IntegrationType, integ *domain.Integration) (assessor.Result, time.Duration)
}

// TransitionHandler fires the side effects of a transition. Satisfied by
// *responder.Responder.
type TransitionHandler interface {
	HandleTransition(ctx context.Context, typ domain.IntegrationType, integ *domain.Integration, tr domain.Transition, reason string)
}

// OutcomeRecorder feeds probe outcomes into the circuit breaker. Satisfied by
// *breaker.Registry.
type OutcomeRecorder interface {
	Record(provider domain.Provider, err error)
}

// Executor runs check jobs.
type Executor struct {
	repo     storage.IntegrationRepository
	states   *health.Store
	prober   Prober
	handler  TransitionHandler
	breakers OutcomeRecorder
	log      *slog.Logger
	now      func() time.Time
}

// New creates an Executor.
func New(repo storage.IntegrationRepository, states *health.Store, prober Prober, handler TransitionHandler, breakers OutcomeRecorder, log *slog.Logger) *Executor {
	return &Executor{
		repo:     repo,
		states:   states,
		prober:   prober,
		handler:  handler,
		breakers: breakers,
		log:      log,
		now:      time.Now,
	}
}

// ExecuteCheck probes one integration and applies the result. An integration
// deleted since scheduling is skipped silently; everything else comes back as
// a result, never a panic.
func (e *Executor) ExecuteCheck(ctx context.Context, typ domain.IntegrationType, id int64) error {
	integ, err := e.repo.Get(ctx, typ, id)
	if errors.Is(err, storage.ErrIntegrationNotFound) {
		e.log.Debug("integration gone, skipping check", "type", typ, "integration", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load integration %s:%d: %w", typ, id, err)
	}

	key := integ.Key()
	old := e.states.Get(key)

	res, _ := e.prober.Assess(ctx, typ, integ)

	var out health.Outcome
	if res.OK {
		out = health.Success()
	} else {
		out = health.Failure(health.ClassifyWithLog(e.log, res.Err, old, key))
	}

	now := e.now()
	next := health.UpdateHealth(old, out, now)
	if !res.OK && out.Class == domain.ClassTransient {
		next.Backoff = health.NextBackoff(old.Backoff)
	}
	e.states.Put(key, next)

	if provider, ok := domain.ResolveProvider(integ.Provider); ok {
		e.breakers.Record(provider, res.Err)
	}

	tr := health.DetectTransition(old, next)
	e.handler.HandleTransition(ctx, typ, integ, tr, reasonOf(res))
	return nil
}

// HandleJob adapts ExecuteCheck to the queue worker contract.
func (e *Executor) HandleJob(ctx context.Context, job queue.Job) error {
	if job.Type != domain.JobTypeIntegrationCheck {
		e.log.Warn("unknown job type", "type", job.Type, "job", job.ID)
		return nil
	}
	payload, err := domain.UnmarshalCheckJob(job.Payload)
	if err != nil {
		return fmt.Errorf("decode check job %s: %w", job.ID, err)
	}
	return e.ExecuteCheck(ctx, payload.Type, payload.IntegrationID)
}

func reasonOf(res assessor.Result) string {
	if res.OK {
		return res.Message
	}
	if res.Err != nil {
		return res.Err.Error()
	}
	return "unknown failure"
}
