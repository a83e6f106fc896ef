package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/meetsync/healthwatch/internal/core/domain"
	"github.com/meetsync/healthwatch/internal/health"
	"github.com/meetsync/healthwatch/internal/infra/breaker"
	"github.com/meetsync/healthwatch/internal/infra/queue"
	"github.com/meetsync/healthwatch/internal/infra/storage/memory"
)

// =============================================================================
// Stubs
// =============================================================================

type stubBreakers struct {
	statuses map[domain.Provider]breaker.Status
	errs     map[domain.Provider]error
}

func (s *stubBreakers) Status(p domain.Provider) (breaker.Status, error) {
	if err, ok := s.errs[p]; ok {
		return "", err
	}
	if st, ok := s.statuses[p]; ok {
		return st, nil
	}
	return "", breaker.ErrNotFound
}

type failingQueue struct {
	queue.MemoryQueue
	err error
}

func (q *failingQueue) Enqueue(ctx context.Context, job queue.Job, window time.Duration) error {
	return q.err
}

func testScheduler(repo *memory.IntegrationRepo, q queue.Queue, breakers breaker.StatusReporter, states *health.Store) *Scheduler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(repo, states, q, breakers, log)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	s.jitter = func(time.Duration) time.Duration { return 0 }
	return s
}

// =============================================================================
// Tests
// =============================================================================

func TestSweepEnqueuesDueIntegrations(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeCalendar, Provider: "caldav", IsActive: true})
	repo.Put(&domain.Integration{ID: 2, UserID: 1, Type: domain.TypeVideo, Provider: "zoom", IsActive: true})

	q := queue.NewMemoryQueue()
	s := testScheduler(repo, q, &stubBreakers{}, health.NewStore())

	if err := s.Sweep(context.Background(), false); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	jobs := q.Scheduled()
	if len(jobs) != 2 {
		t.Fatalf("enqueued %d jobs, want 2", len(jobs))
	}
	for _, job := range jobs {
		if job.Type != domain.JobTypeIntegrationCheck {
			t.Errorf("job type = %s", job.Type)
		}
	}
}

func TestSweepSkipsIntegrationsInBackoff(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeCalendar, Provider: "caldav", IsActive: true})

	states := health.NewStore()
	q := queue.NewMemoryQueue()
	s := testScheduler(repo, q, &stubBreakers{}, states)

	// Checked a minute ago with a five-minute backoff: not due.
	states.Put(domain.CheckKey{Type: domain.TypeCalendar, IntegrationID: 1}, domain.HealthState{
		Status:    domain.StatusHealthy,
		Backoff:   health.BaseInterval,
		LastCheck: s.now().Add(-time.Minute),
	})

	if err := s.Sweep(context.Background(), false); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if got := len(q.Scheduled()); got != 0 {
		t.Errorf("enqueued %d jobs, want 0 (in backoff)", got)
	}

	// Force ignores due-ness.
	if err := s.Sweep(context.Background(), true); err != nil {
		t.Fatalf("forced Sweep failed: %v", err)
	}
	if got := len(q.Scheduled()); got != 1 {
		t.Errorf("forced sweep enqueued %d jobs, want 1", got)
	}
}

func TestSweepRespectsOpenBreakerPerProvider(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeVideo, Provider: "zoom", IsActive: true})
	repo.Put(&domain.Integration{ID: 2, UserID: 1, Type: domain.TypeVideo, Provider: "daily", IsActive: true})
	repo.Put(&domain.Integration{ID: 3, UserID: 2, Type: domain.TypeVideo, Provider: "zoom", IsActive: true})

	breakers := &stubBreakers{statuses: map[domain.Provider]breaker.Status{
		domain.ProviderZoom:  breaker.StatusOpen,
		domain.ProviderDaily: breaker.StatusClosed,
	}}

	q := queue.NewMemoryQueue()
	s := testScheduler(repo, q, breakers, health.NewStore())

	if err := s.Sweep(context.Background(), false); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	jobs := q.Scheduled()
	if len(jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1 (only the closed-breaker provider)", len(jobs))
	}
	payload, err := domain.UnmarshalCheckJob(jobs[0].Payload)
	if err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if payload.IntegrationID != 2 {
		t.Errorf("enqueued integration %d, want 2 (daily)", payload.IntegrationID)
	}
}

func TestSweepAmbiguousBreakerStatesFallThrough(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeVideo, Provider: "zoom", IsActive: true})
	repo.Put(&domain.Integration{ID: 2, UserID: 1, Type: domain.TypeVideo, Provider: "daily", IsActive: true})
	repo.Put(&domain.Integration{ID: 3, UserID: 1, Type: domain.TypeCalendar, Provider: "caldav", IsActive: true})

	// half_open, never-initialized, and status-check failure all enqueue.
	breakers := &stubBreakers{
		statuses: map[domain.Provider]breaker.Status{
			domain.ProviderZoom: breaker.StatusHalfOpen,
		},
		errs: map[domain.Provider]error{
			domain.ProviderCalDAV: errors.New("status check failed"),
		},
	}

	q := queue.NewMemoryQueue()
	s := testScheduler(repo, q, breakers, health.NewStore())

	if err := s.Sweep(context.Background(), false); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if got := len(q.Scheduled()); got != 3 {
		t.Errorf("enqueued %d jobs, want 3", got)
	}
}

func TestSweepUnknownProviderStillEnqueues(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeCalendar, Provider: "fax_machine", IsActive: true})

	q := queue.NewMemoryQueue()
	s := testScheduler(repo, q, &stubBreakers{}, health.NewStore())

	if err := s.Sweep(context.Background(), false); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	// The breaker cannot be consulted for an unresolvable provider, so the
	// check proceeds; the probe itself will surface unsupported_provider.
	if got := len(q.Scheduled()); got != 1 {
		t.Errorf("enqueued %d jobs, want 1", got)
	}
}

func TestSweepDuplicateIsSuccess(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeCalendar, Provider: "caldav", IsActive: true})

	q := queue.NewMemoryQueue()
	s := testScheduler(repo, q, &stubBreakers{}, health.NewStore())

	if err := s.Sweep(context.Background(), false); err != nil {
		t.Fatalf("first Sweep failed: %v", err)
	}
	// Second sweep hits the dedup reservation; still not an error.
	if err := s.Sweep(context.Background(), true); err != nil {
		t.Errorf("duplicate enqueue surfaced as error: %v", err)
	}
	if got := len(q.Scheduled()); got != 1 {
		t.Errorf("scheduled %d jobs, want 1", got)
	}
}

func TestSweepSurfacesQueueFailures(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeCalendar, Provider: "caldav", IsActive: true})
	repo.Put(&domain.Integration{ID: 2, UserID: 1, Type: domain.TypeCalendar, Provider: "caldav", IsActive: true})

	q := &failingQueue{err: errors.New("redis down")}
	s := testScheduler(repo, q, &stubBreakers{}, health.NewStore())

	err := s.Sweep(context.Background(), false)
	if err == nil {
		t.Fatal("expected enqueue failures to surface")
	}
	// Both failures surface; one integration's failure doesn't abort the rest.
	if got := len(errorsUnwrapJoin(err)); got != 2 {
		t.Errorf("joined errors = %d, want 2", got)
	}
}

func TestSweepJitterBoundsRunAt(t *testing.T) {
	repo := memory.NewIntegrationRepo()
	repo.Put(&domain.Integration{ID: 1, UserID: 1, Type: domain.TypeCalendar, Provider: "caldav", IsActive: true})

	q := queue.NewMemoryQueue()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(repo, health.NewStore(), q, &stubBreakers{}, log)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.Sweep(context.Background(), false); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	jobs := q.Scheduled()
	if len(jobs) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(jobs))
	}
	delay := jobs[0].RunAt.Sub(now)
	if delay < 0 || delay >= JitterWindow {
		t.Errorf("jitter delay %v outside [0, %v)", delay, JitterWindow)
	}
}

func errorsUnwrapJoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
