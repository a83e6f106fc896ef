// Package queue provides the delayed, dedup-keyed check-job queue.
//
// Dedup is the subsystem's only concurrency guard: at most one job per dedup
// key may be pending, scheduled, or executing within the dedup window. The
// queue enforces this with a key-addressed reservation (SETNX with a TTL in
// the Redis implementation) rather than locks in the scheduler.
package queue

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicate is returned when a job with the same dedup key is already
// pending within the dedup window. Callers treat it as success.
var ErrDuplicate = errors.New("duplicate job")

// Job is one unit of queued work.
type Job struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Payload  []byte    `json:"payload"`
	RunAt    time.Time `json:"run_at"`
	DedupKey string    `json:"dedup_key"`
}

// Queue enqueues delayed jobs with key-addressed deduplication.
type Queue interface {
	// Enqueue inserts a job to run at job.RunAt. Returns ErrDuplicate if a
	// job with the same dedup key was inserted within the dedup window.
	Enqueue(ctx context.Context, job Job, dedupWindow time.Duration) error

	// PopDue removes and returns the next job whose RunAt has passed, or
	// nil if none is due.
	PopDue(ctx context.Context, now time.Time) (*Job, error)

	// Release drops the dedup reservation for a key once its job has
	// finished executing.
	Release(ctx context.Context, dedupKey string) error

	// Depth returns the number of scheduled jobs.
	Depth(ctx context.Context) (int64, error)
}
