package queue

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryQueue implements Queue in memory with the same dedup semantics as the
// Redis implementation. Used in tests and store-less runs.
type MemoryQueue struct {
	mu      sync.Mutex
	jobs    []Job
	reserve map[string]time.Time // dedup key -> reservation expiry
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{reserve: make(map[string]time.Time)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job, dedupWindow time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	if expiry, ok := q.reserve[job.DedupKey]; ok && expiry.After(now) {
		return ErrDuplicate
	}

	q.reserve[job.DedupKey] = now.Add(dedupWindow)
	q.jobs = append(q.jobs, job)
	sort.Slice(q.jobs, func(i, j int) bool { return q.jobs[i].RunAt.Before(q.jobs[j].RunAt) })
	return nil
}

func (q *MemoryQueue) PopDue(ctx context.Context, now time.Time) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 || q.jobs[0].RunAt.After(now) {
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return &job, nil
}

func (q *MemoryQueue) Release(ctx context.Context, dedupKey string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.reserve, dedupKey)
	return nil
}

func (q *MemoryQueue) Depth(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.jobs)), nil
}

// Scheduled returns a snapshot of pending jobs, for tests.
func (q *MemoryQueue) Scheduled() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}
