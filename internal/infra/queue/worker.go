package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/meetsync/healthwatch/internal/metrics"
)

// Handler executes one popped job.
type Handler func(ctx context.Context, job Job) error

// Worker polls the queue and dispatches due jobs. Jobs for different
// integrations run concurrently up to the worker's concurrency limit; the
// dedup reservation guarantees the same integration is never in flight twice.
type Worker struct {
	queue       Queue
	handler     Handler
	pollEvery   time.Duration
	concurrency int
	log         *slog.Logger
}

// NewWorker creates a queue worker.
func NewWorker(q Queue, handler Handler, concurrency int, log *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Worker{
		queue:       q,
		handler:     handler,
		pollEvery:   time.Second,
		concurrency: concurrency,
		log:         log,
	}
}

// Run polls until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	sem := make(chan struct{}, w.concurrency)
	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx, sem)
		}
	}
}

// drain pops every currently-due job and dispatches it.
func (w *Worker) drain(ctx context.Context, sem chan struct{}) {
	for {
		job, err := w.queue.PopDue(ctx, time.Now())
		if err != nil {
			w.log.Error("failed to pop job", "error", err)
			return
		}
		if job == nil {
			return
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			// Shutdown caught us holding a popped job. Give back its dedup
			// reservation so the next sweep can reschedule it instead of
			// waiting out the window.
			if err := w.queue.Release(context.WithoutCancel(ctx), job.DedupKey); err != nil {
				w.log.Error("failed to release dedup key", "key", job.DedupKey, "error", err)
			}
			return
		}

		go func(job Job) {
			defer func() { <-sem }()
			w.execute(ctx, job)
		}(*job)
	}
}

func (w *Worker) execute(ctx context.Context, job Job) {
	defer func() {
		if err := w.queue.Release(ctx, job.DedupKey); err != nil {
			w.log.Error("failed to release dedup key", "key", job.DedupKey, "error", err)
		}
	}()

	start := time.Now()
	err := w.handler(ctx, job)
	metrics.JobsExecuted.WithLabelValues(job.Type, resultLabel(err)).Inc()

	if err != nil {
		w.log.Error("job failed", "job", job.ID, "type", job.Type, "error", err,
			"duration", time.Since(start))
		return
	}
	w.log.Debug("job completed", "job", job.ID, "type", job.Type,
		"duration", time.Since(start))
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
