// Package control wires the monitor's components together and owns their
// lifecycle.
package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/meetsync/healthwatch/internal/assessor"
	"github.com/meetsync/healthwatch/internal/checker"
	"github.com/meetsync/healthwatch/internal/core/config"
	"github.com/meetsync/healthwatch/internal/health"
	"github.com/meetsync/healthwatch/internal/infra/alerting"
	"github.com/meetsync/healthwatch/internal/infra/breaker"
	"github.com/meetsync/healthwatch/internal/infra/credentials"
	"github.com/meetsync/healthwatch/internal/infra/providers"
	"github.com/meetsync/healthwatch/internal/infra/queue"
	"github.com/meetsync/healthwatch/internal/infra/storage"
	"github.com/meetsync/healthwatch/internal/infra/storage/memory"
	"github.com/meetsync/healthwatch/internal/infra/storage/postgres"
	"github.com/meetsync/healthwatch/internal/responder"
	"github.com/meetsync/healthwatch/internal/scheduler"
	"github.com/meetsync/healthwatch/internal/server"
)

// Monitor is the integration health application.
type Monitor struct {
	cfg       *config.AppConfig
	log       *slog.Logger
	db        *postgres.DB
	redisQ    *queue.RedisQueue
	repo      storage.IntegrationRepository
	states    *health.Store
	scheduler *scheduler.Scheduler
	worker    *queue.Worker
	server    *server.Server

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMonitor creates a Monitor with all dependencies initialized. Without a
// database URL it falls back to an in-memory repository; without a Redis URL
// to an in-memory queue. Both fallbacks are meant for local runs and tests.
func NewMonitor(cfg *config.AppConfig, log *slog.Logger) (*Monitor, error) {
	m := &Monitor{cfg: cfg, log: log, states: health.NewStore()}

	// Storage
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(context.Background(), cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := db.Migrate("migrations"); err != nil {
			return nil, err
		}
		m.db = db
		m.repo = postgres.NewIntegrationRepo(db)
	} else {
		log.Warn("no database configured, using in-memory integration store")
		m.repo = memory.NewIntegrationRepo()
	}

	// Queue
	var q queue.Queue
	if cfg.Redis.URL != "" {
		redisQ, err := queue.NewRedisQueue(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis queue: %w", err)
		}
		m.redisQ = redisQ
		q = redisQ
	} else {
		log.Warn("no redis configured, using in-memory queue")
		q = queue.NewMemoryQueue()
	}

	// Credentials
	box, err := credentials.NewBox(cfg.Secrets.CredentialKey)
	if err != nil {
		return nil, fmt.Errorf("failed to init credential box: %w", err)
	}

	breakers := breaker.NewRegistry(breaker.DefaultSettings)
	testers := providers.DefaultRegistry(cfg.Health.ProbeTimeout)

	assess := assessor.New(testers, box, log)
	alerts := alerting.NewWebhookSender(cfg.Alerting.WebhookURL, log)
	respond := responder.New(m.repo, alerts, log)
	executor := checker.New(m.repo, m.states, assess, respond, breakers, log)

	m.scheduler = scheduler.New(m.repo, m.states, q, breakers, log)
	m.worker = queue.NewWorker(q, executor.HandleJob, cfg.Health.WorkerConcurrency, log)

	pingers := map[string]server.Pinger{}
	if m.db != nil {
		pingers["database"] = m.db.Health
	}
	if m.redisQ != nil {
		pingers["redis"] = m.redisQ.Ping
	}
	m.server = server.New(cfg.Server.Port, m.repo, m.states, m.scheduler, pingers, log)

	return m, nil
}

// Start launches the sweep loop, the queue worker, and the HTTP server.
func (m *Monitor) Start(ctx context.Context) error {
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.sweepLoop(ctx)
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.worker.Run(ctx)
	}()

	go func() {
		if err := m.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.log.Error("http server failed", "error", err)
		}
	}()

	m.log.Info("monitor started",
		"port", m.cfg.Server.Port,
		"sweep_interval", m.cfg.Health.SweepInterval,
	)
	return nil
}

// sweepLoop runs scheduling sweeps on the configured cadence. The first
// sweep runs immediately so a restart does not wait a full interval.
func (m *Monitor) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Health.SweepInterval)
	defer ticker.Stop()

	m.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Monitor) sweep(ctx context.Context) {
	if err := m.scheduler.Sweep(ctx, false); err != nil {
		m.log.Error("sweep finished with errors", "error", err)
	}
}

// Stop shuts everything down gracefully.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		m.log.Warn("shutdown timed out waiting for workers")
	}

	var errs []error
	if err := m.server.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if m.redisQ != nil {
		if err := m.redisQ.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if m.db != nil {
		if err := m.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
