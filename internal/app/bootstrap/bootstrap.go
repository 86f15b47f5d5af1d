package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	engagementledger "agora/contexts/civic-engagement/engagement-ledger"
	ledgerpostgres "agora/contexts/civic-engagement/engagement-ledger/adapters/postgres"
	ledgerworkers "agora/contexts/civic-engagement/engagement-ledger/application/workers"
	notificationservice "agora/contexts/civic-engagement/notification-service"
	notificationpostgres "agora/contexts/civic-engagement/notification-service/adapters/postgres"
	notificationapp "agora/contexts/civic-engagement/notification-service/application"
	notificationworkers "agora/contexts/civic-engagement/notification-service/application/workers"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  ledgerworkers.OutboxRelay
	threshold    notificationworkers.ThresholdConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	ledgerModule := engagementledger.NewModule(engagementledger.Dependencies{
		Entities:        ledgerRepo,
		Ledger:          ledgerRepo,
		Comments:        ledgerRepo,
		Outbox:          ledgerRepo,
		Clock:           ledgerpostgres.SystemClock{},
		IDGen:           ledgerpostgres.UUIDGenerator{},
		LockTimeout:     cfg.EntityLockTimeout,
		ConflictRetries: cfg.ConflictRetries,
		RetryBackoff:    cfg.RetryBackoff,
		Logger:          logger,
	})

	notificationRepo := notificationpostgres.NewRepository(pg.DB, logger)
	notificationModule := notificationservice.NewModule(notificationservice.Dependencies{
		Repository: notificationRepo,
		Clock:      notificationpostgres.SystemClock{},
		IDGen:      notificationpostgres.UUIDGenerator{},
		Logger:     logger,
	})

	server := httpserver.New(ledgerModule, notificationModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	ledgerRepo := ledgerpostgres.NewRepository(pg.DB, logger)
	notificationRepo := notificationpostgres.NewRepository(pg.DB, logger)
	notificationSvc := notificationapp.Service{
		Repo:   notificationRepo,
		Clock:  notificationpostgres.SystemClock{},
		IDGen:  notificationpostgres.UUIDGenerator{},
		Logger: logger,
	}

	return &WorkerApp{
		postgres: pg,
		outboxRelay: ledgerworkers.OutboxRelay{
			Outbox:    ledgerRepo,
			Publisher: kafka,
			Clock:     ledgerpostgres.SystemClock{},
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		threshold: notificationworkers.ThresholdConsumer{
			Subscriber: kafka,
			Dedup:      notificationRepo,
			Service:    notificationSvc,
			Clock:      notificationpostgres.SystemClock{},
			DedupTTL:   7 * 24 * time.Hour,
			Disabled:   !cfg.EnableThresholdConsumer,
			Logger:     logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.threshold.Start(ctx); err != nil {
		return err
	}

	interval := w.pollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", interval.String(),
	)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
