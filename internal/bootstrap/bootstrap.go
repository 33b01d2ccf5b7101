package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/intakeworks/docflow/internal/config"
	"github.com/intakeworks/docflow/internal/core/ports"
	"github.com/intakeworks/docflow/internal/core/usecase"
	"github.com/intakeworks/docflow/internal/infrastructure/preflight"
	"github.com/intakeworks/docflow/internal/infrastructure/processing"
	"github.com/intakeworks/docflow/internal/infrastructure/queue/nats"
	"github.com/intakeworks/docflow/internal/infrastructure/repository/postgres"
	"github.com/intakeworks/docflow/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Queue ports.EventQueue
	Store *postgres.Store

	IngestUC     ports.BatchSubmitter
	QueryUC      *usecase.QueryUseCase
	ResolutionUC *usecase.ResolutionUseCase
	OverviewUC   *usecase.OverviewUseCase
	ReconcileUC  ports.Reconciler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	store := postgres.NewStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init event queue: %w", err)
	}

	rules, err := config.LoadIntakeRules(cfg.IntakeRulesPath)
	if err != nil {
		queue.Close()
		_ = db.Close()
		return nil, fmt.Errorf("load intake rules: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	service := processing.New(
		cfg.ProcessingBaseURL,
		time.Duration(cfg.ProcessingTimeoutMS)*time.Millisecond,
		executor,
	)
	checker := preflight.New(rules)

	ingestUC := usecase.NewIngestBatchUseCase(store, service, queue, checker, rules.MaxFilesPerBatch)
	queryUC := usecase.NewQueryUseCase(store, store)
	resolutionUC := usecase.NewResolutionUseCase(store, store, service)
	overviewUC := usecase.NewOverviewUseCase(store, store)
	reconcileUC := usecase.NewReconcileUseCase(store, service)

	return &App{
		Config: cfg,
		Queue:  queue,
		Store:  store,

		IngestUC:     ingestUC,
		QueryUC:      queryUC,
		ResolutionUC: resolutionUC,
		OverviewUC:   overviewUC,
		ReconcileUC:  reconcileUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
