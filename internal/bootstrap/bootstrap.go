package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/config"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/ports"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/usecase"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/classify"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/cleaner"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/normalize"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/queue/nats"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/quotes"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/repository/postgres"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/resilience"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/resolve"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/rules"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/signals"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue

	IngestUC    *usecase.IngestRunUseCase
	ProcessUC   *usecase.ProcessItemUseCase
	EnrichUC    *usecase.EnrichProfilesUseCase
	RetentionUC *usecase.RetentionUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	contentStore := postgres.NewContentStore(db)
	directory := postgres.NewCompanyDirectory(db)
	profileStore := postgres.NewProfileStore(db)

	ruleSet, err := rules.Load(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	if err := seedCompanies(ctx, directory, ruleSet.Companies); err != nil {
		return nil, fmt.Errorf("seed companies: %w", err)
	}

	resolver := resolve.New(directory, cfg.SimilarityThreshold, logger)
	if err := resolver.Load(ctx); err != nil {
		return nil, fmt.Errorf("build alias index: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	cleanerClient := cleaner.New(cfg.CleanerURL, cleaner.Options{
		Timeout:            time.Duration(cfg.CleanerTimeoutSeconds) * time.Second,
		ResilienceExecutor: executor,
	})
	quoteClient := quotes.New(cfg.QuoteURL, cfg.QuoteAPIKey, quotes.Options{
		Timeout:            time.Duration(cfg.QuoteTimeoutSeconds) * time.Second,
		RequestsPerMinute:  cfg.QuoteRequestsPerMinute,
		ResilienceExecutor: executor,
	})

	normalizer := normalize.New()
	classifier := classify.New(ruleSet.Categories)
	scorer := signals.NewScorer(ruleSet.Signals)

	ingestUC := usecase.NewIngestRunUseCase(queue)
	processUC := usecase.NewProcessItemUseCase(
		normalizer,
		contentStore,
		cleanerClient,
		classifier,
		resolver,
		scorer,
		profileStore,
		logger,
	)
	enrichUC := usecase.NewEnrichProfilesUseCase(profileStore, directory, quoteClient, usecase.EnrichOptions{
		TopSignals:   cfg.TopSignals,
		QuoteTimeout: time.Duration(cfg.QuoteTimeoutSeconds) * time.Second,
		Logger:       logger,
	})
	retentionUC := usecase.NewRetentionUseCase(contentStore, logger)

	return &App{
		Config: cfg,
		Queue:  queue,

		IngestUC:    ingestUC,
		ProcessUC:   processUC,
		EnrichUC:    enrichUC,
		RetentionUC: retentionUC,

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

func seedCompanies(ctx context.Context, directory ports.CompanyDirectory, seeds []rules.CompanySeed) error {
	for _, seed := range seeds {
		err := directory.SeedCompany(ctx, domain.Company{
			CanonicalName: seed.Name,
			Aliases:       seed.Aliases,
			Ticker:        seed.Ticker,
		})
		if err != nil {
			return fmt.Errorf("seed %q: %w", seed.Name, err)
		}
	}
	return nil
}
