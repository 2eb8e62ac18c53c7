package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/ports"
)

type ProcessItemUseCase struct {
	normalizer ports.Normalizer
	store      ports.ContentStore
	cleaner    ports.TextCleaner
	classifier ports.Classifier
	resolver   ports.CompanyResolver
	scorer     ports.SignalScorer
	profiles   ports.ProfileStore
	logger     *slog.Logger
	now        func() time.Time
}

func NewProcessItemUseCase(
	normalizer ports.Normalizer,
	store ports.ContentStore,
	cleaner ports.TextCleaner,
	classifier ports.Classifier,
	resolver ports.CompanyResolver,
	scorer ports.SignalScorer,
	profiles ports.ProfileStore,
	logger *slog.Logger,
) *ProcessItemUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessItemUseCase{
		normalizer: normalizer,
		store:      store,
		cleaner:    cleaner,
		classifier: classifier,
		resolver:   resolver,
		scorer:     scorer,
		profiles:   profiles,
		logger:     logger,
		now:        time.Now,
	}
}

// Outcome summarizes one pipeline item for the worker's bookkeeping.
type Outcome struct {
	Status         domain.AdmissionStatus
	Fingerprint    string
	Category       string
	CompanyID      string
	SignalsApplied int
	SignalTypes    []domain.SignalType
	Unattributed   bool
}

// Process runs one crawl item through the full pipeline: normalize, admit,
// clean, classify, resolve, score, aggregate. Rejected admissions stop at
// the gate; everything after admission works on the accepted article only.
func (uc *ProcessItemUseCase) Process(ctx context.Context, task domain.CrawlTask) (Outcome, error) {
	article, err := uc.normalizer.Normalize(task.Item)
	if err != nil {
		return Outcome{}, fmt.Errorf("normalize item %s: %w", task.Item.URL, err)
	}

	admission, err := uc.store.Admit(ctx, article, task.Cutoff)
	if err != nil {
		return Outcome{}, domain.WrapError(domain.ErrPersistence, "admit article", err)
	}
	outcome := Outcome{Status: admission.Status, Fingerprint: article.Fingerprint}
	if admission.Status != domain.AdmissionAccepted {
		uc.logger.Debug("article rejected",
			"run_id", task.RunID,
			"url", article.URL,
			"status", string(admission.Status),
		)
		return outcome, nil
	}

	uc.cleanBody(ctx, article)

	category := uc.classifier.Classify(article)
	article.Category = category
	outcome.Category = category
	// The ledger keeps the text the signals were scored on, so the cleaned
	// body lands alongside the category.
	if err := uc.store.Annotate(ctx, article.Fingerprint, category, article.Body); err != nil {
		return outcome, domain.WrapError(domain.ErrPersistence, "annotate article", err)
	}

	company, err := uc.resolver.Resolve(ctx, article)
	if err != nil {
		return outcome, fmt.Errorf("resolve company for %s: %w", article.URL, err)
	}
	if company == nil {
		outcome.Unattributed = true
		uc.logger.Info("article unattributed",
			"run_id", task.RunID,
			"url", article.URL,
			"category", category,
		)
		return outcome, nil
	}
	outcome.CompanyID = company.ID

	detectedAt := article.PublishedAt
	if detectedAt.IsZero() {
		detectedAt = article.FetchedAt
	}
	signals := uc.scorer.Score(article, company.ID, detectedAt)
	now := uc.now().UTC()
	for _, signal := range signals {
		if _, err := uc.profiles.ApplySignal(ctx, signal, now); err != nil {
			return outcome, domain.WrapError(domain.ErrPersistence, "apply signal", err)
		}
		outcome.SignalsApplied++
		outcome.SignalTypes = append(outcome.SignalTypes, signal.Type)
	}

	uc.logger.Info("article processed",
		"run_id", task.RunID,
		"url", article.URL,
		"category", category,
		"company_id", company.ID,
		"signals", outcome.SignalsApplied,
	)
	return outcome, nil
}

// cleanBody swaps in the sanitized text when the cleaner answers. A cleaner
// outage degrades to the raw body rather than stalling the pipeline.
func (uc *ProcessItemUseCase) cleanBody(ctx context.Context, article *domain.Article) {
	if uc.cleaner == nil || article.Body == "" {
		return
	}
	cleaned, err := uc.cleaner.Clean(ctx, article.Body, article.URL)
	if err != nil {
		uc.logger.Warn("cleaner unavailable, using raw text", "url", article.URL, "error", err)
		return
	}
	if cleaned != "" {
		article.Body = cleaned
	}
}
