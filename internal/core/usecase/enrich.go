package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/ports"
)

const (
	quoteErrorRateLimited = "rate_limited"
	quoteErrorUnavailable = "unavailable"
	quoteErrorUnknown     = "unknown_ticker"
	quoteErrorNoTicker    = "no_ticker"
)

// EnrichProfilesUseCase serves profile reads with the market quote attached
// at read time. Quotes are never written back: the stored profile stays
// quote-free and every read reflects the provider's current answer.
type EnrichProfilesUseCase struct {
	profiles     ports.ProfileStore
	directory    ports.CompanyDirectory
	quotes       ports.QuoteProvider
	topSignals   int
	quoteTimeout time.Duration
	logger       *slog.Logger
}

type EnrichOptions struct {
	TopSignals   int
	QuoteTimeout time.Duration
	Logger       *slog.Logger
}

func NewEnrichProfilesUseCase(
	profiles ports.ProfileStore,
	directory ports.CompanyDirectory,
	quotes ports.QuoteProvider,
	options EnrichOptions,
) *EnrichProfilesUseCase {
	topSignals := options.TopSignals
	if topSignals <= 0 {
		topSignals = 5
	}
	quoteTimeout := options.QuoteTimeout
	if quoteTimeout <= 0 {
		quoteTimeout = 5 * time.Second
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichProfilesUseCase{
		profiles:     profiles,
		directory:    directory,
		quotes:       quotes,
		topSignals:   topSignals,
		quoteTimeout: quoteTimeout,
		logger:       logger,
	}
}

func (uc *EnrichProfilesUseCase) Get(ctx context.Context, companyID string) (*domain.EnrichedProfile, error) {
	profile, err := uc.profiles.GetProfile(ctx, companyID)
	if err != nil {
		return nil, err
	}
	company, err := uc.directory.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	enriched := uc.enrich(ctx, profile, company)
	return &enriched, nil
}

func (uc *EnrichProfilesUseCase) List(ctx context.Context) ([]domain.EnrichedProfile, error) {
	profiles, err := uc.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}

	enriched := make([]domain.EnrichedProfile, 0, len(profiles))
	for i := range profiles {
		company, err := uc.directory.GetCompany(ctx, profiles[i].CompanyID)
		if err != nil {
			if domain.IsKind(err, domain.ErrCompanyNotFound) {
				uc.logger.Warn("profile without company record", "company_id", profiles[i].CompanyID)
				continue
			}
			return nil, err
		}
		enriched = append(enriched, uc.enrich(ctx, &profiles[i], company))
	}
	return enriched, nil
}

func (uc *EnrichProfilesUseCase) enrich(ctx context.Context, profile *domain.CompanyProfile, company *domain.Company) domain.EnrichedProfile {
	enriched := domain.EnrichedProfile{
		CompanyID:      profile.CompanyID,
		CanonicalName:  company.CanonicalName,
		AggregateScore: profile.AggregateScore,
		TopSignals:     profile.TopSignals(uc.topSignals),
	}

	if company.Ticker == "" {
		enriched.QuoteError = quoteErrorNoTicker
		return enriched
	}

	quoteCtx, cancel := context.WithTimeout(ctx, uc.quoteTimeout)
	defer cancel()

	quote, err := uc.quotes.Quote(quoteCtx, company.Ticker)
	if err != nil {
		enriched.QuoteError = quoteErrorMarker(err)
		uc.logger.Warn("quote lookup failed",
			"company_id", profile.CompanyID,
			"ticker", company.Ticker,
			"marker", enriched.QuoteError,
			"error", err,
		)
		return enriched
	}
	enriched.Quote = quote
	return enriched
}

func quoteErrorMarker(err error) string {
	switch {
	case domain.IsKind(err, domain.ErrQuoteRateLimited):
		return quoteErrorRateLimited
	case domain.IsKind(err, domain.ErrUnknownTicker):
		return quoteErrorUnknown
	default:
		return quoteErrorUnavailable
	}
}
