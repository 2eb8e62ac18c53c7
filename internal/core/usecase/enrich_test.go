package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

type directoryFake struct {
	companies map[string]*domain.Company
}

func (f *directoryFake) ListCompanies(context.Context) ([]domain.Company, error) {
	var out []domain.Company
	for _, company := range f.companies {
		out = append(out, *company)
	}
	return out, nil
}

func (f *directoryFake) AppendAlias(context.Context, string, string) error { return nil }

func (f *directoryFake) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	if company, ok := f.companies[companyID]; ok {
		copyCompany := *company
		return &copyCompany, nil
	}
	return nil, domain.WrapError(domain.ErrCompanyNotFound, "get company", errors.New(companyID))
}

func (f *directoryFake) SeedCompany(context.Context, domain.Company) error { return nil }

type quoteProviderFake struct {
	quote *domain.Quote
	err   error
	calls int
}

func (f *quoteProviderFake) Quote(context.Context, string) (*domain.Quote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quote, nil
}

func signalAt(offset time.Duration, signalType domain.SignalType) domain.IntentSignal {
	return domain.IntentSignal{
		ArticleFingerprint: "fp",
		CompanyID:          "c-1",
		Type:               signalType,
		Strength:           0.5,
		DetectedAt:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Add(offset),
	}
}

func enrichFixture(quote *quoteProviderFake, history []domain.IntentSignal, ticker string) *EnrichProfilesUseCase {
	profiles := &profileStoreFake{byID: map[string]*domain.CompanyProfile{
		"c-1": {CompanyID: "c-1", AggregateScore: 1.2, SignalHistory: history},
	}}
	directory := &directoryFake{companies: map[string]*domain.Company{
		"c-1": {ID: "c-1", CanonicalName: "AcmeCorp", Ticker: ticker},
	}}
	return NewEnrichProfilesUseCase(profiles, directory, quote, EnrichOptions{TopSignals: 2})
}

func TestGetAttachesQuoteOnRead(t *testing.T) {
	quote := &quoteProviderFake{quote: &domain.Quote{Ticker: "ACME", Price: 101.5}}
	uc := enrichFixture(quote, []domain.IntentSignal{
		signalAt(0, domain.SignalProductLaunch),
		signalAt(time.Hour, domain.SignalExpansion),
		signalAt(2*time.Hour, domain.SignalHiring),
	}, "ACME")

	enriched, err := uc.Get(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if enriched.Quote == nil || enriched.Quote.Ticker != "ACME" {
		t.Fatalf("Quote = %+v, want ACME", enriched.Quote)
	}
	if enriched.QuoteError != "" {
		t.Fatalf("QuoteError = %q, want empty", enriched.QuoteError)
	}
	if len(enriched.TopSignals) != 2 {
		t.Fatalf("TopSignals = %d, want capped at 2", len(enriched.TopSignals))
	}
	if enriched.TopSignals[0].Type != domain.SignalExpansion || enriched.TopSignals[1].Type != domain.SignalHiring {
		t.Fatalf("expected the two most recent signals, got %v", enriched.TopSignals)
	}
}

func TestGetDegradesOnQuoteFailure(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		marker string
	}{
		{"rate limited", domain.WrapError(domain.ErrQuoteRateLimited, "quote fetch", errors.New("throttled")), "rate_limited"},
		{"unknown ticker", domain.WrapError(domain.ErrUnknownTicker, "quote fetch", errors.New("nope")), "unknown_ticker"},
		{"provider down", domain.WrapError(domain.ErrQuoteUnavailable, "quote fetch", errors.New("503")), "unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := enrichFixture(&quoteProviderFake{err: tc.err}, nil, "ACME")
			enriched, err := uc.Get(context.Background(), "c-1")
			if err != nil {
				t.Fatalf("quote failure must not fail the read: %v", err)
			}
			if enriched.Quote != nil {
				t.Fatal("expected nil quote")
			}
			if enriched.QuoteError != tc.marker {
				t.Fatalf("QuoteError = %q, want %q", enriched.QuoteError, tc.marker)
			}
			if enriched.AggregateScore != 1.2 {
				t.Fatalf("AggregateScore = %v, profile data must survive", enriched.AggregateScore)
			}
		})
	}
}

func TestGetSkipsProviderWithoutTicker(t *testing.T) {
	quote := &quoteProviderFake{quote: &domain.Quote{Ticker: "ACME"}}
	uc := enrichFixture(quote, nil, "")

	enriched, err := uc.Get(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if quote.calls != 0 {
		t.Fatal("no ticker must mean no provider call")
	}
	if enriched.QuoteError != "no_ticker" {
		t.Fatalf("QuoteError = %q, want no_ticker", enriched.QuoteError)
	}
}

func TestGetUnknownProfile(t *testing.T) {
	uc := enrichFixture(&quoteProviderFake{}, nil, "ACME")
	if _, err := uc.Get(context.Background(), "missing"); !domain.IsKind(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected profile not found, got %v", err)
	}
}

func TestListEnrichesEveryProfile(t *testing.T) {
	profiles := &profileStoreFake{
		profiles: []domain.CompanyProfile{
			{CompanyID: "c-1", AggregateScore: 1.2},
			{CompanyID: "c-2", AggregateScore: 0.4},
		},
	}
	directory := &directoryFake{companies: map[string]*domain.Company{
		"c-1": {ID: "c-1", CanonicalName: "AcmeCorp", Ticker: "ACME"},
		"c-2": {ID: "c-2", CanonicalName: "Bosch"},
	}}
	quote := &quoteProviderFake{quote: &domain.Quote{Ticker: "ACME", Price: 99}}
	uc := NewEnrichProfilesUseCase(profiles, directory, quote, EnrichOptions{})

	enriched, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(enriched) != 2 {
		t.Fatalf("enriched = %d profiles, want 2", len(enriched))
	}
	if enriched[0].Quote == nil {
		t.Fatal("ticker-bearing company must carry a quote")
	}
	if enriched[1].QuoteError != "no_ticker" {
		t.Fatalf("QuoteError = %q, want no_ticker", enriched[1].QuoteError)
	}
	if quote.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", quote.calls)
	}
}
