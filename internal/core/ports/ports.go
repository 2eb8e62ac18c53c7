package ports

import (
	"context"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
)

// ContentStore is the dedup authority: a durable record of every article
// ever admitted, keyed by fingerprint.
type ContentStore interface {
	// Admit persists the article unless it was published before cutoff or an
	// article with the same fingerprint already exists. Concurrent admissions
	// of the same fingerprint yield exactly one accepted outcome.
	Admit(ctx context.Context, article *domain.Article, cutoff time.Time) (domain.Admission, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*domain.Article, error)
	// Annotate records the classification result and the sanitized body so
	// the ledger keeps the text the signals were scored on. Write-once per
	// article.
	Annotate(ctx context.Context, fingerprint, category, body string) error
	// PruneBefore removes articles published before the horizon and returns
	// how many were dropped. The only sanctioned way articles ever leave.
	PruneBefore(ctx context.Context, horizon time.Time) (int64, error)
}

// CompanyDirectory persists canonical company identities and their aliases.
type CompanyDirectory interface {
	ListCompanies(ctx context.Context) ([]domain.Company, error)
	// AppendAlias records a newly discovered surface form. Append-only.
	AppendAlias(ctx context.Context, companyID, alias string) error
	GetCompany(ctx context.Context, companyID string) (*domain.Company, error)
	// SeedCompany inserts a company if its canonical name is not yet known.
	SeedCompany(ctx context.Context, company domain.Company) error
}

// ProfileStore persists company profiles and applies signals to them.
type ProfileStore interface {
	// ApplySignal folds one signal into the company's profile, creating the
	// profile on first signal. Idempotent per signal key; updates for the
	// same company are serialized, different companies proceed in parallel.
	ApplySignal(ctx context.Context, signal domain.IntentSignal, now time.Time) (*domain.CompanyProfile, error)
	GetProfile(ctx context.Context, companyID string) (*domain.CompanyProfile, error)
	ListProfiles(ctx context.Context) ([]domain.CompanyProfile, error)
}

// MessageQueue moves crawl-run items from the ingest API to the workers.
type MessageQueue interface {
	PublishCrawlTask(ctx context.Context, task domain.CrawlTask) error
	SubscribeCrawlTasks(ctx context.Context, handler func(context.Context, domain.CrawlTask) error) error
}

// Normalizer turns a raw fetch record into a canonical article with a
// content-derived fingerprint.
type Normalizer interface {
	Normalize(item domain.RawItem) (*domain.Article, error)
}

// TextCleaner is the external text-cleaning collaborator. Idempotent:
// cleaning already-clean text returns it unchanged.
type TextCleaner interface {
	Clean(ctx context.Context, text, url string) (string, error)
}

// Classifier assigns a topic category from the fixed taxonomy.
type Classifier interface {
	Classify(article *domain.Article) string
}

// SignalScorer maps a classified article to zero or more intent signals for
// an already-resolved company.
type SignalScorer interface {
	Score(article *domain.Article, companyID string, detectedAt time.Time) []domain.IntentSignal
}

// CompanyResolver maps article text and metadata to a canonical company.
// Returns nil when no company can be attributed.
type CompanyResolver interface {
	Resolve(ctx context.Context, article *domain.Article) (*domain.Company, error)
}

// QuoteProvider is the external financial-quote collaborator.
type QuoteProvider interface {
	Quote(ctx context.Context, ticker string) (*domain.Quote, error)
}
