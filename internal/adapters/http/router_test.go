package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/usecase"
)

type queueStub struct {
	published int
	err       error
}

func (s *queueStub) PublishCrawlTask(context.Context, domain.CrawlTask) error {
	if s.err != nil {
		return s.err
	}
	s.published++
	return nil
}

func (s *queueStub) SubscribeCrawlTasks(context.Context, func(context.Context, domain.CrawlTask) error) error {
	return nil
}

type profileStoreStub struct {
	profiles []domain.CompanyProfile
}

func (s *profileStoreStub) ApplySignal(context.Context, domain.IntentSignal, time.Time) (*domain.CompanyProfile, error) {
	return nil, nil
}

func (s *profileStoreStub) GetProfile(_ context.Context, companyID string) (*domain.CompanyProfile, error) {
	for i := range s.profiles {
		if s.profiles[i].CompanyID == companyID {
			return &s.profiles[i], nil
		}
	}
	return nil, domain.WrapError(domain.ErrProfileNotFound, "get profile", errors.New(companyID))
}

func (s *profileStoreStub) ListProfiles(context.Context) ([]domain.CompanyProfile, error) {
	return s.profiles, nil
}

type directoryStub struct {
	companies map[string]domain.Company
}

func (s *directoryStub) ListCompanies(context.Context) ([]domain.Company, error) { return nil, nil }
func (s *directoryStub) AppendAlias(context.Context, string, string) error      { return nil }
func (s *directoryStub) SeedCompany(context.Context, domain.Company) error      { return nil }

func (s *directoryStub) GetCompany(_ context.Context, companyID string) (*domain.Company, error) {
	if company, ok := s.companies[companyID]; ok {
		return &company, nil
	}
	return nil, domain.WrapError(domain.ErrCompanyNotFound, "get company", errors.New(companyID))
}

type quoteStub struct {
	quote *domain.Quote
	err   error
}

func (s *quoteStub) Quote(context.Context, string) (*domain.Quote, error) {
	return s.quote, s.err
}

type contentStoreStub struct {
	pruned   int64
	pruneErr error
}

func (s *contentStoreStub) Admit(context.Context, *domain.Article, time.Time) (domain.Admission, error) {
	return domain.Admission{}, nil
}

func (s *contentStoreStub) GetByFingerprint(context.Context, string) (*domain.Article, error) {
	return nil, domain.ErrArticleNotFound
}

func (s *contentStoreStub) Annotate(context.Context, string, string, string) error { return nil }

func (s *contentStoreStub) PruneBefore(context.Context, time.Time) (int64, error) {
	return s.pruned, s.pruneErr
}

func newTestRouter(queue *queueStub, profiles *profileStoreStub, directory *directoryStub, quotes *quoteStub, store *contentStoreStub) http.Handler {
	ingestUC := usecase.NewIngestRunUseCase(queue)
	enrichUC := usecase.NewEnrichProfilesUseCase(profiles, directory, quotes, usecase.EnrichOptions{})
	retentionUC := usecase.NewRetentionUseCase(store, nil)
	return NewRouter(ingestUC, enrichUC, retentionUC, nil, "api").Handler()
}

func defaultFixture() http.Handler {
	return newTestRouter(
		&queueStub{},
		&profileStoreStub{profiles: []domain.CompanyProfile{{CompanyID: "c-1", AggregateScore: 1.5}}},
		&directoryStub{companies: map[string]domain.Company{
			"c-1": {ID: "c-1", CanonicalName: "AcmeCorp", Ticker: "ACME"},
		}},
		&quoteStub{quote: &domain.Quote{Ticker: "ACME", Price: 101}},
		&contentStoreStub{pruned: 7},
	)
}

func TestSubmitCrawlRunAccepted(t *testing.T) {
	queue := &queueStub{}
	handler := newTestRouter(queue, &profileStoreStub{}, &directoryStub{}, &quoteStub{}, &contentStoreStub{})

	body := `{"cutoff":"2026-01-01","items":[{"url":"https://example.com/a","html":"<html/>"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/crawl-runs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202, body: %s", rec.Code, rec.Body.String())
	}
	var receipt usecase.RunReceipt
	if err := json.Unmarshal(rec.Body.Bytes(), &receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.RunID == "" || receipt.Queued != 1 {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	if queue.published != 1 {
		t.Fatalf("published = %d, want 1", queue.published)
	}
}

func TestSubmitCrawlRunValidation(t *testing.T) {
	handler := defaultFixture()

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"cutoff":`},
		{"missing cutoff", `{"items":[{"url":"https://example.com/a"}]}`},
		{"unparseable cutoff", `{"cutoff":"January 1st","items":[{"url":"https://example.com/a"}]}`},
		{"no items", `{"cutoff":"2026-01-01","items":[]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/crawl-runs", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSubmitCrawlRunQueueOutage(t *testing.T) {
	queue := &queueStub{err: domain.WrapError(domain.ErrTemporary, "nats publish", errors.New("no servers"))}
	handler := newTestRouter(queue, &profileStoreStub{}, &directoryStub{}, &quoteStub{}, &contentStoreStub{})

	body := `{"cutoff":"2026-01-01","items":[{"url":"https://example.com/a"}]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/crawl-runs", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestGetProfileEnriched(t *testing.T) {
	handler := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/c-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	var profile domain.EnrichedProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.CanonicalName != "AcmeCorp" {
		t.Fatalf("CanonicalName = %q", profile.CanonicalName)
	}
	if profile.Quote == nil || profile.Quote.Price != 101 {
		t.Fatalf("Quote = %+v", profile.Quote)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	handler := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestListProfiles(t *testing.T) {
	handler := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var payload struct {
		Profiles []domain.EnrichedProfile `json:"profiles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if len(payload.Profiles) != 1 {
		t.Fatalf("profiles = %d, want 1", len(payload.Profiles))
	}
}

func TestExportProfilesReturnsWorkbook(t *testing.T) {
	handler := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles/export", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "spreadsheetml") {
		t.Fatalf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, ".xlsx") {
		t.Fatalf("Content-Disposition = %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("empty workbook body")
	}
}

func TestPruneArticles(t *testing.T) {
	handler := defaultFixture()

	body := `{"horizon_days":365}`
	req := httptest.NewRequest(http.MethodPost, "/v1/retention/prune", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["pruned"] != 7 {
		t.Fatalf("pruned = %d, want 7", payload["pruned"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := defaultFixture()

	req := httptest.NewRequest(http.MethodDelete, "/v1/profiles", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestRequestIDEchoedBack(t *testing.T) {
	handler := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("X-Request-Id = %q, want req-123", got)
	}
}
