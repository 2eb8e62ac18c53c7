// Package httpadapter exposes the pipeline over HTTP: crawl-run ingestion,
// enriched profile reads, the XLSX export, and retention pruning.
package httpadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/domain"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/core/usecase"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/infrastructure/report"
	"github.com/Chebil-Ilef/manu-intent-pipeline/internal/observability/metrics"
)

type Router struct {
	ingestUC    *usecase.IngestRunUseCase
	enrichUC    *usecase.EnrichProfilesUseCase
	retentionUC *usecase.RetentionUseCase
	metrics     *metrics.HTTPServerMetrics
	service     string
}

func NewRouter(
	ingestUC *usecase.IngestRunUseCase,
	enrichUC *usecase.EnrichProfilesUseCase,
	retentionUC *usecase.RetentionUseCase,
	serverMetrics *metrics.HTTPServerMetrics,
	service string,
) *Router {
	return &Router{
		ingestUC:    ingestUC,
		enrichUC:    enrichUC,
		retentionUC: retentionUC,
		metrics:     serverMetrics,
		service:     service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/crawl-runs", rt.submitCrawlRun)
	mux.HandleFunc("/v1/profiles", rt.listProfiles)
	mux.HandleFunc("/v1/profiles/", rt.profileSubtree)
	mux.HandleFunc("/v1/retention/prune", rt.pruneArticles)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type crawlRunRequest struct {
	// Cutoff accepts a date ("2006-01-02") or a full RFC 3339 timestamp.
	Cutoff string         `json:"cutoff"`
	Items  []crawlRunItem `json:"items"`
}

func parseCutoff(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if cutoff, err := time.Parse("2006-01-02", raw); err == nil {
		return cutoff, nil
	}
	return time.Parse(time.RFC3339, raw)
}

type crawlRunItem struct {
	URL       string    `json:"url"`
	FetchedAt time.Time `json:"fetched_at"`
	HTML      string    `json:"html"`
}

func (rt *Router) submitCrawlRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req crawlRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	cutoff, err := parseCutoff(req.Cutoff)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cutoff must be a date or RFC 3339 timestamp"})
		return
	}

	items := make([]domain.RawItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.RawItem{
			URL:       item.URL,
			FetchedAt: item.FetchedAt,
			HTML:      item.HTML,
		})
	}

	receipt, err := rt.ingestUC.Submit(r.Context(), cutoff, items)
	if err != nil {
		rt.recordCrawlRun("rejected", 0)
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	rt.recordCrawlRun("accepted", receipt.Queued)
	writeJSON(w, http.StatusAccepted, receipt)
}

func (rt *Router) listProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	profiles, err := rt.enrichUC.List(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	rt.recordQuoteOutcomes(profiles)
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (rt *Router) profileSubtree(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/v1/profiles/export" {
		rt.exportProfiles(w, r)
		return
	}
	rt.getProfile(w, r)
}

func (rt *Router) getProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	companyID := strings.TrimPrefix(r.URL.Path, "/v1/profiles/")
	if companyID == "" || strings.Contains(companyID, "/") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company id is required"})
		return
	}

	profile, err := rt.enrichUC.Get(r.Context(), companyID)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	rt.recordQuoteOutcomes([]domain.EnrichedProfile{*profile})
	writeJSON(w, http.StatusOK, profile)
}

func (rt *Router) exportProfiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	profiles, err := rt.enrichUC.List(r.Context())
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	rt.recordQuoteOutcomes(profiles)

	// Render fully before touching the response so a failed render still
	// produces a clean error status.
	var buf bytes.Buffer
	if err := report.WriteProfiles(&buf, profiles); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(time.Now().UTC())))
	_, _ = w.Write(buf.Bytes())
}

type pruneRequest struct {
	HorizonDays int `json:"horizon_days"`
}

func (rt *Router) pruneArticles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req pruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.HorizonDays <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "horizon_days must be positive"})
		return
	}

	horizon := time.Now().UTC().AddDate(0, 0, -req.HorizonDays)
	pruned, err := rt.retentionUC.Prune(r.Context(), horizon)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordPrunedArticles(rt.service, pruned)
	}
	writeJSON(w, http.StatusOK, map[string]int64{"pruned": pruned})
}

func (rt *Router) recordCrawlRun(status string, queued int) {
	if rt.metrics != nil {
		rt.metrics.RecordCrawlRun(rt.service, status, queued)
	}
}

func (rt *Router) recordQuoteOutcomes(profiles []domain.EnrichedProfile) {
	if rt.metrics == nil {
		return
	}
	for _, profile := range profiles {
		outcome := profile.QuoteError
		if outcome == "" {
			outcome = "ok"
		}
		rt.metrics.RecordQuoteLookup(rt.service, outcome)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func exportFilename(now time.Time) string {
	return "company-profiles-" + now.Format("2006-01-02") + ".xlsx"
}
