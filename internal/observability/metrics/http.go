package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	quoteLookupsTotal *prometheus.CounterVec
	runsTotal         *prometheus.CounterVec
	runItemsQueued    *prometheus.HistogramVec
	prunedTotal       *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mip",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mip",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	quoteLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "enrichment",
			Name:      "quote_lookups_total",
			Help:      "Total quote lookups by outcome.",
		},
		[]string{"service", "outcome"},
	)
	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "ingest",
			Name:      "crawl_runs_total",
			Help:      "Total submitted crawl runs by status.",
		},
		[]string{"service", "status"},
	)
	runItemsQueued := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mip",
			Subsystem: "ingest",
			Name:      "crawl_run_items",
			Help:      "Distribution of queued items per accepted crawl run.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"service"},
	)
	prunedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "retention",
			Name:      "articles_pruned_total",
			Help:      "Total articles removed by retention pruning.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		quoteLookupsTotal,
		runsTotal,
		runItemsQueued,
		prunedTotal,
	)

	return &HTTPServerMetrics{
		registry:          registry,
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestInFlight:   requestInFlight,
		quoteLookupsTotal: quoteLookupsTotal,
		runsTotal:         runsTotal,
		runItemsQueued:    runItemsQueued,
		prunedTotal:       prunedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/profiles/") && path != "/v1/profiles/export":
		return "/v1/profiles/{company_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordQuoteLookup(service, outcome string) {
	if outcome == "" {
		outcome = "ok"
	}
	m.quoteLookupsTotal.WithLabelValues(service, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordCrawlRun(service, status string, queued int) {
	if status == "" {
		status = "unknown"
	}
	m.runsTotal.WithLabelValues(service, status).Inc()
	if queued > 0 {
		m.runItemsQueued.WithLabelValues(service).Observe(float64(queued))
	}
}

func (m *HTTPServerMetrics) RecordPrunedArticles(service string, count int64) {
	if count <= 0 {
		return
	}
	m.prunedTotal.WithLabelValues(service).Add(float64(count))
}

// statusRecorder only needs the status code label; responses here are all
// buffered, never streamed or hijacked.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
