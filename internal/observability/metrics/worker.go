package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	itemsTotal         *prometheus.CounterVec
	processDuration    *prometheus.HistogramVec
	processInFlight    prometheus.Gauge
	queueLag           *prometheus.HistogramVec
	signalsTotal       *prometheus.CounterVec
	unattributedTotal  *prometheus.CounterVec
	processFailedTotal *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	itemsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "worker",
			Name:      "items_total",
			Help:      "Total processed crawl items by admission status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mip",
			Subsystem: "worker",
			Name:      "item_process_duration_seconds",
			Help:      "Crawl item processing duration in seconds by admission status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mip",
			Subsystem: "worker",
			Name:      "items_in_flight",
			Help:      "Number of crawl items currently being processed.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mip",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between item fetch and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	signalsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "worker",
			Name:      "signals_total",
			Help:      "Total intent signals applied to profiles by type.",
		},
		[]string{"service", "type"},
	)
	unattributedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "worker",
			Name:      "unattributed_total",
			Help:      "Total admitted articles with no resolvable company.",
		},
		[]string{"service"},
	)
	processFailedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mip",
			Subsystem: "worker",
			Name:      "item_failures_total",
			Help:      "Total crawl items that failed processing.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		itemsTotal,
		processDuration,
		processInFlight,
		queueLag,
		signalsTotal,
		unattributedTotal,
		processFailedTotal,
	)

	return &WorkerMetrics{
		registry:           registry,
		itemsTotal:         itemsTotal,
		processDuration:    processDuration,
		processInFlight:    processInFlight,
		queueLag:           queueLag,
		signalsTotal:       signalsTotal,
		unattributedTotal:  unattributedTotal,
		processFailedTotal: processFailedTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartItem() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishItem(service, status string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	if err != nil {
		m.processFailedTotal.WithLabelValues(service).Inc()
		if status == "" {
			status = "error"
		}
	}
	m.itemsTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) RecordSignal(service, signalType string) {
	if signalType == "" {
		signalType = "unknown"
	}
	m.signalsTotal.WithLabelValues(service, signalType).Inc()
}

func (m *WorkerMetrics) RecordUnattributed(service string) {
	m.unattributedTotal.WithLabelValues(service).Inc()
}
