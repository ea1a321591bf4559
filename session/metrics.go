package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawl engine.
type Metrics struct {
	Registry          *prometheus.Registry
	PagesFetched      prometheus.Counter
	FetchDuration     prometheus.Histogram
	ProductsExtracted prometheus.Counter
	ErrorsTotal       *prometheus.CounterVec
	SessionsActive    prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pages := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_pages_fetched_total",
		Help: "Total pages fetched across all sessions.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawler_fetch_duration_seconds",
		Help:    "Page fetch latency.",
		Buckets: prometheus.DefBuckets,
	})
	products := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "crawler_products_extracted_total",
		Help: "Total product records extracted across all sessions.",
	})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawler_errors_total",
		Help: "Total page-scoped errors by category.",
	}, []string{"error_type"})
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "crawler_sessions_active",
		Help: "Number of sessions currently running.",
	})

	registry.MustRegister(pages, duration, products, errorsTotal, active)

	return &Metrics{
		Registry:          registry,
		PagesFetched:      pages,
		FetchDuration:     duration,
		ProductsExtracted: products,
		ErrorsTotal:       errorsTotal,
		SessionsActive:    active,
	}
}

// IncPages increments the fetched-pages counter.
func (m *Metrics) IncPages() {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
}

// ObserveFetch records one fetch duration.
func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// AddProducts increments the extracted-products counter.
func (m *Metrics) AddProducts(n int) {
	if m == nil {
		return
	}
	m.ProductsExtracted.Add(float64(n))
}

// IncError increments the errors counter for a category label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SessionStarted and SessionEnded track the active-sessions gauge.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}
