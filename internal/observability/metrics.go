// Package observability groups the Prometheus instruments and OpenTelemetry
// trace setup shared across membank components.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Search outcome label values for SearchesTotal.
const (
	OutcomeRanked   = "ranked"
	OutcomeDegraded = "degraded"
	OutcomeEmpty    = "empty"
)

// Extraction status label values for ExtractionsTotal.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TurnsTotal        prometheus.Counter
	ExtractionsTotal  *prometheus.CounterVec
	FactsTotal        prometheus.Counter
	SearchesTotal     *prometheus.CounterVec
	ExtractionSeconds prometheus.Histogram
	SearchSeconds     prometheus.Histogram
}

// NewMetrics registers and returns the instrument set under the given
// namespace. Must be called at most once per process (promauto registers
// with the default registry).
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Conversation turns appended to the store.",
		}),
		ExtractionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Fact extraction runs by status.",
		}, []string{"status"}),
		FactsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_total",
			Help:      "Facts appended to user collections.",
		}),
		SearchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Memory searches by outcome.",
		}, []string{"outcome"}),
		ExtractionSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_seconds",
			Help:      "Wall time of extraction runs, including the model call.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
		}),
		SearchSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_seconds",
			Help:      "Wall time of ranked searches, including the model call.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
		}),
	}
}

// ObserveExtraction records one extraction run.
func (m *Metrics) ObserveExtraction(status string, d time.Duration) {
	m.ExtractionsTotal.WithLabelValues(status).Inc()
	m.ExtractionSeconds.Observe(d.Seconds())
}

// ObserveSearch records one search.
func (m *Metrics) ObserveSearch(outcome string, d time.Duration) {
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchSeconds.Observe(d.Seconds())
}

// MetricsHandler returns the HTTP handler serving the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
