// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "redline"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	TranscriptsCreated prometheus.Counter
	TranscriptsDeleted prometheus.Counter

	EditsApplied  *prometheus.CounterVec
	EditsReverted prometheus.Counter

	ExportsGenerated *prometheus.CounterVec
	PagesRendered    prometheus.Histogram

	SummariesGenerated *prometheus.CounterVec

	WSClients prometheus.Gauge
}

// Default is the global metrics instance.
var Default = New()

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TranscriptsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_created_total",
			Help:      "Total number of transcripts ingested",
		}),
		TranscriptsDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_deleted_total",
			Help:      "Total number of transcripts deleted",
		}),

		EditsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_applied_total",
			Help:      "Total number of edit operations applied",
		}, []string{"op"}),
		EditsReverted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_reverted_total",
			Help:      "Total number of revert operations",
		}),

		ExportsGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_generated_total",
			Help:      "Total number of export documents generated",
		}, []string{"format"}),
		PagesRendered: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pages_rendered",
			Help:      "Pages per generated export",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),

		SummariesGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_generated_total",
			Help:      "Total number of summary generation attempts",
		}, []string{"status"}),

		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_clients",
			Help:      "Number of connected WebSocket clients",
		}),
	}
}

// RecordEdit records one applied edit operation.
func (m *Metrics) RecordEdit(op string) {
	m.EditsApplied.WithLabelValues(op).Inc()
}

// RecordExport records a generated export document.
func (m *Metrics) RecordExport(format string, pages int) {
	m.ExportsGenerated.WithLabelValues(format).Inc()
	m.PagesRendered.Observe(float64(pages))
}

// RecordSummary records a summary generation outcome.
func (m *Metrics) RecordSummary(status string) {
	m.SummariesGenerated.WithLabelValues(status).Inc()
}
