// Package metrics exposes Prometheus collectors for the query path.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "groundqa"
)

// Retrieval modes used as label values.
const (
	ModeGrounded   = "grounded"
	ModeUngrounded = "ungrounded"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	RetrievalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_total",
			Help:      "Retrievals by grounding outcome",
		},
		[]string{"mode"},
	)

	RetrievalTopScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_top_score",
			Help:      "Similarity of the best match per retrieval",
			Buckets:   prometheus.LinearBuckets(-1, 0.1, 21),
		},
	)

	CapabilityCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "capability",
			Name:      "call_duration_seconds",
			Help:      "Duration of embedding and generation calls",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"capability", "status"},
	)

	IndexEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "entries",
			Help:      "Entries in the currently loaded artifacts",
		},
		[]string{"artifact"},
	)

	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "reloads_total",
			Help:      "Artifact reload attempts",
		},
		[]string{"status"},
	)
)

// ObserveRetrieval records the grounding outcome and the best score.
func ObserveRetrieval(grounded bool, topScore float64, hasResults bool) {
	mode := ModeUngrounded
	if grounded {
		mode = ModeGrounded
	}
	RetrievalTotal.WithLabelValues(mode).Inc()
	if hasResults {
		RetrievalTopScore.Observe(topScore)
	}
}

// Status returns the label value for an outcome.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
