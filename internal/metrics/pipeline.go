package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage", "status"},
	)

	PagesProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Name:      "pages_processed_total",
			Help:      "Total number of pages fingerprinted and classified",
		},
	)

	DuplicatesFoundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Name:      "duplicates_found_total",
			Help:      "Total duplicates removed, by kind",
		},
		[]string{"kind"}, // "page" / "file"
	)

	SegmentsStitchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Name:      "segments_stitched_total",
			Help:      "Total segments merged across files",
		},
	)

	ParserFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Name:      "parser_fallback_total",
			Help:      "Canonical builds that fell back to rule-based extraction",
		},
	)

	BatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Name:      "batches_total",
			Help:      "Total intake batches processed",
		},
		[]string{"status"}, // "ok" / "failed"
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers Prometheus pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(PagesProcessedTotal)
	prometheus.MustRegister(DuplicatesFoundTotal)
	prometheus.MustRegister(SegmentsStitchedTotal)
	prometheus.MustRegister(ParserFallbackTotal)
	prometheus.MustRegister(BatchesTotal)
	pipelineMetricsRegistered = true
}
