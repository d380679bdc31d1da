package operation

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FilesIndexedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "excavator_files_indexed_total",
		Help: "Total number of files successfully indexed",
	})

	FilesFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "excavator_files_failed_total",
		Help: "Total number of files that failed extraction",
	})

	JobQueueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "excavator_job_queue_depth",
			Help: "Number of jobs currently pending by priority",
		},
		[]string{"priority"},
	)

	ExtractionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "excavator_extraction_duration_seconds",
		Help:    "Time taken to extract and index a single file",
		Buckets: prometheus.DefBuckets,
	})

	CorrelationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "excavator_correlation_duration_seconds",
		Help:    "Time taken for a full correlation run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})

	CorrelationRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "excavator_correlation_runs_total",
		Help: "Total number of correlation runs completed",
	})

	DiscoveriesSurfacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "excavator_discoveries_surfaced_total",
		Help: "Total number of discoveries surfaced across all correlation runs",
	})
)

func init() {
	prometheus.MustRegister(
		FilesIndexedTotal,
		FilesFailedTotal,
		JobQueueDepth,
		ExtractionDuration,
		CorrelationDuration,
		CorrelationRunsTotal,
		DiscoveriesSurfacedTotal,
	)
}

// Handler returns the Prometheus scrape handler, mounted at GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
