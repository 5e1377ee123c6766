package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DatasetsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracegen_datasets_generated_total",
		Help: "Total number of datasets generated, labelled by window mode.",
	}, []string{"mode"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracegen_generation_duration_ms",
		Help:    "Wall-clock dataset generation latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	EntitiesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracegen_entities_generated_total",
		Help: "Total number of records emitted, labelled by collection.",
	}, []string{"kind"})

	LanesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracegen_lanes_skipped_total",
		Help: "Total number of lanes skipped for missing node roles, labelled by lane.",
	}, []string{"lane"})

	JobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracegen_jobs_enqueued_total",
		Help: "Total number of generation jobs placed on the queue.",
	})

	JobsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracegen_jobs_dropped_total",
		Help: "Total number of generation jobs rejected due to a full queue.",
	})

	DatasetsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracegen_datasets_persisted_total",
		Help: "Total number of datasets written to storage, labelled by status.",
	}, []string{"status"})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tracegen_queue_utilization_ratio",
		Help: "Current generation job queue utilization (0–1).",
	})
)
