package metrics

import "github.com/prometheus/client_golang/prometheus"

// Training Prometheus metrics.
var (
	TrainingRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "training_runs_total",
			Help:      "Total number of training runs",
		},
		[]string{"mode", "status"},
	)

	TrainingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "simdex",
			Name:      "training_duration_seconds",
			Help:      "Training run duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"mode"},
	)

	TrainingDocuments = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "simdex",
			Name:      "training_documents",
			Help:      "Documents in the last successful training run",
		},
		[]string{"mode"},
	)

	SimilarityPairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "similarity_pairs_total",
			Help:      "Total document pairs scored",
		},
		[]string{"mode"},
	)

	TokenizerCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "tokenizer_cache_total",
			Help:      "Tokenizer cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SnapshotOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "simdex",
			Name:      "snapshot_operations_total",
			Help:      "Snapshot persistence operations",
		},
		[]string{"op", "status"},
	)
)

var trainingMetricsRegistered bool

// RegisterTrainingMetrics registers Prometheus training metrics. Must be called once from main.
func RegisterTrainingMetrics() {
	if trainingMetricsRegistered {
		return
	}
	prometheus.MustRegister(TrainingRunsTotal)
	prometheus.MustRegister(TrainingDuration)
	prometheus.MustRegister(TrainingDocuments)
	prometheus.MustRegister(SimilarityPairsTotal)
	prometheus.MustRegister(TokenizerCacheTotal)
	prometheus.MustRegister(SnapshotOperationsTotal)
	trainingMetricsRegistered = true
}
