package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "photosearch"

// Model server and query cache collectors.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "requests_total",
		Help:      "Embedding calls by provider, input kind and outcome.",
	}, []string{"provider", "input", "status"})

	EmbeddingRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "request_duration_seconds",
		Help:      "Latency of successful embedding calls.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider", "input"})

	// result: hit, miss, error.
	EmbeddingCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "embedding",
		Name:      "cache_total",
		Help:      "Query embedding cache lookups.",
	}, []string{"result"})

	// result: pass, face, error.
	FaceChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "faces",
		Name:      "checks_total",
		Help:      "Face exclusion decisions.",
	}, []string{"result"})
)

// ObserveEmbedding records one embedding call. input is "text" or "image".
func ObserveEmbedding(provider, input string, start time.Time, err error) {
	if err != nil {
		EmbeddingRequestsTotal.WithLabelValues(provider, input, "error").Inc()
		return
	}
	EmbeddingRequestsTotal.WithLabelValues(provider, input, "success").Inc()
	EmbeddingRequestDuration.WithLabelValues(provider, input).Observe(time.Since(start).Seconds())
}

func embeddingCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingCacheTotal,
		FaceChecksTotal,
	}
}
