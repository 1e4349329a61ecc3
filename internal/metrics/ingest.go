package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_items_total",
			Help:      "Ingestion items by terminal state",
		},
		[]string{"state"}, // committed / excluded / errored / commit_failed
	)

	IngestExclusionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_exclusions_total",
			Help:      "Excluded ingestion items by reason",
		},
		[]string{"reason"}, // image / face / embedding
	)

	IngestBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_batches_total",
			Help:      "Bulk commits sent to the index",
		},
	)

	IngestBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_batch_duration_seconds",
			Help:      "Bulk commit duration",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ImageDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_downloads_total",
			Help:      "Image fetches from the remote origin",
		},
		[]string{"result"}, // cached / downloaded / failed
	)

	ImageDownloadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_download_bytes_total",
			Help:      "Total bytes downloaded from the remote origin",
		},
	)
)

func ingestCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		IngestItemsTotal,
		IngestExclusionsTotal,
		IngestBatchesTotal,
		IngestBatchDuration,
		ImageDownloadsTotal,
		ImageDownloadBytes,
	}
}
