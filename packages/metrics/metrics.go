// Package metrics
package metrics

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PagesFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imagedl_pages_fetched_total",
			Help: "Total number of pages fetched, successfully or not.",
		},
	)
	ImageOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedl_image_outcomes_total",
			Help: "Total number of image download outcomes, labeled by kind (saved/skipped/failed).",
		},
		[]string{"kind"},
	)
	ImageBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "imagedl_image_bytes_total",
			Help: "Total number of image bytes written to disk.",
		},
	)
	DownloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagedl_download_duration_seconds",
			Help:    "Duration of individual image downloads in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)
	BatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "imagedl_batch_duration_seconds",
			Help:    "Duration of whole page batches in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(PagesFetched)
	prometheus.MustRegister(ImageOutcomes)
	prometheus.MustRegister(ImageBytes)
	prometheus.MustRegister(DownloadDuration)
	prometheus.MustRegister(BatchDuration)
}

func ExposeMetrics(addr string) {
	slog.Info("Exposing Prometheus metrics", "address", addr)
	http.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, nil); err != nil {
		slog.Error("Failed to start Prometheus metrics server", "error", err)
	}
}
