// Package metrics exposes Prometheus counters for the acquisition and
// playback pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DownloadsTotal counts finished archive acquisitions by outcome.
	DownloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stosufy_downloads_total",
		Help: "Number of set downloads, partitioned by outcome.",
	}, []string{"outcome"})

	// CacheHits counts asset requests served from the local cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stosufy_cache_hits_total",
		Help: "Number of asset requests answered without touching the network.",
	})

	// TranscodeDuration observes how long encoding a single audio file takes.
	TranscodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stosufy_transcode_duration_seconds",
		Help:    "Wall clock duration of a single transcode run.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
	})

	// QueueSkips counts manual queue navigation by direction.
	QueueSkips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stosufy_queue_skips_total",
		Help: "Number of manual skips, partitioned by direction.",
	}, []string{"direction"})

	// PlaybackFailures counts entries the queue gave up on.
	PlaybackFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stosufy_playback_failures_total",
		Help: "Number of queue entries that failed to resolve or play.",
	})
)
