// Package observability holds the Prometheus collectors and OpenTelemetry
// setup shared by the feed service.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Cache request results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
	CacheStale = "stale"
)

// Fanout job results.
const (
	FanoutOK       = "ok"
	FanoutFailed   = "failed"
	FanoutTimeout  = "timeout"
	FanoutRejected = "rejected"
)

var (
	// CacheRequests counts recency cache lookups by cache name and result.
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cache_requests_total",
			Help: "Recency cache lookups by cache and result (hit|miss|error|stale).",
		},
		[]string{"cache", "result"},
	)

	// StoreFallbacks counts pages the cache could not prove complete and that
	// were re-run against the timeline store.
	StoreFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_store_fallbacks_total",
			Help: "Pages served from the store after the cached list was insufficient.",
		},
		[]string{"feed"},
	)

	// FanoutJobs counts finished fanout jobs by dispatch backend and result.
	FanoutJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_jobs_total",
			Help: "Fanout jobs by backend and result.",
		},
		[]string{"backend", "result"},
	)

	// FanoutEntries counts newsfeed rows written by fanout.
	FanoutEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_entries_total",
			Help: "Newsfeed entries inserted by fanout jobs.",
		},
	)

	// FanoutDuration observes wall-clock time per fanout job.
	FanoutDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fanout_job_duration_seconds",
			Help:    "Duration of fanout jobs in seconds.",
			Buckets: []float64{.005, .01, .05, .1, .5, 1, 5, 30, 120, 600, 3600},
		},
	)

	// HTTPRequests counts requests by method, route template and status code.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration observes request latency by method and route template.
	// Status is left out to keep the histogram small.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPInflight gauges requests currently being served.
	HTTPInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// HTTPResponseSize observes response sizes; feed pages are the largest
	// payloads.
	HTTPResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8), // 256B..4MiB
		},
		[]string{"method", "path"},
	)

	// FanoutQueueDepth gauges jobs waiting in the in-process queue.
	FanoutQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanout_queue_depth",
			Help: "Fanout jobs buffered in the in-process queue.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		CacheRequests, StoreFallbacks,
		FanoutJobs, FanoutEntries, FanoutDuration, FanoutQueueDepth,
		HTTPRequests, HTTPDuration, HTTPInflight, HTTPResponseSize,
	)
}
