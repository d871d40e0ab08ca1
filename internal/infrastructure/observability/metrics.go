package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for the application.
// A nil *Collector is valid and records nothing.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Remote store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Business metrics
	PostsCreated      prometheus.Counter
	PostsDeleted      prometheus.Counter
	ImageUploads      *prometheus.CounterVec
	CleanupOutcomes   *prometheus.CounterVec
	CategoryRefreshes *prometheus.CounterVec
	FeedSubscribers   prometheus.Gauge
}

// NewCollector creates a collector registered on its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of remote document and object store operations",
			},
			[]string{"store", "operation", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Remote store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"store", "operation"},
		),
		PostsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_created_total",
				Help:      "Total number of posts created",
			},
		),
		PostsDeleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "posts_deleted_total",
				Help:      "Total number of posts deleted",
			},
		),
		ImageUploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_uploads_total",
				Help:      "Total number of image uploads",
			},
			[]string{"status"},
		),
		CleanupOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "image_cleanup_outcomes_total",
				Help:      "Image cleanup outcomes after post deletion",
			},
			[]string{"outcome"},
		),
		CategoryRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "category_refreshes_total",
				Help:      "Category feed refreshes by result",
			},
			[]string{"result"},
		),
		FeedSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "category_feed_subscribers",
				Help:      "Current number of category feed subscribers",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.PostsCreated,
		c.PostsDeleted,
		c.ImageUploads,
		c.CleanupOutcomes,
		c.CategoryRefreshes,
		c.FeedSubscribers,
	)
	return c
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) RecordHTTP(method, route, status string, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) RecordStoreOperation(store, operation string, err error, d time.Duration) {
	if c == nil {
		return
	}
	c.StoreOperations.WithLabelValues(store, operation, status(err)).Inc()
	c.StoreDuration.WithLabelValues(store, operation).Observe(d.Seconds())
}

func (c *Collector) PostCreated() {
	if c == nil {
		return
	}
	c.PostsCreated.Inc()
}

func (c *Collector) PostDeleted() {
	if c == nil {
		return
	}
	c.PostsDeleted.Inc()
}

func (c *Collector) ImageUploaded(err error) {
	if c == nil {
		return
	}
	c.ImageUploads.WithLabelValues(status(err)).Inc()
}

func (c *Collector) Cleanup(outcome string) {
	if c == nil {
		return
	}
	c.CleanupOutcomes.WithLabelValues(outcome).Inc()
}

func (c *Collector) CategoryRefresh(result string) {
	if c == nil {
		return
	}
	c.CategoryRefreshes.WithLabelValues(result).Inc()
}

func (c *Collector) SetFeedSubscribers(n int) {
	if c == nil {
		return
	}
	c.FeedSubscribers.Set(float64(n))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
