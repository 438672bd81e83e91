// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector groups the counters and histograms recorded by the API and the
// worker. A nil *Collector records nothing.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	rendersTotal  *prometheus.CounterVec
	uploadsTotal  *prometheus.CounterVec
	uploadBytes   prometheus.Histogram
	tasksTotal    *prometheus.CounterVec
	settingsCache *prometheus.CounterVec
}

func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		rendersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "viewer_renders_total",
				Help:      "Viewer renders by surface and outcome",
			},
			[]string{"surface", "outcome"},
		),
		uploadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Uploads by detected type and outcome",
			},
			[]string{"type", "outcome"},
		),
		uploadBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_size_bytes",
				Help:      "Size of accepted uploads in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
			},
		),
		tasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_tasks_total",
				Help:      "Queue tasks handled by the worker",
			},
			[]string{"type", "outcome"},
		),
		settingsCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "settings_cache_lookups_total",
				Help:      "Viewer defaults cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRender counts one viewer render. outcome is "ok" or the error class.
func (c *Collector) RecordRender(surface, outcome string) {
	if c == nil {
		return
	}
	c.rendersTotal.WithLabelValues(surface, outcome).Inc()
}

func (c *Collector) RecordUpload(mediaType, outcome string, size int64) {
	if c == nil {
		return
	}
	c.uploadsTotal.WithLabelValues(mediaType, outcome).Inc()
	if outcome == "ok" {
		c.uploadBytes.Observe(float64(size))
	}
}

func (c *Collector) RecordTask(taskType, outcome string) {
	if c == nil {
		return
	}
	c.tasksTotal.WithLabelValues(taskType, outcome).Inc()
}

func (c *Collector) RecordSettingsCache(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.settingsCache.WithLabelValues(result).Inc()
}
