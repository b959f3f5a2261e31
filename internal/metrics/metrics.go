// Package metrics exposes Prometheus collectors for the dashboard.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bikeshare"

var (
	datasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dataset",
		Name:      "records",
		Help:      "Number of daily records in the active dataset.",
	})
	datasetLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "dataset",
		Name:      "loaded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful dataset load.",
	})
	datasetReloads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dataset",
		Name:      "reloads_total",
		Help:      "Dataset reload attempts grouped by result.",
	}, []string{"result"})

	chartRender = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "chart",
		Name:      "render_seconds",
		Help:      "Time spent rendering a chart to SVG.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"chart"})
	chartCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "chart",
		Name:      "cache_total",
		Help:      "Chart cache lookups grouped by result.",
	}, []string{"result"})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests grouped by route and status code.",
	}, []string{"path", "code"})
	rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
	suspicious = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "suspicious_requests_total",
		Help:      "Requests flagged by the suspicious request detector.",
	})
)

func init() {
	prometheus.MustRegister(
		datasetRecords, datasetLoaded, datasetReloads,
		chartRender, chartCache,
		httpRequests, rateLimited, suspicious,
	)
}

// RecordDatasetLoaded updates the dataset gauges after a successful load.
func RecordDatasetLoaded(records int, at time.Time) {
	datasetRecords.Set(float64(records))
	if !at.IsZero() {
		datasetLoaded.Set(float64(at.Unix()))
	}
}

// RecordReload counts a watcher-driven reload.
func RecordReload(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	datasetReloads.WithLabelValues(result).Inc()
}

// ObserveChartRender records how long a chart took to render.
func ObserveChartRender(chart string, d time.Duration) {
	chartRender.WithLabelValues(chart).Observe(d.Seconds())
}

// RecordChartCache counts a chart cache hit or miss.
func RecordChartCache(hit bool) {
	if hit {
		chartCache.WithLabelValues("hit").Inc()
		return
	}
	chartCache.WithLabelValues("miss").Inc()
}

// RecordHTTPRequest counts a completed request. path should be a route
// pattern, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(path string, code int) {
	httpRequests.WithLabelValues(path, strconv.Itoa(code)).Inc()
}

// RecordRateLimited counts a rejected request.
func RecordRateLimited() { rateLimited.Inc() }

// RecordSuspicious counts a flagged request.
func RecordSuspicious() { suspicious.Inc() }
