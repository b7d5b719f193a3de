package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "terrasample",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Pipeline metrics
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Total pipeline runs by outcome",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "terrasample",
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Duration of each pipeline stage",
		Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
	}, []string{"stage"})

	StagePoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "pipeline",
		Name:      "stage_points_total",
		Help:      "Point features produced per pipeline stage",
	}, []string{"stage"})

	RasterSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "raster",
		Name:      "samples_total",
		Help:      "Total raster values sampled at points",
	}, []string{"role"})

	NoDataSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "raster",
		Name:      "nodata_samples_total",
		Help:      "Samples that fell outside raster coverage",
	}, []string{"role"})

	DatasetsRegistered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "workspace",
		Name:      "datasets_registered_total",
		Help:      "Total datasets registered into the workspace",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "terrasample",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)

		return err
	}
}

// Handler returns a Fiber handler serving the Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
