package telemetry

// SLI metric names used for instrumentation.
const (
	// Latency
	MetricAPILatencyP50 = "api.latency.p50"
	MetricAPILatencyP95 = "api.latency.p95"
	MetricAPILatencyP99 = "api.latency.p99"

	// Throughput
	MetricRequestsPerSec = "api.requests_per_second"

	// Pipeline
	MetricRunDuration     = "pipeline.run_duration_seconds"
	MetricStageDuration   = "pipeline.stage_duration_seconds"
	MetricNoDataFraction  = "pipeline.nodata_fraction"
	MetricPointsExtracted = "pipeline.points_extracted"

	// Availability
	MetricUptime = "service.uptime_percentage"
)
