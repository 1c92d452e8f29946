// Package metrics provides Prometheus metrics for the pugbot service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector exported by the bot.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueOperations  *prometheus.CounterVec

	// Commands
	commands        *prometheus.CounterVec
	commandLatency  *prometheus.HistogramVec
	cooldownDropped prometheus.Counter

	// Ratings
	ratingLookups      *prometheus.CounterVec
	ratingFetchLatency prometheus.Histogram
	ratingFetchErrors  *prometheus.CounterVec
	ratingCacheSize    prometheus.Gauge

	// Renderer pool
	rendererInUse          prometheus.Gauge
	rendererDiscarded      prometheus.Counter
	rendererAcquireLatency prometheus.Histogram

	// Matches
	matchesStarted       prometheus.Counter
	matchScoreDifference prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton used by package-level recorders

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry served on /metrics

func init() { //nolint:gochecknoinits // recorders must be usable before main wires anything
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pugbot",
		subsystem:        "matchmaking",
		histogramBuckets: []float64{5, 25, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Players currently waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of queue slots"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueOperations = auto.NewCounterVec(
		m.counterOpts("queue_operations_total", "Queue operations by kind and outcome"),
		[]string{"operation", "outcome"},
	)

	m.commands = auto.NewCounterVec(
		m.counterOpts("commands_total", "Chat commands handled by command and outcome"),
		[]string{"command", "outcome"},
	)
	m.commandLatency = auto.NewHistogramVec(
		m.histogramOpts("command_latency_milliseconds", "Time spent handling a chat command", m.histogramBuckets),
		[]string{"command"},
	)
	m.cooldownDropped = auto.NewCounter(m.counterOpts("command_cooldown_dropped_total", "Repeated commands dropped by the cooldown"))

	m.ratingLookups = auto.NewCounterVec(
		m.counterOpts("rating_lookups_total", "Rating resolutions by outcome (cache_hit, resolved, default)"),
		[]string{"outcome"},
	)
	m.ratingFetchLatency = auto.NewHistogram(m.histogramOpts(
		"rating_fetch_latency_milliseconds", "Latency of a single stats page fetch", m.histogramBuckets))
	m.ratingFetchErrors = auto.NewCounterVec(
		m.counterOpts("rating_fetch_errors_total", "Stats page failures by kind"),
		[]string{"kind"},
	)
	m.ratingCacheSize = auto.NewGauge(m.gaugeOpts("rating_cache_entries", "Ratings held in the process cache"))

	m.rendererInUse = auto.NewGauge(m.gaugeOpts("renderer_sessions_in_use", "Renderer sessions currently checked out"))
	m.rendererDiscarded = auto.NewCounter(m.counterOpts("renderer_sessions_discarded_total", "Renderer sessions dropped after an error"))
	m.rendererAcquireLatency = auto.NewHistogram(m.histogramOpts(
		"renderer_acquire_latency_milliseconds", "Time waiting for a renderer session", m.histogramBuckets))

	m.matchesStarted = auto.NewCounter(m.counterOpts("matches_started_total", "Matches started"))
	m.matchScoreDifference = auto.NewHistogram(m.histogramOpts(
		"match_score_difference", "Absolute hybrid score difference between the two teams",
		[]float64{0.25, 0.5, 1, 1.5, 2, 3, 4, 6, 8}))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "Average GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// Queue metrics.

// UpdateQueueSize sets the queue gauges from the current size and capacity.
func UpdateQueueSize(size, capacity int) {
	globalManager.queueSize.Set(float64(size))
	globalManager.queueCapacity.Set(float64(capacity))
	if capacity > 0 {
		globalManager.queueUtilization.Set(float64(size) / float64(capacity))
	}
}

// RecordQueueOperation counts a queue mutation attempt.
func RecordQueueOperation(operation, outcome string) {
	globalManager.queueOperations.WithLabelValues(operation, outcome).Inc()
}

// Command metrics.

// RecordCommand counts a handled command.
func RecordCommand(command, outcome string) {
	globalManager.commands.WithLabelValues(command, outcome).Inc()
}

// RecordCommandLatency records command handling time in milliseconds.
func RecordCommandLatency(command string, latencyMs float64) {
	globalManager.commandLatency.WithLabelValues(command).Observe(latencyMs)
}

// RecordCooldownDrop counts a command suppressed by the cooldown.
func RecordCooldownDrop() {
	globalManager.cooldownDropped.Inc()
}

// Rating metrics.

// RecordRatingLookup counts a resolution by outcome.
func RecordRatingLookup(outcome string) {
	globalManager.ratingLookups.WithLabelValues(outcome).Inc()
}

// RecordRatingFetchLatency records one page fetch in milliseconds.
func RecordRatingFetchLatency(latencyMs float64) {
	globalManager.ratingFetchLatency.Observe(latencyMs)
}

// RecordRatingFetchError counts a failed fetch or parse.
func RecordRatingFetchError(kind string) {
	globalManager.ratingFetchErrors.WithLabelValues(kind).Inc()
}

// UpdateRatingCacheSize sets the cache size gauge.
func UpdateRatingCacheSize(count int) {
	globalManager.ratingCacheSize.Set(float64(count))
}

// Renderer metrics.

// UpdateRendererInUse sets the number of checked-out sessions.
func UpdateRendererInUse(count int) {
	globalManager.rendererInUse.Set(float64(count))
}

// RecordRendererDiscard counts a session dropped from the pool.
func RecordRendererDiscard() {
	globalManager.rendererDiscarded.Inc()
}

// RecordRendererAcquireLatency records time spent waiting for a session.
func RecordRendererAcquireLatency(latencyMs float64) {
	globalManager.rendererAcquireLatency.Observe(latencyMs)
}

// Match metrics.

// RecordMatchStarted counts a match start and its team score difference.
func RecordMatchStarted(difference float64) {
	globalManager.matchesStarted.Inc()
	globalManager.matchScoreDifference.Observe(difference)
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
