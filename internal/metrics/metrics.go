// Package metrics provides Prometheus metrics collection for the hub daemon.
package metrics

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hearthkeep/hub/internal/hubconfig"
)

// Metrics holds all Prometheus collectors exposed by hubd.
type Metrics struct {
	// HTTP metrics (ops mux)
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Error metrics
	ErrorsTotal *prometheus.CounterVec

	// Periodic Monitor Framework
	MonitorCyclesTotal   *prometheus.CounterVec
	MonitorCycleDuration *prometheus.HistogramVec
	MonitorHealthState   *prometheus.GaugeVec
	ApiSourceErrorRate   *prometheus.GaugeVec

	// Sensor Response Bus
	SensorUpdatesTotal *prometheus.CounterVec
	SensorOverridesSet *prometheus.CounterVec

	// Sync Engine
	SyncPassesTotal  *prometheus.CounterVec
	SyncEntitiesDiff *prometheus.CounterVec

	// Interval Aggregation Engine
	AggregationIntervalsClosed *prometheus.CounterVec
	AggregationSourceStaleness *prometheus.GaugeVec

	// Database metrics
	DatabaseQueriesTotal    *prometheus.CounterVec
	DatabaseQueryDuration   *prometheus.HistogramVec
	DatabaseConnectionsOpen prometheus.Gauge

	// Service health
	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec
}

// New creates a Metrics instance registered against the default registerer.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a Metrics instance registered against registerer.
// Passing a nil registerer skips registration, useful in tests that
// construct multiple Metrics instances in one process.
func NewWithRegistry(serviceName string, registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_http_requests_total",
				Help: "Total number of ops-surface HTTP requests",
			},
			[]string{"service", "method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_http_request_duration_seconds",
				Help:    "Ops-surface HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"service", "method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hub_http_requests_in_flight",
				Help: "Current number of ops-surface HTTP requests being processed",
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_errors_total",
				Help: "Total number of hub errors by code",
			},
			[]string{"service", "code", "operation"},
		),

		MonitorCyclesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_monitor_cycles_total",
				Help: "Total number of periodic monitor do_work cycles",
			},
			[]string{"monitor_id", "outcome"},
		),
		MonitorCycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_monitor_cycle_duration_seconds",
				Help:    "Duration of a monitor's do_work cycle",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
			},
			[]string{"monitor_id"},
		),
		MonitorHealthState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hub_monitor_health_state",
				Help: "Monitor health classification: 0=unknown 1=healthy 2=warning 3=error 4=disabled",
			},
			[]string{"monitor_id"},
		),
		ApiSourceErrorRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hub_api_source_error_rate",
				Help: "Exponentially weighted moving average of an API source's error rate",
			},
			[]string{"monitor_id", "source_id"},
		),

		SensorUpdatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_sensor_updates_total",
				Help: "Total number of sensor response updates accepted by the bus",
			},
			[]string{"integration_id", "outcome"},
		),
		SensorOverridesSet: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_sensor_overrides_total",
				Help: "Total number of controller overrides installed on the sensor bus",
			},
			[]string{"integration_id"},
		),

		SyncPassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_sync_passes_total",
				Help: "Total number of sync engine passes by outcome",
			},
			[]string{"integration_id", "outcome"},
		),
		SyncEntitiesDiff: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_sync_entities_total",
				Help: "Total entities created, updated, or removed by sync passes",
			},
			[]string{"integration_id", "action"},
		),

		AggregationIntervalsClosed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_aggregation_intervals_closed_total",
				Help: "Total number of aggregation intervals closed and persisted",
			},
			[]string{"engine", "granularity"},
		),
		AggregationSourceStaleness: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hub_aggregation_source_staleness_seconds",
				Help: "Age of the most recent data point accepted from a weather data source",
			},
			[]string{"source_id"},
		),

		DatabaseQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hub_database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"service", "operation", "status"},
		),
		DatabaseQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hub_database_query_duration_seconds",
				Help:    "Database query duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"service", "operation"},
		),
		DatabaseConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hub_database_connections_open",
				Help: "Current number of open database connections",
			},
		),

		ServiceUptime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "hub_service_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
		ServiceInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hub_service_info",
				Help: "Service build information",
			},
			[]string{"service", "version", "environment"},
		),
	}

	if registerer != nil {
		registerer.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.RequestsInFlight,
			m.ErrorsTotal,
			m.MonitorCyclesTotal,
			m.MonitorCycleDuration,
			m.MonitorHealthState,
			m.ApiSourceErrorRate,
			m.SensorUpdatesTotal,
			m.SensorOverridesSet,
			m.SyncPassesTotal,
			m.SyncEntitiesDiff,
			m.AggregationIntervalsClosed,
			m.AggregationSourceStaleness,
			m.DatabaseQueriesTotal,
			m.DatabaseQueryDuration,
			m.DatabaseConnectionsOpen,
			m.ServiceUptime,
			m.ServiceInfo,
		)
	}

	m.ServiceInfo.WithLabelValues(serviceName, "1.0.0", getEnvironment()).Set(1)

	return m
}

// RecordHTTPRequest records an ops-surface HTTP request.
func (m *Metrics) RecordHTTPRequest(service, method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(service, method, path, status).Inc()
	m.RequestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

// RecordError records a hub error by code.
func (m *Metrics) RecordError(service, code, operation string) {
	m.ErrorsTotal.WithLabelValues(service, code, operation).Inc()
}

// RecordMonitorCycle records one do_work cycle's outcome and duration.
func (m *Metrics) RecordMonitorCycle(monitorID, outcome string, duration time.Duration) {
	m.MonitorCyclesTotal.WithLabelValues(monitorID, outcome).Inc()
	m.MonitorCycleDuration.WithLabelValues(monitorID).Observe(duration.Seconds())
}

// SetMonitorHealthState publishes a monitor's current health classification
// as an integer gauge (0=unknown 1=healthy 2=warning 3=error 4=disabled).
func (m *Metrics) SetMonitorHealthState(monitorID string, state int) {
	m.MonitorHealthState.WithLabelValues(monitorID).Set(float64(state))
}

// SetApiSourceErrorRate publishes an API source's EWMA error rate.
func (m *Metrics) SetApiSourceErrorRate(monitorID, sourceID string, rate float64) {
	m.ApiSourceErrorRate.WithLabelValues(monitorID, sourceID).Set(rate)
}

// RecordSensorUpdate records a sensor bus update outcome ("accepted",
// "duplicate", "rejected").
func (m *Metrics) RecordSensorUpdate(integrationID, outcome string) {
	m.SensorUpdatesTotal.WithLabelValues(integrationID, outcome).Inc()
}

// RecordSensorOverride records an override installed via controller dispatch.
func (m *Metrics) RecordSensorOverride(integrationID string) {
	m.SensorOverridesSet.WithLabelValues(integrationID).Inc()
}

// RecordSyncPass records a sync engine pass outcome ("ok", "partial", "failed").
func (m *Metrics) RecordSyncPass(integrationID, outcome string) {
	m.SyncPassesTotal.WithLabelValues(integrationID, outcome).Inc()
}

// RecordSyncDiff records per-entity sync actions ("created", "updated", "removed").
func (m *Metrics) RecordSyncDiff(integrationID, action string, count int) {
	m.SyncEntitiesDiff.WithLabelValues(integrationID, action).Add(float64(count))
}

// RecordAggregationIntervalClosed records a closed aggregation interval.
func (m *Metrics) RecordAggregationIntervalClosed(engine, granularity string) {
	m.AggregationIntervalsClosed.WithLabelValues(engine, granularity).Inc()
}

// SetAggregationSourceStaleness publishes a weather source's data staleness.
func (m *Metrics) SetAggregationSourceStaleness(sourceID string, age time.Duration) {
	m.AggregationSourceStaleness.WithLabelValues(sourceID).Set(age.Seconds())
}

// RecordDatabaseQuery records a database query outcome and duration.
func (m *Metrics) RecordDatabaseQuery(service, operation, status string, duration time.Duration) {
	m.DatabaseQueriesTotal.WithLabelValues(service, operation, status).Inc()
	m.DatabaseQueryDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// SetDatabaseConnections sets the number of open database connections.
func (m *Metrics) SetDatabaseConnections(count int) {
	m.DatabaseConnectionsOpen.Set(float64(count))
}

// UpdateUptime updates the service uptime gauge.
func (m *Metrics) UpdateUptime(startTime time.Time) {
	m.ServiceUptime.Set(time.Since(startTime).Seconds())
}

func (m *Metrics) IncrementInFlight() { m.RequestsInFlight.Inc() }
func (m *Metrics) DecrementInFlight() { m.RequestsInFlight.Dec() }

func getEnvironment() string {
	return string(hubconfig.Env())
}

// Enabled returns whether Prometheus metrics should be exposed.
//
// Defaults:
//   - production: disabled unless explicitly enabled via METRICS_ENABLED
//   - non-production: enabled unless explicitly disabled via METRICS_ENABLED
func Enabled() bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("METRICS_ENABLED")))
	if raw == "" {
		return !hubconfig.IsProduction()
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

var (
	globalMetrics *Metrics
	globalMu      sync.Mutex
)

// Init initializes the global metrics instance.
func Init(serviceName string) *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New(serviceName)
	}
	return globalMetrics
}

// Global returns the global metrics instance.
func Global() *Metrics {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalMetrics == nil {
		globalMetrics = New("unknown")
	}
	return globalMetrics
}
