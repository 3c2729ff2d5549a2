package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "iiot_"

	resultSuccess  = "success"
	resultError    = "error"
	resultNotFound = "not_found"
)

var (
	registerOnce sync.Once

	fleetQueries     *prometheus.CounterVec
	fleetLatency     *prometheus.HistogramVec
	detailQueries    *prometheus.CounterVec
	detailLatency    *prometheus.HistogramVec
	errorFeedQueries *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	commandRequests prometheus.Counter
	commandResults  *prometheus.CounterVec
	twinUpdates     *prometheus.CounterVec

	tableRenders *prometheus.CounterVec
	pollCycles   *prometheus.CounterVec

	sessionLogins *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		fleetQueries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fleet_queries_total",
				Help: "Total fleet snapshot queries by result",
			},
			[]string{"result"},
		)
		fleetLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "fleet_query_latency_seconds",
				Help:    "Fleet snapshot query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		detailQueries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "device_detail_queries_total",
				Help: "Total device detail queries by result",
			},
			[]string{"result"},
		)
		detailLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "device_detail_latency_seconds",
				Help:    "Device detail query latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)
		errorFeedQueries = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "error_feed_queries_total",
				Help: "Total error feed queries by result",
			},
			[]string{"result"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total export operations by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Export build latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		commandRequests = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "command_requests_total",
				Help: "Total issued device commands",
			},
		)
		commandResults = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "command_results_total",
				Help: "Total command dispatch results by status",
			},
			[]string{"status"},
		)
		twinUpdates = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "twin_updates_total",
				Help: "Total device twin desired-property updates by result",
			},
			[]string{"result"},
		)

		tableRenders = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "table_renders_total",
				Help: "Total table view renders by view",
			},
			[]string{"view"},
		)
		pollCycles = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "fleet_poll_cycles_total",
				Help: "Total fleet poll cycles by result",
			},
			[]string{"result"},
		)

		sessionLogins = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "session_logins_total",
				Help: "Total login attempts by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			fleetQueries,
			fleetLatency,
			detailQueries,
			detailLatency,
			errorFeedQueries,
			exportTotal,
			exportLatency,
			commandRequests,
			commandResults,
			twinUpdates,
			tableRenders,
			pollCycles,
			sessionLogins,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveFleetQuery records fleet query duration and result.
func ObserveFleetQuery(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if fleetQueries != nil {
		fleetQueries.WithLabelValues(result).Inc()
	}
	if fleetLatency != nil {
		fleetLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// ObserveDeviceDetail records detail query duration and result.
func ObserveDeviceDetail(result string, duration time.Duration) {
	if result == "" {
		result = resultSuccess
	}
	if detailQueries != nil {
		detailQueries.WithLabelValues(result).Inc()
	}
	if detailLatency != nil {
		detailLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncErrorFeedQuery increments the error feed counter.
func IncErrorFeedQuery(result string) {
	if result == "" {
		result = resultSuccess
	}
	if errorFeedQueries != nil {
		errorFeedQueries.WithLabelValues(result).Inc()
	}
}

// ObserveExport records export build latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncCommandIssued increments the issued command counter.
func IncCommandIssued() {
	if commandRequests != nil {
		commandRequests.Inc()
	}
}

// IncCommandResult increments the command result counter.
func IncCommandResult(status string) {
	if status == "" {
		status = "unknown"
	}
	if commandResults != nil {
		commandResults.WithLabelValues(status).Inc()
	}
}

// IncTwinUpdate increments the twin update counter.
func IncTwinUpdate(result string) {
	if result == "" {
		result = resultSuccess
	}
	if twinUpdates != nil {
		twinUpdates.WithLabelValues(result).Inc()
	}
}

// IncTableRender increments the table render counter for a view.
func IncTableRender(view string) {
	if view == "" {
		view = "unknown"
	}
	if tableRenders != nil {
		tableRenders.WithLabelValues(view).Inc()
	}
}

// IncPollCycle increments the fleet poll counter.
func IncPollCycle(result string) {
	if result == "" {
		result = resultSuccess
	}
	if pollCycles != nil {
		pollCycles.WithLabelValues(result).Inc()
	}
}

// IncSessionLogin increments the login counter.
func IncSessionLogin(result string) {
	if result == "" {
		result = resultSuccess
	}
	if sessionLogins != nil {
		sessionLogins.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess  = resultSuccess
	ResultError    = resultError
	ResultNotFound = resultNotFound
)
