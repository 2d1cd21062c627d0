// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Orchestrator metrics
	StepsTotal         *prometheus.CounterVec
	StepSkips          *prometheus.CounterVec
	DeploymentsTotal   *prometheus.CounterVec
	DeploymentDuration *prometheus.HistogramVec
	RunTotalDeployed   prometheus.Gauge
	RunActive          prometheus.Gauge
	LogEntries         *prometheus.CounterVec

	// Token source metrics
	SourceFetches    *prometheus.CounterVec
	SourceCandidates *prometheus.HistogramVec

	// Driver metrics
	TimerTicks      *prometheus.CounterVec
	TickDuration    prometheus.Histogram
	SessionsTotal   *prometheus.CounterVec
	SessionSteps    prometheus.Histogram
	SessionDuration prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulStep       prometheus.Gauge
	LastSuccessfulDeployment prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_launchpad"
	}

	return &Metrics{
		// Orchestrator metrics
		StepsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "steps_total",
			Help:      "Total number of orchestrator steps by result",
		}, []string{"result"}),
		StepSkips: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "step_skips_total",
			Help:      "Total number of skipped steps by reason",
		}, []string{"reason"}),
		DeploymentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "deployments_total",
			Help:      "Total number of deployment attempts by target and status",
		}, []string{"launchpad", "agent", "status"}),
		DeploymentDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "deployment_duration_seconds",
			Help:      "Deployment protocol duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"launchpad"}),
		RunTotalDeployed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "run_total_deployed",
			Help:      "Deployments counted against the current run's ceiling",
		}),
		RunActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "run_active",
			Help:      "1 while an auto-launch run is active",
		}),
		LogEntries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "log_entries_total",
			Help:      "Total number of run log entries by kind",
		}, []string{"kind"}),

		// Token source metrics
		SourceFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "fetches_total",
			Help:      "Total number of provider fetches by source and status",
		}, []string{"source", "status"}),
		SourceCandidates: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "candidates_per_fetch",
			Help:      "Number of candidates returned per provider fetch",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50, 100},
		}, []string{"source"}),

		// Driver metrics
		TimerTicks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "timer_ticks_total",
			Help:      "Total number of timer ticks by status",
		}, []string{"status"}),
		TickDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "tick_duration_seconds",
			Help:      "Timer tick duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SessionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "sessions_total",
			Help:      "Total number of sessions by end reason",
		}, []string{"reason"}),
		SessionSteps: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "session_steps",
			Help:      "Steps executed per session",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 55},
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "session_duration_seconds",
			Help:      "Session wall-clock duration in seconds",
			Buckets:   []float64{1, 5, 10, 20, 30, 45, 55, 60},
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulStep: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_step_timestamp",
			Help:      "Unix timestamp of last step that completed without error",
		}),
		LastSuccessfulDeployment: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_deployment_timestamp",
			Help:      "Unix timestamp of last successful deployment",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")
