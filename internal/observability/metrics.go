package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "river_flow"

// Metrics holds the Prometheus counters, histograms, and gauges for report runs.
type Metrics struct {
	// Provider metrics.
	ProviderRequests *prometheus.CounterVec   // labels: provider={cehq,vigilance}, outcome={success,error}
	ProviderDuration *prometheus.HistogramVec // labels: provider
	ForecastMisses   *prometheus.CounterVec   // labels: provider, lead={24h,48h,72h}

	// Run metrics.
	RowsBuilt     prometheus.Counter
	AlertsFlagged *prometheus.CounterVec // labels: reason={missing,below_min,above_max}
	RunDuration   prometheus.Histogram
	Runs          *prometheus.CounterVec // labels: outcome={success,error}
	LastSuccess   prometheus.Gauge
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ProviderRequests,
		m.ProviderDuration,
		m.ForecastMisses,
		m.RowsBuilt,
		m.AlertsFlagged,
		m.RunDuration,
		m.Runs,
		m.LastSuccess,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Provider station fetches by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Provider station fetch duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		ForecastMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_misses_total",
			Help:      "Lead times with no matching forecast sample, by provider.",
		}, []string{"provider", "lead"}),
		RowsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_built_total",
			Help:      "Total report rows built.",
		}),
		AlertsFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_flagged_total",
			Help:      "Report cells flagged for highlighting, by reason.",
		}, []string{"reason"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete catalog-to-publish run.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Report runs by outcome.",
		}, []string{"outcome"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that published a report.",
		}),
	}
}
