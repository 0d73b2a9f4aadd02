package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rain_alert"

// Metrics holds the Prometheus counters, histograms, and gauges for one
// invocation. They live on a private registry because the process exits
// after a single run and exports through a textfile or Pushgateway.
type Metrics struct {
	Registry *prometheus.Registry

	Invocations *prometheus.CounterVec // labels: outcome={no_rain,triggered,already_alerting,error}
	Errors      *prometheus.CounterVec // labels: stage={settings,fetch,state,playback}

	// Forecast metrics.
	FetchDuration   prometheus.Histogram
	ForecastEntries prometheus.Gauge
	TargetRainfall  prometheus.Gauge

	// Alert metrics.
	AlertActive     prometheus.Gauge
	Playbacks       prometheus.Counter
	ArchiveErrors   prometheus.Counter
	EventsPublished *prometheus.CounterVec // labels: result={success,error}
	LastRun         prometheus.Gauge
}

// NewMetrics creates all metrics and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Completed invocations by alert outcome.",
		}, []string{"outcome"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed invocations by the stage that failed.",
		}, []string{"stage"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_fetch_duration_seconds",
			Help:      "YOLP weather API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ForecastEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "forecast_entries",
			Help:      "Number of samples in the last fetched forecast.",
		}),
		TargetRainfall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_rainfall_mm_per_hour",
			Help:      "Rainfall of the sample examined at the target time, -1 when the forecast ended first.",
		}),
		AlertActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alert_active",
			Help:      "1 while the alert marker is present, 0 otherwise.",
		}),
		Playbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playbacks_total",
			Help:      "Total alert sounds played.",
		}),
		ArchiveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_errors_total",
			Help:      "Forecast responses that could not be archived.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Alert events sent to Kafka by result.",
		}, []string{"result"}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed evaluation.",
		}),
	}

	m.Registry.MustRegister(
		m.Invocations,
		m.Errors,
		m.FetchDuration,
		m.ForecastEntries,
		m.TargetRainfall,
		m.AlertActive,
		m.Playbacks,
		m.ArchiveErrors,
		m.EventsPublished,
		m.LastRun,
	)

	return m
}
