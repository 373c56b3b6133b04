package healthcheck

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthMetrics exports probe outcomes. The health-check binary pushes
// them to a Pushgateway after each run.
type HealthMetrics struct {
	registry      *prometheus.Registry
	checksTotal   *prometheus.CounterVec
	checkDuration *prometheus.HistogramVec
	healthStatus  *prometheus.GaugeVec
}

// MetricsConfig names the metric family
type MetricsConfig struct {
	Namespace string
	Subsystem string
}

// DefaultMetricsConfig uses the nutriplan_healthcheck prefix
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "nutriplan",
		Subsystem: "healthcheck",
	}
}

// NewHealthMetrics registers the metrics on a private registry
func NewHealthMetrics(config MetricsConfig) *HealthMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &HealthMetrics{
		registry: registry,
		checksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "checks_total",
				Help:      "Probe runs by outcome",
			},
			[]string{"probe", "status"},
		),
		checkDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "check_duration_seconds",
				Help:      "Probe latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 4, 7),
			},
			[]string{"probe"},
		),
		healthStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: config.Namespace,
				Subsystem: config.Subsystem,
				Name:      "status",
				Help:      "Last probe outcome: 2 healthy, 1 degraded, 0 unhealthy",
			},
			[]string{"probe"},
		),
	}
}

// Registry is the private registry holding the probe metrics
func (hm *HealthMetrics) Registry() *prometheus.Registry {
	return hm.registry
}

// Observe records every probe in r and the overall status under "overall"
func (hm *HealthMetrics) Observe(r Report) {
	for _, res := range r.Results {
		hm.record(res.Name, res.Status, res.Elapsed)
	}
	hm.record("overall", r.Status, r.Elapsed)
}

func (hm *HealthMetrics) record(name string, status Status, elapsed time.Duration) {
	hm.checksTotal.WithLabelValues(name, string(status)).Inc()
	hm.checkDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	hm.healthStatus.WithLabelValues(name).Set(statusToFloat(status))
}

// statusToFloat maps healthy, degraded and unhealthy to 2, 1 and 0
func statusToFloat(status Status) float64 {
	return float64(2 - status.ExitCode())
}
