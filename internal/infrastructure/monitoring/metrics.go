// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
// for the generation and moderation pipeline
package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"
)

const namespace = "nutriplan"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Model metrics
	modelCallsTotal   *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec

	// Generation metrics
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	draftsCreatedTotal prometheus.Counter

	// Moderation metrics
	moderationActionsTotal *prometheus.CounterVec
	cascadePromotionsTotal prometheus.Counter
}

var _ outbound.PipelineMetrics = (*MetricsCollector)(nil)

// NewMetricsCollector registers every pipeline metric on its own registry
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &MetricsCollector{
		logger:   logger.Named("metrics"),
		registry: registry,

		modelCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of model invocations",
			},
			[]string{"provider", "outcome"},
		),
		modelCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Model invocation duration in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 90},
			},
			[]string{"provider"},
		),

		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plan_generations_total",
				Help:      "Total number of plan generation runs",
			},
			[]string{"outcome"},
		),
		generationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plan_generation_duration_seconds",
				Help:      "End-to-end plan generation duration in seconds",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		draftsCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recipe_drafts_created_total",
				Help:      "Total number of draft recipes created from model output",
			},
		),

		moderationActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "moderation_actions_total",
				Help:      "Total number of moderation actions",
			},
			[]string{"action", "outcome"},
		),
		cascadePromotionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cascade_promotions_total",
				Help:      "Total number of recipes approved through plan approval",
			},
		),
	}
}

// Registry exposes the collector's registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveModelCall records one provider attempt
func (m *MetricsCollector) ObserveModelCall(provider, outcome string, elapsed time.Duration) {
	m.modelCallsTotal.WithLabelValues(provider, outcome).Inc()
	m.modelCallDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveGeneration records one generate run
func (m *MetricsCollector) ObserveGeneration(outcome string, elapsed time.Duration) {
	m.generationsTotal.WithLabelValues(outcome).Inc()
	m.generationDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// AddDraftsCreated counts new draft recipes
func (m *MetricsCollector) AddDraftsCreated(n int) {
	if n > 0 {
		m.draftsCreatedTotal.Add(float64(n))
	}
}

// ObserveModeration records one moderation action
func (m *MetricsCollector) ObserveModeration(action, outcome string) {
	m.moderationActionsTotal.WithLabelValues(action, outcome).Inc()
}

// AddCascadePromotions counts recipes promoted by a plan approval
func (m *MetricsCollector) AddCascadePromotions(n int64) {
	if n > 0 {
		m.cascadePromotionsTotal.Add(float64(n))
	}
}

// Push sends the collected metrics to a Prometheus Pushgateway. Command
// runs are too short-lived to be scraped.
func (m *MetricsCollector) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}

	pusher := push.New(url, job).Gatherer(m.registry)
	if err := pusher.AddContext(ctx); err != nil {
		m.logger.Warn("Failed to push metrics", zap.String("url", url), zap.Error(err))
		return fmt.Errorf("push metrics: %w", err)
	}

	m.logger.Debug("Metrics pushed", zap.String("url", url), zap.String("job", job))
	return nil
}
