package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/nutriplan/planner/internal/ports/outbound"
	"go.uber.org/zap"
)

// Overall health states
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
	StatusCritical = "critical"
)

// HealthChecker checks every provider in the chain
type HealthChecker struct {
	providers []outbound.TextModel
	timeout   time.Duration
	logger    *zap.Logger
}

// NewHealthChecker creates a new provider health checker
func NewHealthChecker(providers []outbound.TextModel, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		providers: providers,
		timeout:   10 * time.Second,
		logger:    logger.Named("ai-health"),
	}
}

// AIHealthStatus represents the health status of the provider chain
type AIHealthStatus struct {
	Overall   string            `json:"overall"`
	Providers map[string]bool   `json:"providers"`
	Details   map[string]string `json:"details"`
	LastCheck time.Time         `json:"last_check"`
}

// CheckHealth probes each provider. The chain is healthy when all respond,
// degraded when some do, and critical when none do.
func (h *HealthChecker) CheckHealth(ctx context.Context) *AIHealthStatus {
	status := &AIHealthStatus{
		Providers: make(map[string]bool),
		Details:   make(map[string]string),
		LastCheck: time.Now(),
	}

	var healthyCount int
	for _, p := range h.providers {
		checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := p.HealthCheck(checkCtx)
		cancel()

		if err != nil {
			status.Providers[p.Name()] = false
			status.Details[p.Name()] = fmt.Sprintf("Unhealthy: %v", err)
			h.logger.Warn("Provider health check failed", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}

		status.Providers[p.Name()] = true
		status.Details[p.Name()] = "Healthy"
		healthyCount++
	}

	switch {
	case healthyCount == 0:
		status.Overall = StatusCritical
	case healthyCount < len(h.providers):
		status.Overall = StatusDegraded
	default:
		status.Overall = StatusHealthy
	}

	h.logger.Info("AI health check completed",
		zap.String("overall_status", status.Overall),
		zap.Int("healthy_providers", healthyCount),
		zap.Int("total_providers", len(h.providers)))

	return status
}

// IsHealthy returns true if at least one provider is available
func (h *HealthChecker) IsHealthy(ctx context.Context) bool {
	return h.CheckHealth(ctx).Overall != StatusCritical
}

// GetHealthyProviders returns the healthy providers in chain order
func (h *HealthChecker) GetHealthyProviders(ctx context.Context) []string {
	status := h.CheckHealth(ctx)

	var healthy []string
	for _, p := range h.providers {
		if status.Providers[p.Name()] {
			healthy = append(healthy, p.Name())
		}
	}
	return healthy
}
