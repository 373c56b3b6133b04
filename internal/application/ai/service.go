// Package ai provides the model invocation adapter used by plan generation
package ai

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/nutriplan/planner/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Defaults applied when a call leaves a setting unset
const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultTemperature     = float32(0.2)
	DefaultMaxOutputTokens = int32(1500)
)

var tracer = otel.Tracer("github.com/nutriplan/planner/internal/application/ai")

// Config tunes one invocation. Zero values fall back to the service defaults.
type Config struct {
	Model           string
	Temperature     *float32
	MaxOutputTokens int32
}

// Defaults are the service-wide settings, swappable at runtime. A nil
// Temperature means unset, so 0 stays a valid deterministic setting.
type Defaults struct {
	Model           string
	Temperature     *float32
	MaxOutputTokens int32
}

// Options configures a Service
type Options struct {
	Defaults          Defaults
	RequestsPerMinute int
	Burst             int
}

// Service invokes an ordered chain of text models. The first provider is
// primary and receives the configured model name; the rest are fallbacks
// that run their own configured model.
type Service struct {
	providers []outbound.TextModel
	limiter   *rate.Limiter
	metrics   outbound.PipelineMetrics
	logger    *zap.Logger

	mu       sync.RWMutex
	defaults Defaults
}

// NewService creates a model invocation service. An empty provider chain is
// allowed; every call then fails with a configuration error.
func NewService(providers []outbound.TextModel, opts Options, metrics outbound.PipelineMetrics, logger *zap.Logger) *Service {
	limit := rate.Inf
	if opts.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(opts.RequestsPerMinute))
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	s := &Service{
		providers: providers,
		limiter:   rate.NewLimiter(limit, burst),
		metrics:   metrics,
		logger:    logger.Named("ai-service"),
	}
	s.UpdateDefaults(opts.Defaults)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	s.logger.Info("AI service initialized", zap.Strings("providers", names))

	return s
}

// UpdateDefaults swaps the service defaults, filling unset values
func (s *Service) UpdateDefaults(d Defaults) {
	if d.Model == "" {
		d.Model = DefaultModel
	}
	temp := DefaultTemperature
	if d.Temperature != nil {
		temp = *d.Temperature
	}
	d.Temperature = &temp
	if d.MaxOutputTokens <= 0 {
		d.MaxOutputTokens = DefaultMaxOutputTokens
	}

	s.mu.Lock()
	s.defaults = d
	s.mu.Unlock()
}

// CurrentDefaults returns the defaults in effect
func (s *Service) CurrentDefaults() Defaults {
	s.mu.RLock()
	d := s.defaults
	s.mu.RUnlock()

	temp := *d.Temperature
	d.Temperature = &temp
	return d
}

// Invoke sends prompt to the provider chain and returns the first usable
// text. Missing credentials fail at once; otherwise each provider is tried
// once and exhaustion is reported as ModelUnavailable with the last cause.
func (s *Service) Invoke(ctx context.Context, prompt string, cfg Config) (string, error) {
	if len(s.providers) == 0 {
		return "", errors.NewConfigurationError("no text model credentials are configured")
	}

	req := s.request(prompt, cfg)

	ctx, span := tracer.Start(ctx, "ai.Invoke")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.model", req.Model),
		attribute.Float64("ai.temperature", float64(req.Temperature)),
		attribute.Int("ai.max_output_tokens", int(req.MaxOutputTokens)),
		attribute.Int("ai.prompt_chars", len(prompt)),
	)

	if err := s.limiter.Wait(ctx); err != nil {
		span.SetStatus(codes.Error, "rate limited")
		return "", errors.NewRateLimitedError(err)
	}

	var (
		lastErr      error
		lastProvider string
	)
	for i, provider := range s.providers {
		attempt := req
		if i > 0 {
			attempt.Model = ""
		}

		started := time.Now()
		text, err := provider.Generate(ctx, attempt)
		elapsed := time.Since(started)

		if err == nil && strings.TrimSpace(text) == "" {
			err = outbound.ErrEmptyResponse
		}
		if err != nil {
			s.observe(provider.Name(), "failure", elapsed)
			if stderrors.Is(err, outbound.ErrMissingCredentials) {
				span.SetStatus(codes.Error, "missing credentials")
				return "", errors.NewConfigurationError(provider.Name() + ": " + err.Error())
			}

			s.logger.Warn("Model provider failed",
				zap.String("provider", provider.Name()),
				zap.Int("attempt", i+1),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			lastErr, lastProvider = err, provider.Name()

			if ctx.Err() != nil {
				break
			}
			continue
		}

		s.observe(provider.Name(), "success", elapsed)
		span.SetAttributes(attribute.String("ai.provider", provider.Name()))
		s.logger.Info("Model call succeeded",
			zap.String("provider", provider.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Int("response_chars", len(text)),
		)
		return strings.TrimSpace(text), nil
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "model unavailable")
	return "", errors.NewModelUnavailableError(lastProvider, lastErr)
}

// HealthCheck reports whether the primary provider is reachable
func (s *Service) HealthCheck(ctx context.Context) error {
	if len(s.providers) == 0 {
		return errors.NewConfigurationError("no text model credentials are configured")
	}
	return s.providers[0].HealthCheck(ctx)
}

// Close releases every provider
func (s *Service) Close() error {
	var errs []error
	for _, p := range s.providers {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (s *Service) request(prompt string, cfg Config) outbound.ModelRequest {
	d := s.CurrentDefaults()
	req := outbound.ModelRequest{
		Prompt:          prompt,
		Model:           d.Model,
		Temperature:     *d.Temperature,
		MaxOutputTokens: d.MaxOutputTokens,
		JSONOutput:      true,
	}
	if cfg.Model != "" {
		req.Model = cfg.Model
	}
	if cfg.Temperature != nil {
		req.Temperature = *cfg.Temperature
	}
	if cfg.MaxOutputTokens > 0 {
		req.MaxOutputTokens = cfg.MaxOutputTokens
	}
	return req
}

func (s *Service) observe(provider, outcome string, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveModelCall(provider, outcome, elapsed)
	}
}
