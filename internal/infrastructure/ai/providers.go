// Package ai assembles the configured text model providers and checks
// their health
package ai

import (
	"context"
	"fmt"

	"github.com/nutriplan/planner/internal/infrastructure/ai/gemini"
	"github.com/nutriplan/planner/internal/infrastructure/ai/ollama"
	"github.com/nutriplan/planner/internal/infrastructure/ai/openai"
	"github.com/nutriplan/planner/internal/infrastructure/config"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"go.uber.org/zap"
)

// BuildProviders creates one client per entry of cfg.Providers, in order.
// The first is primary and receives cfg.Model; the rest keep their own
// configured models.
func BuildProviders(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) ([]outbound.TextModel, error) {
	providers := make([]outbound.TextModel, 0, len(cfg.Providers))

	for _, name := range cfg.Providers {
		switch name {
		case "gemini":
			client, err := gemini.NewClient(ctx, gemini.Config{
				APIKey: cfg.GeminiAPIKey,
				Model:  cfg.Model,
			}, logger)
			if err != nil {
				closeAll(providers)
				return nil, err
			}
			providers = append(providers, client)
		case "openai":
			providers = append(providers, openai.NewClient(openai.Config{
				APIKey:  cfg.OpenAIAPIKey,
				BaseURL: cfg.OpenAIBaseURL,
				Model:   cfg.OpenAIModel,
				Timeout: cfg.Timeout,
			}, logger))
		case "ollama":
			providers = append(providers, ollama.NewClient(ollama.Config{
				BaseURL: cfg.OllamaBaseURL,
				Model:   cfg.OllamaModel,
				Timeout: cfg.Timeout,
			}, logger))
		default:
			closeAll(providers)
			return nil, fmt.Errorf("unknown model provider %q", name)
		}
	}

	return providers, nil
}

func closeAll(providers []outbound.TextModel) {
	for _, p := range providers {
		_ = p.Close()
	}
}
