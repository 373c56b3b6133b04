package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/nutriplan/planner/internal/infrastructure/config"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubModel struct {
	name string
	err  error
}

func (s stubModel) Name() string { return s.name }
func (s stubModel) Generate(ctx context.Context, req outbound.ModelRequest) (string, error) {
	return "", s.err
}
func (s stubModel) HealthCheck(ctx context.Context) error { return s.err }
func (s stubModel) Close() error { return nil }

func TestHealthChecker_CheckHealth(t *testing.T) {
	down := errors.New("connection refused")

	tests := []struct {
		name      string
		providers []outbound.TextModel
		overall   string
		healthy   []string
	}{
		{"all healthy", []outbound.TextModel{stubModel{name: "gemini"}, stubModel{name: "openai"}}, StatusHealthy, []string{"gemini", "openai"}},
		{"fallback only", []outbound.TextModel{stubModel{name: "gemini", err: down}, stubModel{name: "ollama"}}, StatusDegraded, []string{"ollama"}},
		{"none", []outbound.TextModel{stubModel{name: "gemini", err: down}}, StatusCritical, nil},
		{"empty chain", nil, StatusCritical, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker(tt.providers, zap.NewNop())

			status := h.CheckHealth(context.Background())

			assert.Equal(t, tt.overall, status.Overall)
			assert.Equal(t, tt.healthy, h.GetHealthyProviders(context.Background()))
			assert.Equal(t, tt.overall != StatusCritical, h.IsHealthy(context.Background()))
		})
	}
}

func TestBuildProviders(t *testing.T) {
	providers, err := BuildProviders(context.Background(), config.AIConfig{
		Providers:   []string{"gemini", "openai", "ollama"},
		Model:       "gemini-2.5-flash",
		OpenAIModel: "gpt-4o-mini",
		OllamaModel: "llama3.2:3b",
	}, zap.NewNop())

	require.NoError(t, err)
	require.Len(t, providers, 3)
	assert.Equal(t, "gemini", providers[0].Name())
	assert.Equal(t, "openai", providers[1].Name())
	assert.Equal(t, "ollama", providers[2].Name())
}

func TestBuildProviders_Unknown(t *testing.T) {
	_, err := BuildProviders(context.Background(), config.AIConfig{Providers: []string{"bard"}}, zap.NewNop())

	assert.Error(t, err)
}
