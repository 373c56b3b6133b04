// Package gemini provides the Google Gemini text model adapter
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// DefaultModel is used when neither the request nor the config names one
const DefaultModel = "gemini-2.5-flash"

// Config holds Gemini settings
type Config struct {
	APIKey string
	Model  string
}

// Client calls GenerateContent with one fixed request shape: a single text
// part, temperature, output cap and JSON response mode.
type Client struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewClient creates a Gemini client. Without an API key the client is still
// returned, and every call reports outbound.ErrMissingCredentials.
func NewClient(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	c := &Client{
		model:  cfg.Model,
		logger: logger.Named("gemini-client"),
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if cfg.APIKey == "" {
		c.logger.Warn("Gemini API key not configured")
		return c, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client

	c.logger.Info("Gemini client initialized", zap.String("model", c.model))
	return c, nil
}

// Name identifies the provider
func (c *Client) Name() string { return "gemini" }

// Generate sends the prompt and returns the concatenated text parts of the
// first candidate.
func (c *Client) Generate(ctx context.Context, req outbound.ModelRequest) (string, error) {
	if c.client == nil {
		return "", outbound.ErrMissingCredentials
	}

	name := req.Model
	if name == "" {
		name = c.model
	}
	model := c.client.GenerativeModel(name)
	model.SetTemperature(req.Temperature)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	if req.JSONOutput {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return TextFromResponse(resp)
}

// TextFromResponse joins the text parts of the first candidate. A candidate
// carrying only non-text parts is a shape the adapter does not handle.
func TextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", outbound.ErrEmptyResponse
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", outbound.ErrEmptyResponse
	}

	var (
		b     strings.Builder
		texts int
	)
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
			texts++
		}
	}
	if texts == 0 {
		return "", fmt.Errorf("%w: candidate has no text parts", outbound.ErrUnrecognizedEnvelope)
	}
	return b.String(), nil
}

// HealthCheck fetches the model metadata
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.client == nil {
		return outbound.ErrMissingCredentials
	}
	if _, err := c.client.GenerativeModel(c.model).Info(ctx); err != nil {
		return fmt.Errorf("gemini health check failed: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
