package gemini

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTextFromResponse(t *testing.T) {
	t.Run("ConcatenatesTextParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"nombre_persona":`), genai.Text(`"Ana"}`)}},
		}}}

		text, err := TextFromResponse(resp)

		require.NoError(t, err)
		assert.Equal(t, `{"nombre_persona":"Ana"}`, text)
	})

	t.Run("NoCandidates_ShouldBeEmpty", func(t *testing.T) {
		_, err := TextFromResponse(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, outbound.ErrEmptyResponse)

		_, err = TextFromResponse(nil)
		assert.ErrorIs(t, err, outbound.ErrEmptyResponse)
	})

	t.Run("OnlyBlobParts_ShouldBeUnrecognized", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png", Data: []byte{1}}}},
		}}}

		_, err := TextFromResponse(resp)
		assert.ErrorIs(t, err, outbound.ErrUnrecognizedEnvelope)
	})
}

func TestClientWithoutKey(t *testing.T) {
	client, err := NewClient(context.Background(), Config{}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "gemini", client.Name())
	assert.Equal(t, DefaultModel, client.model)

	_, err = client.Generate(context.Background(), outbound.ModelRequest{Prompt: "hola"})
	assert.ErrorIs(t, err, outbound.ErrMissingCredentials)
	assert.ErrorIs(t, client.HealthCheck(context.Background()), outbound.ErrMissingCredentials)
	assert.NoError(t, client.Close())
}
