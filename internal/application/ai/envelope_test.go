package ai

import (
	"testing"

	"github.com/nutriplan/planner/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"direct string", `"{\"dias\":[]}"`, `{"dias":[]}`},
		{"response.text", `{"response":{"text":"hola"}}`, "hola"},
		{"ollama response", `{"model":"llama","response":"hola","done":true}`, "hola"},
		{"outputText", `{"outputText":"hola"}`, "hola"},
		{"text", `{"text":"hola"}`, "hola"},
		{"generated_text", `{"generated_text":"hola"}`, "hola"},
		{"ollama chat message", `{"message":{"role":"assistant","content":"hola"}}`, "hola"},
		{"axios data envelope", `{"data":{"text":"hola"}}`, "hola"},
		{"output blocks", `{"output":[{"content":["uno",{"type":"output_text","text":"dos"},{"image":1}]}]}`, "uno\ndos"},
		{"output content string", `{"output":[{"content":"hola"}]}`, "hola"},
		{"output text", `{"output":[{"text":"hola"}]}`, "hola"},
		{"gemini candidate parts", `{"candidates":[{"content":{"parts":[{"text":"ho"},{"text":"la"}],"role":"model"}}]}`, "hola"},
		{"candidate output", `{"candidates":[{"output":"hola"}]}`, "hola"},
		{"candidate delta", `{"candidates":[{"delta":"hola"}]}`, "hola"},
		{"choices text", `{"choices":[{"text":"hola"}]}`, "hola"},
		{"choices message", `{"choices":[{"message":{"role":"assistant","content":"hola"}}]}`, "hola"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTextRejectsUnknownShapes(t *testing.T) {
	for _, body := range []string{
		`{"id":"cmpl-1","usage":{"total_tokens":3}}`,
		`{"choices":[]}`,
		`{"candidates":[{"finishReason":"SAFETY"}]}`,
		`[1,2,3]`,
		`42`,
		`not json`,
	} {
		_, err := ExtractText([]byte(body))
		assert.ErrorIs(t, err, outbound.ErrUnrecognizedEnvelope, body)
	}
}
