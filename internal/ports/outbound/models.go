package outbound

import (
	"context"
	"errors"
)

// Errors shared by text model adapters
var (
	// ErrMissingCredentials means the adapter cannot authenticate. It is never retried.
	ErrMissingCredentials = errors.New("model credentials are not configured")
	// ErrEmptyResponse means the model answered without usable text.
	ErrEmptyResponse = errors.New("model returned no text")
	// ErrUnrecognizedEnvelope means the response body matched no known shape.
	ErrUnrecognizedEnvelope = errors.New("model response envelope not recognized")
)

// ModelRequest is one pinned-shape call to a text model. An empty Model
// means the adapter's own configured model.
type ModelRequest struct {
	Prompt          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
	JSONOutput      bool
}

// TextModel is an external text-generation capability
type TextModel interface {
	Name() string
	Generate(ctx context.Context, req ModelRequest) (string, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
