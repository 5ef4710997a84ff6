package llm

import "context"

// Response contains a completion result
type Response struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	LatencyMs        int64
}

// Provider defines the interface for remote completion endpoints
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// ListModels returns the models that support text generation
	ListModels(ctx context.Context) ([]string, error)

	// Generate sends a single prompt and returns the generated text
	Generate(ctx context.Context, prompt string, model string) (*Response, error)
}
