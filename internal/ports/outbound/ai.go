// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import "context"

// GenerationParams are the sampling parameters for one model invocation.
type GenerationParams struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Stream requests incremental output; chunks are concatenated in
	// arrival order before the result is returned.
	Stream bool
}

// TextResult is the raw output of one model invocation.
type TextResult struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// TextGenerator submits a rendered prompt to a hosted text-generation
// service and returns the raw generated text. Implementations must honor
// context cancellation; they do not interpret the output.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, params GenerationParams) (*TextResult, error)
}
