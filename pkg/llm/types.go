package llm

import (
	"context"
	"time"
)

// CompletionRequest carries one prompt to an inference backend.
type CompletionRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
	JSONOutput  bool
}

// CompletionResponse is the generated text plus invocation metadata.
type CompletionResponse struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	Duration         time.Duration
}

// Provider describes an inference backend capable of completing prompts.
// Adding a new backend means adding a descriptor in the registry and an
// adapter satisfying this interface.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
