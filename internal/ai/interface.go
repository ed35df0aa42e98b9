package ai

import (
	"context"
)

// LLMProvider defines the contract for interacting with AI models.
type LLMProvider interface {
	// ParseUserIntent maps one user message, with the recent conversation, to a tool call.
	ParseUserIntent(ctx context.Context, userMessage string, history []string) (*IntentResult, error)

	// Generate returns a free-text completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Embedder turns texts into vectors of equal length, one per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
