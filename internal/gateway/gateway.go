// Package gateway is the thin boundary to external AI providers. The search
// engine depends only on the Embedder and ChatProvider interfaces; concrete
// providers are wired at startup and stubbable in tests.
package gateway

import (
	"context"
)

// Embedder converts texts into embedding vectors, one vector per input text
// in the same order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatResult is a generated answer plus optional token accounting.
type ChatResult struct {
	Text       string
	TokensUsed *int
}

// ChatProvider synthesizes a natural-language answer for a prompt, grounded
// on the given context passages.
type ChatProvider interface {
	Generate(ctx context.Context, prompt string, contextPassages []string) (*ChatResult, error)
}
