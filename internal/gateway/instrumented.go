package gateway

import (
	"context"
	"time"

	"messagesearch/internal/metrics"
)

// instrumentedEmbedder wraps an Embedder and records call counts and
// latency per provider.
type instrumentedEmbedder struct {
	inner    Embedder
	provider string
	metrics  *metrics.Metrics
}

// NewInstrumentedEmbedder wraps an embedder with per-call metrics.
func NewInstrumentedEmbedder(inner Embedder, provider string, m *metrics.Metrics) Embedder {
	return &instrumentedEmbedder{inner: inner, provider: provider, metrics: m}
}

func (e *instrumentedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vectors, err := e.inner.Embed(ctx, texts)
	e.metrics.RecordGatewayRequest(e.provider, "embed", callStatus(err), time.Since(start))
	return vectors, err
}

// instrumentedChat wraps a ChatProvider the same way.
type instrumentedChat struct {
	inner    ChatProvider
	provider string
	metrics  *metrics.Metrics
}

// NewInstrumentedChat wraps a chat provider with per-call metrics.
func NewInstrumentedChat(inner ChatProvider, provider string, m *metrics.Metrics) ChatProvider {
	return &instrumentedChat{inner: inner, provider: provider, metrics: m}
}

func (c *instrumentedChat) Generate(ctx context.Context, prompt string, contextPassages []string) (*ChatResult, error) {
	start := time.Now()
	result, err := c.inner.Generate(ctx, prompt, contextPassages)
	c.metrics.RecordGatewayRequest(c.provider, "chat", callStatus(err), time.Since(start))
	return result, err
}

func callStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
