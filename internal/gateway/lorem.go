package gateway

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	loremgen "github.com/bozaro/golorem"
)

// LoremGateway is a stub Embedder and ChatProvider for development and
// tests: no API keys, no network. Embeddings are deterministic per input
// text so ranking tests are reproducible.
type LoremGateway struct {
	generator  *loremgen.Lorem
	dimensions int
}

// NewLoremGateway creates the stub gateway.
func NewLoremGateway(dimensions int) *LoremGateway {
	if dimensions <= 0 {
		dimensions = 64
	}
	return &LoremGateway{
		generator:  loremgen.New(),
		dimensions: dimensions,
	}
}

// Embed returns a deterministic pseudo-vector per text, seeded from a hash
// of its tokens. Identical texts always produce identical vectors.
func (g *LoremGateway) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = pseudoEmbedding(text, g.dimensions)
	}
	return vectors, nil
}

// Generate returns lorem ipsum text sized roughly like a short answer.
func (g *LoremGateway) Generate(_ context.Context, _ string, _ []string) (*ChatResult, error) {
	text := g.generator.Paragraph(2, 4)
	tokens := len(strings.Fields(text))
	return &ChatResult{Text: text, TokensUsed: &tokens}, nil
}

// pseudoEmbedding spreads token hashes over the vector and normalizes it,
// giving texts with shared tokens a higher cosine similarity.
func pseudoEmbedding(text string, dimensions int) []float32 {
	vec := make([]float32, dimensions)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(token))
		vec[int(h.Sum32())%dimensions] += 1
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}

	inv := 1 / float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
