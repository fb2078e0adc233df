package gateway

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"messagesearch/internal/domain"
)

// OpenAIGateway implements Embedder and ChatProvider against the OpenAI API
// (or any OpenAI-compatible endpoint via a custom base URL).
type OpenAIGateway struct {
	client         *openai.Client
	embeddingModel string
	dimensions     int
	chatModel      string
}

// OpenAIConfig configures the OpenAI gateway.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // empty = api.openai.com
	EmbeddingModel string
	Dimensions     int
	ChatModel      string
}

// NewOpenAIGateway creates a gateway backed by the OpenAI API.
func NewOpenAIGateway(cfg OpenAIConfig) (*OpenAIGateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGateway{
		client:         openai.NewClientWithConfig(clientCfg),
		embeddingModel: cfg.EmbeddingModel,
		dimensions:     cfg.Dimensions,
		chatModel:      cfg.ChatModel,
	}, nil
}

// Embed returns one embedding vector per input text.
func (g *OpenAIGateway) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := g.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(g.embeddingModel),
		Dimensions: g.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai embeddings: %v", domain.ErrUpstream, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: openai embeddings returned %d vectors for %d texts",
			domain.ErrUpstream, len(resp.Data), len(texts))
	}

	// Response order is not guaranteed to match input order; use the index.
	vectors := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, fmt.Errorf("%w: openai embeddings returned index %d out of range",
				domain.ErrUpstream, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}

	return vectors, nil
}

// Generate produces an answer grounded on the context passages.
func (g *OpenAIGateway) Generate(ctx context.Context, prompt string, contextPassages []string) (*ChatResult, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: BuildAnswerSystemPrompt(contextPassages),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai chat: %v", domain.ErrUpstream, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai chat returned no choices", domain.ErrUpstream)
	}

	tokens := resp.Usage.TotalTokens
	return &ChatResult{
		Text:       resp.Choices[0].Message.Content,
		TokensUsed: &tokens,
	}, nil
}

// BuildAnswerSystemPrompt renders the retrieved passages into the system
// prompt used for grounded answering. Shared by all chat providers so the
// answer behavior stays uniform across them.
func BuildAnswerSystemPrompt(contextPassages []string) string {
	var sb strings.Builder
	sb.WriteString("Answer the user's question using only the numbered passages below. ")
	sb.WriteString("If the passages do not contain the answer, say so.\n")
	for i, passage := range contextPassages {
		fmt.Fprintf(&sb, "\n[%d] %s\n", i+1, passage)
	}
	return sb.String()
}
