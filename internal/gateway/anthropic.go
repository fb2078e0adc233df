package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"messagesearch/internal/domain"
)

// AnthropicChat implements ChatProvider for Claude models. Anthropic has no
// embeddings API, so this provider is chat-only and is paired with another
// Embedder at wiring time.
type AnthropicChat struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicChat creates a Claude-backed chat provider.
func NewAnthropicChat(apiKey, model string) (*AnthropicChat, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	return &AnthropicChat{
		client: &client,
		model:  model,
	}, nil
}

// Generate produces an answer grounded on the context passages.
func (g *AnthropicChat) Generate(ctx context.Context, prompt string, contextPassages []string) (*ChatResult, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: BuildAnswerSystemPrompt(contextPassages),
			},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: anthropic chat: %v", domain.ErrUpstream, err)
	}

	var sb strings.Builder
	for _, content := range message.Content {
		if content.Type == "text" {
			sb.WriteString(content.Text)
		}
	}

	tokens := int(message.Usage.InputTokens + message.Usage.OutputTokens)
	return &ChatResult{
		Text:       sb.String(),
		TokensUsed: &tokens,
	}, nil
}
