package gateway

import (
	"fmt"
	"log/slog"

	"messagesearch/internal/config"
	"messagesearch/internal/metrics"
)

// Setup wires the embedding and chat providers from configuration.
// The embedder is OpenAI whenever a key is present (Anthropic has no
// embeddings API); the chat provider follows CHAT_PROVIDER. Without any
// keys both fall back to the lorem stub. Every provider is wrapped with
// per-call metrics.
func Setup(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (Embedder, ChatProvider, error) {
	var embedder Embedder
	var chat ChatProvider
	embedderProvider := "lorem"
	chatProvider := "lorem"

	if cfg.OpenAIAPIKey != "" {
		oa, err := NewOpenAIGateway(OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			EmbeddingModel: cfg.EmbeddingModel,
			Dimensions:     cfg.EmbeddingDimensions,
			ChatModel:      cfg.ChatModel,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("setup openai gateway: %w", err)
		}
		embedder = oa
		embedderProvider = "openai"
		if cfg.ChatProvider == "openai" {
			chat = oa
			chatProvider = "openai"
		}
	}

	if cfg.ChatProvider == "anthropic" {
		ac, err := NewAnthropicChat(cfg.AnthropicAPIKey, cfg.ChatModel)
		if err != nil {
			return nil, nil, fmt.Errorf("setup anthropic gateway: %w", err)
		}
		chat = ac
		chatProvider = "anthropic"
	}

	if embedder == nil || chat == nil {
		lorem := NewLoremGateway(cfg.EmbeddingDimensions)
		if embedder == nil {
			logger.Warn("no embedding provider configured, using lorem stub")
			embedder = lorem
		}
		if chat == nil {
			logger.Warn("no chat provider configured, using lorem stub", "chat_provider", cfg.ChatProvider)
			chat = lorem
		}
	}

	logger.Info("gateway initialized",
		"embedding_model", cfg.EmbeddingModel,
		"chat_provider", cfg.ChatProvider,
		"chat_model", cfg.ChatModel,
	)

	return NewInstrumentedEmbedder(embedder, embedderProvider, m),
		NewInstrumentedChat(chat, chatProvider, m), nil
}
