package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	CORSOrigins string
	TablePrefix string
	// Auth
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWKSURL     string // when set, asymmetric (RS256/ES256) verification is used instead of HS256
	// AI gateway
	OpenAIAPIKey        string
	OpenAIBaseURL       string
	AnthropicAPIKey     string
	EmbeddingModel      string
	EmbeddingDimensions int
	ChatProvider        string // openai | anthropic | lorem
	ChatModel           string
	// Webhooks: comma-separated URLs notified after successful transitions
	WebhookURLs []string
	// Embedding backfill interval; 0 disables the in-process worker
	BackfillInterval time.Duration
	BackfillBatch    int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: tablePrefix,

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret"),
		JWTIssuer:   getEnv("JWT_ISSUER", "app"),
		JWTAudience: getEnv("JWT_AUDIENCE", "app-clients"),
		JWKSURL:     getEnv("JWKS_URL", ""),

		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:       getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: getEnvInt("EMBEDDING_DIMENSIONS", 1536),
		ChatProvider:        getEnv("CHAT_PROVIDER", defaultChatProvider(env)),
		ChatModel:           getEnv("CHAT_MODEL", "gpt-4o-mini"),

		WebhookURLs: splitNonEmpty(getEnv("WEBHOOK_URLS", "")),

		BackfillInterval: getEnvDuration("BACKFILL_INTERVAL", 30*time.Second),
		BackfillBatch:    getEnvInt("BACKFILL_BATCH", 64),

		// Default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// defaultChatProvider picks the lorem stub outside production so the answer
// endpoint works without API keys.
func defaultChatProvider(env string) string {
	if env == "prod" {
		return "openai"
	}
	return "lorem"
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	// Auto-generate based on environment
	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitNonEmpty(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
