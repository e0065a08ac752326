// Package config loads configuration from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LLM provider names.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// LLM provider
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Rate budget limits per rolling window. A zero limit disables that
	// window; RateLimitEnabled=false disables all accounting.
	RateLimitEnabled  bool
	RequestsPerMinute int
	RequestsPerHour   int
	RequestsPerDay    int
	TokensPerMinute   int
	TokensPerHour     int
	TokensPerDay      int

	// HTTP server
	ServerPort string
	AdminToken string

	// Prompt assembly
	VocabFile string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "lifelog"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "main"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     getEnv("LIFELOG_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("LIFELOG_LLM_MODEL", "llama3.1"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),

		RateLimitEnabled:  getEnv("LIFELOG_RATE_LIMIT", "true") == "true",
		RequestsPerMinute: getEnvInt("LIFELOG_REQUESTS_PER_MINUTE", 20),
		RequestsPerHour:   getEnvInt("LIFELOG_REQUESTS_PER_HOUR", 300),
		RequestsPerDay:    getEnvInt("LIFELOG_REQUESTS_PER_DAY", 2000),
		TokensPerMinute:   getEnvInt("LIFELOG_TOKENS_PER_MINUTE", 40000),
		TokensPerHour:     getEnvInt("LIFELOG_TOKENS_PER_HOUR", 400000),
		TokensPerDay:      getEnvInt("LIFELOG_TOKENS_PER_DAY", 2000000),

		ServerPort: getEnv("LIFELOG_SERVER_PORT", "8585"),
		AdminToken: os.Getenv("LIFELOG_ADMIN_TOKEN"),

		VocabFile: os.Getenv("LIFELOG_VOCAB_FILE"),

		LogFile:  getEnv("LIFELOG_LOG_FILE", "/tmp/lifelog.log"),
		LogLevel: parseLogLevel(getEnv("LIFELOG_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
