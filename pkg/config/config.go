package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	DatabaseURL   string
	JWTSecret     string
	JWTIssuer     string
	JWTTTLMinutes int

	// Engine selects the text-generation backend for the whole process
	// lifetime: "ollama" (local server) or "openai" (hosted API).
	Engine string

	OllamaURL   string
	OllamaModel string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	// LLMTimeoutSeconds bounds every single backend call.
	LLMTimeoutSeconds int
}

// Load reads environment variables, optionally from a .env file if present.
func Load() Config {
	// Try to load .env if it exists; ignore error if file not found
	_ = godotenv.Load()

	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     getEnv("JWT_SECRET", "dev-secret-change"),
		JWTIssuer:     getEnv("JWT_ISSUER", "haggle-service"),
		JWTTTLMinutes: getEnvInt("JWT_TTL_MINUTES", 60),

		Engine: getEnv("ENGINE", "ollama"),

		OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel: getEnv("OLLAMA_MODEL", "llama3.1:8b"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		LLMTimeoutSeconds: getEnvInt("LLM_TIMEOUT_SECONDS", 60),
	}
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
