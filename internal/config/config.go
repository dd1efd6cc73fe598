package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis (classification decision cache)
	RedisURL string

	// Gemini AI
	GeminiAPIKey         string
	GeminiConcurrentReqs int

	// Generation defaults
	ModelName   string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Chat rate limiting (requests per minute per IP)
	ChatRateLimit int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:     getEnvOrDefault("PORT", "8000"),
		Env:      getEnvOrDefault("ENV", "development"),
		RedisURL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),

		GeminiAPIKey:         mustGetEnv("GEMINI_API_KEY"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),

		ModelName:   getEnvOrDefault("MODEL_NAME", "gemini-3-flash-preview"),
		MaxTokens:   getEnvAsIntOrDefault("MAX_TOKENS", 128),
		Temperature: getEnvAsFloatOrDefault("TEMPERATURE", 0.7),
		TopP:        getEnvAsFloatOrDefault("TOP_P", 0.9),

		ChatRateLimit: getEnvAsIntOrDefault("CHAT_RATE_LIMIT", 30),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
