package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	APIPort            string
	BackendAPIKey      string // API key for authenticating requests (empty = no auth, dev mode)
	CorsAllowedOrigins string // Comma-separated allowed origins (empty = *, dev mode)

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Supabase Storage (final narration artifacts)
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// OpenAI (story generation + speech synthesis)
	OpenAIKey  string
	StoryModel string // chat model used for story generation
	TTSModel   string // speech model used for narration

	// Gemini (alternate story provider, selected via STORY_PROVIDER=gemini)
	StoryProvider string
	GeminiKey     string
	GeminiModel   string

	// Narration pipeline
	TTSMaxTokens int    // per-chunk token budget, kept below the speech model ceiling
	TmpDir       string // scratch space for per-request segment files

	// Worker
	WorkerEnabled     bool
	WorkerConcurrency int
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:               getEnv("API_PORT", "8080"),
		BackendAPIKey:         getEnv("BACKEND_API_KEY", ""),
		CorsAllowedOrigins:    getEnv("CORS_ALLOWED_ORIGINS", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisURL:              getEnv("REDIS_URL", "redis://localhost:6379"),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "story-audio"),
		OpenAIKey:             getEnv("OPENAI_API_KEY", ""),
		StoryModel:            getEnv("STORY_MODEL", "gpt-4o-mini"),
		TTSModel:              getEnv("TTS_MODEL", "tts-1"),
		StoryProvider:         getEnv("STORY_PROVIDER", "openai"),
		GeminiKey:             getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		TTSMaxTokens:          getEnvInt("TTS_MAX_TOKENS", 1000),
		TmpDir:                getEnv("TMP_DIR", "/tmp/storytime"),
		WorkerEnabled:         getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency:     getEnvInt("WORKER_CONCURRENCY", 2),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}

	if cfg.StoryProvider == "gemini" && cfg.GeminiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when STORY_PROVIDER=gemini")
	}

	if cfg.TTSMaxTokens <= 0 {
		return nil, fmt.Errorf("TTS_MAX_TOKENS must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}
