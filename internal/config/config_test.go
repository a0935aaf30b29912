package config

import (
	"strings"
	"testing"
)

// setRequiredEnv sets the minimum environment for Load to succeed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/storytime?sslmode=disable")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_SERVICE_KEY", "service-key")
}

// clearOptionalEnv blanks every optional var so defaults are observable
// regardless of the host environment.
func clearOptionalEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"API_PORT", "BACKEND_API_KEY", "CORS_ALLOWED_ORIGINS",
		"SUPABASE_STORAGE_BUCKET", "STORY_MODEL", "TTS_MODEL",
		"STORY_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL",
		"TTS_MAX_TOKENS", "TMP_DIR", "WORKER_ENABLED", "WORKER_CONCURRENCY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)
	clearOptionalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIPort != "8080" {
		t.Errorf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.SupabaseStorageBucket != "story-audio" {
		t.Errorf("SupabaseStorageBucket = %q, want story-audio", cfg.SupabaseStorageBucket)
	}
	if cfg.StoryProvider != "openai" {
		t.Errorf("StoryProvider = %q, want openai", cfg.StoryProvider)
	}
	if cfg.StoryModel != "gpt-4o-mini" {
		t.Errorf("StoryModel = %q, want gpt-4o-mini", cfg.StoryModel)
	}
	if cfg.TTSModel != "tts-1" {
		t.Errorf("TTSModel = %q, want tts-1", cfg.TTSModel)
	}
	if cfg.TTSMaxTokens != 1000 {
		t.Errorf("TTSMaxTokens = %d, want 1000", cfg.TTSMaxTokens)
	}
	if cfg.TmpDir != "/tmp/storytime" {
		t.Errorf("TmpDir = %q, want /tmp/storytime", cfg.TmpDir)
	}
	if !cfg.WorkerEnabled {
		t.Error("WorkerEnabled = false, want true")
	}
	if cfg.WorkerConcurrency != 2 {
		t.Errorf("WorkerConcurrency = %d, want 2", cfg.WorkerConcurrency)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	clearOptionalEnv(t)
	t.Setenv("API_PORT", "9090")
	t.Setenv("TTS_MAX_TOKENS", "250")
	t.Setenv("WORKER_ENABLED", "false")
	t.Setenv("SUPABASE_STORAGE_BUCKET", "narrations")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.APIPort != "9090" {
		t.Errorf("APIPort = %q, want 9090", cfg.APIPort)
	}
	if cfg.TTSMaxTokens != 250 {
		t.Errorf("TTSMaxTokens = %d, want 250", cfg.TTSMaxTokens)
	}
	if cfg.WorkerEnabled {
		t.Error("WorkerEnabled = true, want false")
	}
	if cfg.SupabaseStorageBucket != "narrations" {
		t.Errorf("SupabaseStorageBucket = %q, want narrations", cfg.SupabaseStorageBucket)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"database url", "DATABASE_URL", "DATABASE_URL"},
		{"openai key", "OPENAI_API_KEY", "OPENAI_API_KEY"},
		{"supabase url", "SUPABASE_URL", "SUPABASE_URL"},
		{"supabase service key", "SUPABASE_SERVICE_KEY", "SUPABASE_URL and SUPABASE_SERVICE_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			clearOptionalEnv(t)
			t.Setenv(tt.unset, "")

			_, err := Load()
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadGeminiProviderRequiresKey(t *testing.T) {
	setRequiredEnv(t)
	clearOptionalEnv(t)
	t.Setenv("STORY_PROVIDER", "gemini")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without GEMINI_API_KEY, want error")
	}

	t.Setenv("GEMINI_API_KEY", "gm-test")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.StoryProvider != "gemini" {
		t.Errorf("StoryProvider = %q, want gemini", cfg.StoryProvider)
	}
}

func TestLoadRejectsNonPositiveTokenBudget(t *testing.T) {
	setRequiredEnv(t)
	clearOptionalEnv(t)
	t.Setenv("TTS_MAX_TOKENS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded with zero token budget, want error")
	}
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	setRequiredEnv(t)
	clearOptionalEnv(t)
	t.Setenv("TTS_MAX_TOKENS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TTSMaxTokens != 1000 {
		t.Errorf("TTSMaxTokens = %d, want default 1000", cfg.TTSMaxTokens)
	}
}
