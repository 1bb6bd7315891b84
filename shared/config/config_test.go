package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SERVICE_API_KEY", "ENVIRONMENT", "PORT", "RATE_LIMIT_PER_MINUTE",
		"YOUTUBE_BACKEND", "YOUTUBE_RAPIDAPI_KEY", "YOUTUBE_RAPIDAPI_HOST", "YOUTUBE_BASE_URL",
		"YOUTUBE_API_KEY", "GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET",
		"YOUTUBE_REQUEST_DELAY", "REQUEST_TIMEOUT",
		"AI_PROVIDER", "OPENAI_API_KEY", "GEMINI_API_KEY", "DEFAULT_MODEL",
		"MAX_VIDEOS_PER_REQUEST", "DEFAULT_VIDEOS_PER_REQUEST", "MAX_COMMENTS_PER_VIDEO",
		"SMTP_SERVER", "SMTP_PORT", "EMAIL_USERNAME", "EMAIL_PASSWORD", "EMAIL_FROM", "EMAIL_TO",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("YOUTUBE_RAPIDAPI_KEY", "rapid-key")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("YOUTUBE_REQUEST_DELAY", "0.25")
	t.Setenv("REQUEST_TIMEOUT", "10s")
	t.Setenv("MAX_VIDEOS_PER_REQUEST", "40")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.YouTube.Backend != BackendRapidAPI {
		t.Errorf("Backend = %q", cfg.YouTube.Backend)
	}
	if cfg.YouTube.BaseURL != "https://youtube138.p.rapidapi.com" {
		t.Errorf("BaseURL = %q", cfg.YouTube.BaseURL)
	}
	if cfg.YouTube.RequestDelay != 250*time.Millisecond {
		t.Errorf("RequestDelay = %v", cfg.YouTube.RequestDelay)
	}
	if cfg.YouTube.RequestTimeout != 10*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.YouTube.RequestTimeout)
	}
	if cfg.AI.Model != DefaultOpenAIModel {
		t.Errorf("Model = %q", cfg.AI.Model)
	}
	if cfg.Limits.MaxVideosPerRequest != 40 || cfg.Limits.DefaultVideosPerRequest != 20 || cfg.Limits.MaxCommentsPerVideo != 50 {
		t.Errorf("Limits = %+v", cfg.Limits)
	}
	if cfg.Server.Port != 8000 || cfg.Server.RateLimitPerMinute != 10 {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
youtube:
  backend: dataapi
  data_api_key: data-key
  request_delay: 1s
ai:
  provider: gemini
  gemini_api_key: gem-key
  max_concurrent: 3
  pricing:
    gemini-2.5-flash:
      input_per_1k: 0.0003
      output_per_1k: 0.0025
watch:
  schedule: "0 */30 * * * *"
  queries:
    - query: "standing desk review"
      max_videos: 5
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AI.Model != DefaultGeminiModel {
		t.Errorf("Model = %q, want %q", cfg.AI.Model, DefaultGeminiModel)
	}
	if cfg.YouTube.RequestDelay != time.Second {
		t.Errorf("RequestDelay = %v", cfg.YouTube.RequestDelay)
	}
	if cfg.AI.MaxConcurrent != 3 {
		t.Errorf("MaxConcurrent = %d", cfg.AI.MaxConcurrent)
	}
	if got := cfg.RateTable().Cost("gemini-2.5-flash", 1000, 1000); got < 0.0027 || got > 0.0029 {
		t.Errorf("Cost = %f", got)
	}
	if len(cfg.Watch.Queries) != 1 || cfg.Watch.Queries[0].MaxVideos != 5 {
		t.Errorf("Watch = %+v", cfg.Watch)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing rapidapi key",
			env:     map[string]string{"OPENAI_API_KEY": "sk"},
			wantErr: "RapidAPI key",
		},
		{
			name:    "missing openai key",
			env:     map[string]string{"YOUTUBE_RAPIDAPI_KEY": "k"},
			wantErr: "OpenAI API key",
		},
		{
			name:    "unknown backend",
			env:     map[string]string{"YOUTUBE_BACKEND": "scraper", "OPENAI_API_KEY": "sk"},
			wantErr: "unknown youtube backend",
		},
		{
			name:    "unknown provider",
			env:     map[string]string{"YOUTUBE_RAPIDAPI_KEY": "k", "AI_PROVIDER": "llama"},
			wantErr: "unknown ai provider",
		},
		{
			name:    "default above max",
			env:     map[string]string{"YOUTUBE_RAPIDAPI_KEY": "k", "OPENAI_API_KEY": "sk", "MAX_VIDEOS_PER_REQUEST": "10", "DEFAULT_VIDEOS_PER_REQUEST": "20"},
			wantErr: "exceeds maximum",
		},
		{
			name:    "email without credentials",
			env:     map[string]string{"YOUTUBE_RAPIDAPI_KEY": "k", "OPENAI_API_KEY": "sk", "SMTP_SERVER": "smtp.example.com", "EMAIL_TO": "me@example.com"},
			wantErr: "email digest requires",
		},
		{
			name:    "bad integer",
			env:     map[string]string{"YOUTUBE_RAPIDAPI_KEY": "k", "OPENAI_API_KEY": "sk", "PORT": "eighty"},
			wantErr: "invalid PORT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestEmailDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("YOUTUBE_RAPIDAPI_KEY", "k")
	t.Setenv("OPENAI_API_KEY", "sk")
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("EMAIL_TO", "me@example.com")
	t.Setenv("EMAIL_USERNAME", "bot@example.com")
	t.Setenv("EMAIL_PASSWORD", "pw")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Email.Enabled() || cfg.Email.SMTPPort != 587 || cfg.Email.FromEmail != "bot@example.com" {
		t.Errorf("Email = %+v", cfg.Email)
	}
	if cfg.Watch.DedupWindow != 30*24*time.Hour {
		t.Errorf("DedupWindow = %v", cfg.Watch.DedupWindow)
	}
}
