package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"insight-stack/shared/usage"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendRapidAPI = "rapidapi"
	BackendDataAPI  = "dataapi"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultOpenAIModel = "gpt-4.1-2025-04-14"
	DefaultGeminiModel = "gemini-2.5-flash"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	YouTube YouTubeConfig `yaml:"youtube"`
	AI      AIConfig      `yaml:"ai"`
	Limits  LimitsConfig  `yaml:"limits"`
	Watch   WatchConfig   `yaml:"watch"`
	Email   EmailConfig   `yaml:"email"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port               int      `yaml:"port" env:"PORT"`
	APIKey             string   `yaml:"api_key" env:"SERVICE_API_KEY"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE"`
	Environment        string   `yaml:"environment" env:"ENVIRONMENT"`
	CORSOrigins        []string `yaml:"cors_origins"`
}

type YouTubeConfig struct {
	Backend          string        `yaml:"backend" env:"YOUTUBE_BACKEND"`
	RapidAPIKey      string        `yaml:"rapidapi_key" env:"YOUTUBE_RAPIDAPI_KEY"`
	RapidAPIHost     string        `yaml:"rapidapi_host" env:"YOUTUBE_RAPIDAPI_HOST"`
	BaseURL          string        `yaml:"base_url" env:"YOUTUBE_BASE_URL"`
	DataAPIKey       string        `yaml:"data_api_key" env:"YOUTUBE_API_KEY"`
	ClientID         string        `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret     string        `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile        string        `yaml:"token_file"`
	RequestDelay     time.Duration `yaml:"request_delay" env:"YOUTUBE_REQUEST_DELAY"`
	RequestTimeout   time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	CommentCacheSize int           `yaml:"comment_cache_size"`
}

type AIConfig struct {
	Provider      string                `yaml:"provider" env:"AI_PROVIDER"`
	OpenAIAPIKey  string                `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	GeminiAPIKey  string                `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model         string                `yaml:"model" env:"DEFAULT_MODEL"`
	Temperature   float64               `yaml:"temperature"`
	MaxConcurrent int                   `yaml:"max_concurrent"`
	Pricing       map[string]usage.Rate `yaml:"pricing"`
}

type LimitsConfig struct {
	MaxVideosPerRequest     int  `yaml:"max_videos_per_request" env:"MAX_VIDEOS_PER_REQUEST"`
	DefaultVideosPerRequest int  `yaml:"default_videos_per_request" env:"DEFAULT_VIDEOS_PER_REQUEST"`
	MaxCommentsPerVideo     int  `yaml:"max_comments_per_video" env:"MAX_COMMENTS_PER_VIDEO"`
	ParallelCollection      bool `yaml:"parallel_collection"`
}

// WatchQuery is one search the watch mode runs on every tick.
type WatchQuery struct {
	Query               string `yaml:"query"`
	MaxVideos           int    `yaml:"max_videos"`
	MaxCommentsPerVideo int    `yaml:"max_comments_per_video"`
	Language            string `yaml:"language"`
	Region              string `yaml:"region"`
	Prompt              string `yaml:"prompt"`
}

// WatchConfig drives the scheduled mode. DataDir holds the seen-insight
// store; leaving it empty disables deduplication across runs.
type WatchConfig struct {
	Schedule    string        `yaml:"schedule"`
	Queries     []WatchQuery  `yaml:"queries"`
	OutputDir   string        `yaml:"output_dir"`
	DataDir     string        `yaml:"data_dir"`
	DedupWindow time.Duration `yaml:"dedup_window"`
}

// EmailConfig configures the watch digest. The digest is sent only when
// smtp_server and to_email are set.
type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server" env:"SMTP_SERVER"`
	SMTPPort   int    `yaml:"smtp_port" env:"SMTP_PORT"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email" env:"EMAIL_FROM"`
	ToEmail    string `yaml:"to_email" env:"EMAIL_TO"`
}

func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.ToEmail != ""
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// Load reads CONFIG_FILE (default config.yaml) when present, then fills the
// gaps from the environment and defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Environment-only deployment.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.APIKey, "SERVICE_API_KEY")
	setString(&c.Server.Environment, "ENVIRONMENT")
	setString(&c.YouTube.Backend, "YOUTUBE_BACKEND")
	setString(&c.YouTube.RapidAPIKey, "YOUTUBE_RAPIDAPI_KEY")
	setString(&c.YouTube.RapidAPIHost, "YOUTUBE_RAPIDAPI_HOST")
	setString(&c.YouTube.BaseURL, "YOUTUBE_BASE_URL")
	setString(&c.YouTube.DataAPIKey, "YOUTUBE_API_KEY")
	setString(&c.YouTube.ClientID, "GOOGLE_CLIENT_ID")
	setString(&c.YouTube.ClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&c.AI.Provider, "AI_PROVIDER")
	setString(&c.AI.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.AI.Model, "DEFAULT_MODEL")
	setString(&c.Email.SMTPServer, "SMTP_SERVER")
	setString(&c.Email.Username, "EMAIL_USERNAME")
	setString(&c.Email.Password, "EMAIL_PASSWORD")
	setString(&c.Email.FromEmail, "EMAIL_FROM")
	setString(&c.Email.ToEmail, "EMAIL_TO")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")

	for _, f := range []struct {
		dst *int
		env string
	}{
		{&c.Server.Port, "PORT"},
		{&c.Server.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE"},
		{&c.Limits.MaxVideosPerRequest, "MAX_VIDEOS_PER_REQUEST"},
		{&c.Limits.DefaultVideosPerRequest, "DEFAULT_VIDEOS_PER_REQUEST"},
		{&c.Limits.MaxCommentsPerVideo, "MAX_COMMENTS_PER_VIDEO"},
		{&c.Email.SMTPPort, "SMTP_PORT"},
	} {
		if err := setInt(f.dst, f.env); err != nil {
			return err
		}
	}

	if err := setSeconds(&c.YouTube.RequestDelay, "YOUTUBE_REQUEST_DELAY"); err != nil {
		return err
	}
	return setSeconds(&c.YouTube.RequestTimeout, "REQUEST_TIMEOUT")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.RateLimitPerMinute == 0 {
		c.Server.RateLimitPerMinute = 10
	}
	if c.Server.Environment == "" {
		c.Server.Environment = "development"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}

	if c.YouTube.Backend == "" {
		c.YouTube.Backend = BackendRapidAPI
	}
	if c.YouTube.RapidAPIHost == "" {
		c.YouTube.RapidAPIHost = "youtube138.p.rapidapi.com"
	}
	if c.YouTube.BaseURL == "" {
		c.YouTube.BaseURL = "https://" + c.YouTube.RapidAPIHost
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.RequestDelay == 0 {
		c.YouTube.RequestDelay = 500 * time.Millisecond
	}
	if c.YouTube.RequestTimeout == 0 {
		c.YouTube.RequestTimeout = 30 * time.Second
	}

	if c.AI.Provider == "" {
		c.AI.Provider = ProviderOpenAI
	}
	if c.AI.Model == "" {
		c.AI.Model = DefaultOpenAIModel
		if c.AI.Provider == ProviderGemini {
			c.AI.Model = DefaultGeminiModel
		}
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.3
	}
	if c.AI.MaxConcurrent == 0 {
		c.AI.MaxConcurrent = 5
	}

	if c.Limits.MaxVideosPerRequest == 0 {
		c.Limits.MaxVideosPerRequest = 50
	}
	if c.Limits.DefaultVideosPerRequest == 0 {
		c.Limits.DefaultVideosPerRequest = 20
	}
	if c.Limits.MaxCommentsPerVideo == 0 {
		c.Limits.MaxCommentsPerVideo = 50
	}

	if c.Watch.Schedule == "" {
		c.Watch.Schedule = "0 0 9 * * *" // Daily at 9 AM
	}
	if c.Watch.DedupWindow == 0 {
		c.Watch.DedupWindow = 30 * 24 * time.Hour
	}

	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromEmail == "" {
		c.Email.FromEmail = c.Email.Username
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

func (c *Config) validate() error {
	switch c.YouTube.Backend {
	case BackendRapidAPI:
		if c.YouTube.RapidAPIKey == "" {
			return fmt.Errorf("RapidAPI key is required (set YOUTUBE_RAPIDAPI_KEY or youtube.rapidapi_key)")
		}
	case BackendDataAPI:
		hasOAuth := c.YouTube.ClientID != "" && c.YouTube.ClientSecret != ""
		if c.YouTube.DataAPIKey == "" && !hasOAuth {
			return fmt.Errorf("YouTube Data API requires YOUTUBE_API_KEY or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
		}
	default:
		return fmt.Errorf("unknown youtube backend %q: must be %q or %q", c.YouTube.Backend, BackendRapidAPI, BackendDataAPI)
	}

	switch c.AI.Provider {
	case ProviderOpenAI:
		if c.AI.OpenAIAPIKey == "" {
			return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY or ai.openai_api_key)")
		}
	case ProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
		}
	default:
		return fmt.Errorf("unknown ai provider %q: must be %q or %q", c.AI.Provider, ProviderOpenAI, ProviderGemini)
	}

	if c.AI.MaxConcurrent < 1 {
		return fmt.Errorf("ai.max_concurrent must be positive, got %d", c.AI.MaxConcurrent)
	}
	if c.Limits.MaxVideosPerRequest < 1 || c.Limits.MaxCommentsPerVideo < 10 {
		return fmt.Errorf("limits must allow at least 1 video and 10 comments per video")
	}
	if c.Limits.DefaultVideosPerRequest > c.Limits.MaxVideosPerRequest {
		return fmt.Errorf("default videos per request (%d) exceeds maximum (%d)", c.Limits.DefaultVideosPerRequest, c.Limits.MaxVideosPerRequest)
	}
	if c.Email.Enabled() && (c.Email.Username == "" || c.Email.Password == "") {
		return fmt.Errorf("email digest requires EMAIL_USERNAME and EMAIL_PASSWORD (or email.username and email.password)")
	}
	for i, q := range c.Watch.Queries {
		if strings.TrimSpace(q.Query) == "" {
			return fmt.Errorf("watch.queries[%d] has an empty query", i)
		}
	}
	return nil
}

// RateTable builds the model cost table from ai.pricing.
func (c *Config) RateTable() usage.RateTable {
	return usage.NewRateTable(c.AI.Pricing)
}

func setString(dst *string, env string) {
	if *dst == "" {
		*dst = os.Getenv(env)
	}
}

func setInt(dst *int, env string) error {
	v := os.Getenv(env)
	if *dst != 0 || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", env, v, err)
	}
	*dst = n
	return nil
}

// setSeconds accepts plain seconds ("0.5") or a Go duration ("500ms").
func setSeconds(dst *time.Duration, env string) error {
	v := os.Getenv(env)
	if *dst != 0 || v == "" {
		return nil
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = time.Duration(secs * float64(time.Second))
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", env, v, err)
	}
	*dst = d
	return nil
}
