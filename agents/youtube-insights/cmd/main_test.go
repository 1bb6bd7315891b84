package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"insight-stack/agents/youtube-insights/youtube"
	"insight-stack/shared/ai"
	"insight-stack/shared/config"

	"go.uber.org/zap"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "run", "watch", "auth"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered: %v", name, err)
		}
	}

	run, _, _ := root.Find([]string{"run"})
	for _, flag := range []string{"max-videos", "max-comments", "language", "region", "prompt", "max-quote-length", "start-date", "end-date", "parallel"} {
		if run.Flags().Lookup(flag) == nil {
			t.Errorf("run is missing --%s", flag)
		}
	}
}

func TestRunRequiresQuery(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"run"})
	if err := root.Execute(); err == nil {
		t.Fatal("run without a query should fail")
	}
}

func testConfig() *config.Config {
	return &config.Config{
		YouTube: config.YouTubeConfig{
			Backend:        config.BackendRapidAPI,
			RapidAPIKey:    "rk",
			RapidAPIHost:   "youtube138.p.rapidapi.com",
			BaseURL:        "https://youtube138.p.rapidapi.com",
			DataAPIKey:     "dk",
			RequestDelay:   500 * time.Millisecond,
			RequestTimeout: 30 * time.Second,
		},
		AI: config.AIConfig{
			Provider:      config.ProviderOpenAI,
			OpenAIAPIKey:  "ok",
			GeminiAPIKey:  "gk",
			Model:         config.DefaultOpenAIModel,
			Temperature:   0.3,
			MaxConcurrent: 5,
		},
		Limits: config.LimitsConfig{MaxVideosPerRequest: 50, DefaultVideosPerRequest: 20, MaxCommentsPerVideo: 50},
	}
}

func TestNewSourceByBackend(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	src, err := newSource(ctx, cfg, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*youtube.RapidAPISource); !ok {
		t.Errorf("rapidapi backend built %T", src)
	}

	cfg.YouTube.Backend = config.BackendDataAPI
	src, err = newSource(ctx, cfg, nil, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*youtube.DataAPISource); !ok {
		t.Errorf("dataapi backend built %T", src)
	}

	cfg.YouTube.Backend = "scraper"
	if _, err := newSource(ctx, cfg, nil, zap.NewNop()); err == nil {
		t.Error("unknown backend accepted")
	}
}

func TestNewCompleterByProvider(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	c, err := newCompleter(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*ai.OpenAICompleter); !ok || c.Model() != config.DefaultOpenAIModel {
		t.Errorf("openai provider built %T (%s)", c, c.Model())
	}

	cfg.AI.Provider = config.ProviderGemini
	cfg.AI.Model = config.DefaultGeminiModel
	c, err = newCompleter(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*ai.GeminiCompleter); !ok {
		t.Errorf("gemini provider built %T", c)
	}
}

func TestNewPipeline(t *testing.T) {
	p, err := newPipeline(context.Background(), testConfig(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if p.Model() != config.DefaultOpenAIModel || p.Limits().MaxVideosPerRequest != 50 {
		t.Errorf("pipeline model %q limits %+v", p.Model(), p.Limits())
	}
}
