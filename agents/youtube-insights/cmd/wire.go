package main

import (
	"context"
	"fmt"
	"net/http"

	youtubeinsights "insight-stack/agents/youtube-insights"
	"insight-stack/agents/youtube-insights/youtube"
	"insight-stack/shared/ai"
	"insight-stack/shared/config"
	"insight-stack/shared/usage"

	"go.uber.org/zap"
)

// newSource picks the upstream backend named in the config.
func newSource(ctx context.Context, cfg *config.Config, tracker *usage.Tracker, logger *zap.Logger) (youtube.Source, error) {
	switch cfg.YouTube.Backend {
	case config.BackendDataAPI:
		return youtube.NewDataAPISource(ctx, &cfg.YouTube, tracker, logger)
	case config.BackendRapidAPI:
		httpClient := &http.Client{Timeout: cfg.YouTube.RequestTimeout}
		return youtube.NewRapidAPISource(cfg.YouTube.BaseURL, cfg.YouTube.RapidAPIKey, cfg.YouTube.RapidAPIHost, httpClient), nil
	default:
		return nil, fmt.Errorf("unknown youtube backend %q", cfg.YouTube.Backend)
	}
}

func newCompleter(ctx context.Context, cfg *config.Config) (ai.Completer, error) {
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		return ai.NewOpenAICompleter(cfg.AI.OpenAIAPIKey, cfg.AI.Model, cfg.AI.Temperature), nil
	case config.ProviderGemini:
		return ai.NewGeminiCompleter(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model, cfg.AI.Temperature, "", nil)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
}

// newPipeline assembles the source, client, completer and analyzer around a
// single usage tracker.
func newPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*youtubeinsights.Pipeline, error) {
	tracker := usage.NewTracker()

	source, err := newSource(ctx, cfg, tracker, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube source: %w", err)
	}
	completer, err := newCompleter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ai completer: %w", err)
	}

	client := youtube.NewClient(source, cfg.YouTube.RequestDelay,
		youtube.WithTracker(tracker),
		youtube.WithLogger(logger.Named("youtube")),
		youtube.WithTimeout(cfg.YouTube.RequestTimeout),
		youtube.WithCommentCache(cfg.YouTube.CommentCacheSize),
	)
	analyzer := ai.NewAnalyzer(completer, cfg.RateTable(), tracker, logger.Named("ai"))

	logger.Info("pipeline ready",
		zap.String("youtube_backend", cfg.YouTube.Backend),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("model", cfg.AI.Model),
		zap.Duration("request_delay", cfg.YouTube.RequestDelay))

	return youtubeinsights.NewPipeline(client, analyzer, cfg.Limits, cfg.AI.MaxConcurrent, logger.Named("pipeline")), nil
}
