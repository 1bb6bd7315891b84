package ai

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

type GeminiCompleter struct {
	client      *genai.Client
	model       string
	temperature float32
}

// NewGeminiCompleter creates a Gemini backend. baseURL and httpClient are
// optional overrides.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, temperature float64, baseURL string, httpClient *http.Client) (*GeminiCompleter, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiCompleter{
		client:      client,
		model:       model,
		temperature: float32(temperature),
	}, nil
}

func (g *GeminiCompleter) Model() string { return g.model }

func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (Completion, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return Completion{}, fmt.Errorf("gemini generate content failed: %w", err)
	}

	c := Completion{Text: result.Text()}
	if result.UsageMetadata != nil {
		c.PromptTokens = int64(result.UsageMetadata.PromptTokenCount)
		c.CompletionTokens = int64(result.UsageMetadata.CandidatesTokenCount)
	}
	if c.Text == "" {
		return c, fmt.Errorf("empty response from Gemini (possible content filtering)")
	}
	return c, nil
}
