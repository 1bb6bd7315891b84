package ai

import "context"

// SystemPrompt frames every analysis call.
const SystemPrompt = "You are an expert at analyzing YouTube content and comments for sentiment, themes, and purchase intent. You return structured JSON data."

// Completion is the text returned by a model together with its token usage.
type Completion struct {
	Text             string
	PromptTokens     int64
	CompletionTokens int64
}

// Completer is a language model backend.
type Completer interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
	Model() string
}
