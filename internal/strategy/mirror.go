package strategy

import (
	"context"

	"llmock/internal/config"
	"llmock/internal/models"
)

// Mirror echoes the request back: the last user message's content for chat,
// the prompt verbatim for completions. It is the default strategy and makes
// responses trivially predictable for integration tests.
type Mirror struct{}

func (Mirror) Name() string {
	return config.StrategyMirror
}

// GenerateChat returns the content of the most recent user message.
// A conversation without any user message yields empty content, not an error.
func (Mirror) GenerateChat(_ context.Context, req models.ChatRequest) (models.Result, error) {
	content, _ := req.LastUserContent()
	return models.Result{
		Content:      content,
		FinishReason: models.FinishStop,
	}, nil
}

// GenerateCompletion returns the prompt verbatim.
func (Mirror) GenerateCompletion(_ context.Context, req models.CompletionRequest) (models.Result, error) {
	return models.Result{
		Content:      req.Prompt,
		FinishReason: models.FinishStop,
	}, nil
}

// GenerateResponse returns the last user input item's content. Instructions
// do not alter the mirrored output; they only count towards usage.
func (Mirror) GenerateResponse(_ context.Context, req models.ResponseRequest) (models.Result, error) {
	content, _ := req.LastUserContent()
	return models.Result{
		Content:      content,
		FinishReason: models.FinishStop,
	}, nil
}

// Fixed always returns the configured text regardless of input.
type Fixed struct {
	Text string
}

func (Fixed) Name() string {
	return config.StrategyFixed
}

func (f Fixed) GenerateChat(context.Context, models.ChatRequest) (models.Result, error) {
	return f.result(), nil
}

func (f Fixed) GenerateCompletion(context.Context, models.CompletionRequest) (models.Result, error) {
	return f.result(), nil
}

func (f Fixed) GenerateResponse(context.Context, models.ResponseRequest) (models.Result, error) {
	return f.result(), nil
}

func (f Fixed) result() models.Result {
	return models.Result{
		Content:      f.Text,
		FinishReason: models.FinishStop,
	}
}
