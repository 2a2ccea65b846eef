package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"llmock/internal/models"
)

// CompletionRequest models the legacy OpenAI text completions request payload.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Stream      bool
	MaxTokens   int
	Temperature float64
}

// UnmarshalJSON performs strict validation for completion requests.
func (r *CompletionRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Model       string          `json:"model"`
		Prompt      json.RawMessage `json:"prompt"`
		Stream      bool            `json:"stream"`
		MaxTokens   *int            `json:"max_tokens"`
		Temperature *float64        `json:"temperature"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode completion request: %w", err)
	}

	prompt, err := extractPrompt(raw.Prompt)
	if err != nil {
		return err
	}

	r.Model = strings.TrimSpace(raw.Model)
	r.Prompt = prompt
	r.Stream = raw.Stream
	if raw.MaxTokens != nil {
		r.MaxTokens = *raw.MaxTokens
	}
	r.Temperature = 1.0
	if raw.Temperature != nil {
		r.Temperature = *raw.Temperature
	}

	if r.Model == "" {
		return errEmptyModel
	}
	return nil
}

// ToNormalized converts the completion request into canonical form.
func (r CompletionRequest) ToNormalized() models.CompletionRequest {
	return models.CompletionRequest{
		Model:       r.Model,
		Prompt:      r.Prompt,
		Stream:      r.Stream,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	}
}

// extractPrompt accepts a plain string or an array of strings joined by
// newlines. An empty prompt is valid and mirrors to an empty completion.
func extractPrompt(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", errors.New("prompt is required")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var parts []string
	if err := json.Unmarshal(raw, &parts); err == nil {
		return strings.Join(parts, "\n"), nil
	}

	return "", errors.New("unsupported prompt type")
}

// CompletionResponse models the OpenAI completion response payload.
type CompletionResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []CompletionChoice `json:"choices"`
	Usage   *Usage             `json:"usage,omitempty"`
}

// CompletionChoice represents a single completion choice.
type CompletionChoice struct {
	Text         string `json:"text"`
	Index        int    `json:"index"`
	FinishReason string `json:"finish_reason"`
	Logprobs     any    `json:"logprobs"`
}

// CompletionChunk is one streamed SSE payload of a legacy completion.
type CompletionChunk struct {
	ID      string                  `json:"id"`
	Object  string                  `json:"object"`
	Created int64                   `json:"created"`
	Model   string                  `json:"model"`
	Choices []CompletionChunkChoice `json:"choices"`
}

// CompletionChunkChoice carries one text fragment of a streamed completion.
type CompletionChunkChoice struct {
	Text         string  `json:"text"`
	Index        int     `json:"index"`
	FinishReason *string `json:"finish_reason"`
}
