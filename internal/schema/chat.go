package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"llmock/internal/models"
)

var (
	errEmptyModel     = errors.New("model must be provided")
	errEmptyMessages  = errors.New("at least one message is required")
	errInvalidRole    = errors.New("invalid role")
	errInvalidContent = errors.New("invalid message content")
	errInvalidN       = errors.New("n must be a positive integer")
)

var allowedRoles = map[string]struct{}{
	models.RoleSystem:    {},
	models.RoleUser:      {},
	models.RoleAssistant: {},
	models.RoleTool:      {},
}

// ChatCompletionRequest models the OpenAI chat/completions request payload.
type ChatCompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	Stream      bool
	N           int
	MaxTokens   int
	Temperature float64
}

// UnmarshalJSON implements custom parsing to enforce validation.
func (r *ChatCompletionRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Model       string        `json:"model"`
		Messages    []ChatMessage `json:"messages"`
		Stream      bool          `json:"stream"`
		N           *int          `json:"n"`
		MaxTokens   *int          `json:"max_tokens"`
		Temperature *float64      `json:"temperature"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode chat request: %w", err)
	}

	r.Model = strings.TrimSpace(raw.Model)
	r.Messages = raw.Messages
	r.Stream = raw.Stream

	r.N = 1
	if raw.N != nil {
		r.N = *raw.N
	}
	if raw.MaxTokens != nil {
		r.MaxTokens = *raw.MaxTokens
	}
	r.Temperature = 1.0
	if raw.Temperature != nil {
		r.Temperature = *raw.Temperature
	}

	return r.validate()
}

func (r *ChatCompletionRequest) validate() error {
	if r.Model == "" {
		return errEmptyModel
	}
	if len(r.Messages) == 0 {
		return errEmptyMessages
	}
	if r.N < 1 {
		return errInvalidN
	}
	if r.Stream && r.N > 1 {
		return errors.New("streaming with n > 1 is not supported")
	}
	for i, msg := range r.Messages {
		if err := msg.validate(); err != nil {
			return fmt.Errorf("message[%d]: %w", i, err)
		}
	}
	return nil
}

// ToNormalized converts the wire request into the canonical format.
func (r ChatCompletionRequest) ToNormalized() models.ChatRequest {
	msgs := make([]models.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, models.Message{
			Role:    m.Role,
			Content: m.Content,
			Name:    m.Name,
		})
	}

	return models.ChatRequest{
		Model:       r.Model,
		Messages:    msgs,
		Stream:      r.Stream,
		N:           r.N,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
	}
}

// ChatMessage captures a single message within the chat request.
type ChatMessage struct {
	Role    string
	Content string
	Name    string
}

// UnmarshalJSON supports string and array-of-text content formats.
func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
		Name    string          `json:"name"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}

	content, err := extractMessageContent(raw.Content)
	if err != nil {
		return err
	}

	m.Role = strings.TrimSpace(raw.Role)
	m.Content = content
	m.Name = strings.TrimSpace(raw.Name)

	return m.validate()
}

// MarshalJSON emits the plain role/content/name form.
func (m ChatMessage) MarshalJSON() ([]byte, error) {
	type alias struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Name    string `json:"name,omitempty"`
	}
	return json.Marshal(alias{Role: m.Role, Content: m.Content, Name: m.Name})
}

func (m *ChatMessage) validate() error {
	if _, ok := allowedRoles[m.Role]; !ok {
		return fmt.Errorf("%w: %s", errInvalidRole, m.Role)
	}
	return nil
}

// extractMessageContent accepts either a plain string or a list of text
// segments, the two content forms SDKs send. Empty content is allowed; a
// system-only conversation is valid and mirrors to an empty response.
func extractMessageContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var segments []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &segments); err == nil {
		var builder strings.Builder
		for _, segment := range segments {
			if segment.Type != "text" {
				return "", fmt.Errorf("%w: segment type %q not supported", errInvalidContent, segment.Type)
			}
			builder.WriteString(segment.Text)
		}
		return builder.String(), nil
	}

	return "", fmt.Errorf("%w: unsupported content structure", errInvalidContent)
}

// ChatCompletionResponse models the OpenAI-compatible chat response.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// ChatChoice represents a single choice in the response payload.
type ChatChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
	Logprobs     any         `json:"logprobs"`
}

// Usage mirrors the token usage block in OpenAI responses.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// UsageFromNormalized converts the domain usage type to the wire shape.
func UsageFromNormalized(u models.Usage) *Usage {
	return &Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}

// ChatCompletionChunk is one streamed SSE payload of a chat completion.
type ChatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []ChunkChoice `json:"choices"`
}

// ChunkChoice represents a single choice within a streamed chunk.
// FinishReason is null for every chunk except the finishing one.
type ChunkChoice struct {
	Index        int        `json:"index"`
	Delta        ChunkDelta `json:"delta"`
	FinishReason *string    `json:"finish_reason"`
}

// ChunkDelta is the incremental content of a streamed chunk. The first delta
// of a stream announces the assistant role; subsequent deltas carry content;
// the finishing delta is empty.
type ChunkDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}
