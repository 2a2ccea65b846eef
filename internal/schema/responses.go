package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"llmock/internal/models"
)

var allowedInputRoles = map[string]struct{}{
	models.RoleSystem:    {},
	models.RoleUser:      {},
	models.RoleAssistant: {},
	"developer":          {},
}

// ResponseCreateRequest models the OpenAI Responses API request payload.
// Input accepts either a bare string or a list of input messages.
type ResponseCreateRequest struct {
	Model           string
	Input           []InputMessage
	Instructions    string
	Stream          bool
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	Metadata        map[string]string
}

// InputMessage is one item of structured Responses API input.
type InputMessage struct {
	Role    string
	Content string
}

// UnmarshalJSON accepts string content or a list of input_text parts.
func (m *InputMessage) UnmarshalJSON(data []byte) error {
	type alias struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode input message: %w", err)
	}

	role := strings.TrimSpace(raw.Role)
	if _, ok := allowedInputRoles[role]; !ok {
		return fmt.Errorf("%w: %s", errInvalidRole, role)
	}

	content, err := extractInputContent(raw.Content)
	if err != nil {
		return err
	}

	m.Role = role
	m.Content = content
	return nil
}

func extractInputContent(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		var builder strings.Builder
		for _, part := range parts {
			if part.Type != "input_text" {
				return "", fmt.Errorf("%w: input part type %q not supported", errInvalidContent, part.Type)
			}
			builder.WriteString(part.Text)
		}
		return builder.String(), nil
	}

	return "", fmt.Errorf("%w: unsupported input content structure", errInvalidContent)
}

// UnmarshalJSON implements strict parsing of the request body.
func (r *ResponseCreateRequest) UnmarshalJSON(data []byte) error {
	type alias struct {
		Model           string            `json:"model"`
		Input           json.RawMessage   `json:"input"`
		Instructions    string            `json:"instructions"`
		Stream          bool              `json:"stream"`
		MaxOutputTokens *int              `json:"max_output_tokens"`
		Temperature     *float64          `json:"temperature"`
		TopP            *float64          `json:"top_p"`
		Metadata        map[string]string `json:"metadata"`
	}

	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode response request: %w", err)
	}

	input, err := extractInput(raw.Input)
	if err != nil {
		return err
	}

	r.Model = strings.TrimSpace(raw.Model)
	r.Input = input
	r.Instructions = raw.Instructions
	r.Stream = raw.Stream
	if raw.MaxOutputTokens != nil {
		r.MaxOutputTokens = *raw.MaxOutputTokens
	}
	r.Temperature = 1.0
	if raw.Temperature != nil {
		r.Temperature = *raw.Temperature
	}
	r.TopP = 1.0
	if raw.TopP != nil {
		r.TopP = *raw.TopP
	}
	r.Metadata = raw.Metadata

	if r.Model == "" {
		return errEmptyModel
	}
	return nil
}

// extractInput accepts a bare string (treated as a single user message) or a
// list of input messages.
func extractInput(raw json.RawMessage) ([]InputMessage, error) {
	if len(raw) == 0 {
		return nil, errors.New("input is required")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return []InputMessage{{Role: models.RoleUser, Content: text}}, nil
	}

	var items []InputMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	return nil, errors.New("unsupported input type")
}

// ToNormalized converts the wire request into canonical form.
func (r ResponseCreateRequest) ToNormalized() models.ResponseRequest {
	input := make([]models.Message, 0, len(r.Input))
	for _, item := range r.Input {
		input = append(input, models.Message{
			Role:    item.Role,
			Content: item.Content,
		})
	}

	return models.ResponseRequest{
		Model:           r.Model,
		Input:           input,
		Instructions:    r.Instructions,
		Stream:          r.Stream,
		MaxOutputTokens: r.MaxOutputTokens,
		Temperature:     r.Temperature,
		TopP:            r.TopP,
		Metadata:        r.Metadata,
	}
}

// ResponseObject is the full Responses API response body.
type ResponseObject struct {
	ID              string                  `json:"id"`
	Object          string                  `json:"object"`
	CreatedAt       int64                   `json:"created_at"`
	Status          string                  `json:"status"`
	CompletedAt     *int64                  `json:"completed_at,omitempty"`
	Instructions    *string                 `json:"instructions"`
	MaxOutputTokens *int                    `json:"max_output_tokens"`
	Model           string                  `json:"model"`
	Output          []ResponseOutputMessage `json:"output"`
	Temperature     float64                 `json:"temperature"`
	TopP            float64                 `json:"top_p"`
	Usage           *ResponseUsage          `json:"usage,omitempty"`
	Metadata        map[string]string       `json:"metadata"`
}

// ResponseOutputMessage is a completed assistant message in the output list.
type ResponseOutputMessage struct {
	Type    string               `json:"type"`
	ID      string               `json:"id"`
	Status  string               `json:"status"`
	Role    string               `json:"role"`
	Content []ResponseOutputText `json:"content"`
}

// ResponseOutputText is one output_text content part.
type ResponseOutputText struct {
	Type        string `json:"type"`
	Text        string `json:"text"`
	Annotations []any  `json:"annotations"`
}

// ResponseUsage is the Responses API usage block.
type ResponseUsage struct {
	InputTokens         int                 `json:"input_tokens"`
	InputTokensDetails  InputTokensDetails  `json:"input_tokens_details"`
	OutputTokens        int                 `json:"output_tokens"`
	OutputTokensDetails OutputTokensDetails `json:"output_tokens_details"`
	TotalTokens         int                 `json:"total_tokens"`
}

// InputTokensDetails breaks down input token accounting.
type InputTokensDetails struct {
	CachedTokens int `json:"cached_tokens"`
}

// OutputTokensDetails breaks down output token accounting.
type OutputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// Responses API stream event payloads. Each is serialised as the data line of
// a named SSE event whose name matches the Type field.

// ResponseLifecycleEvent announces response state changes (created,
// in_progress, completed).
type ResponseLifecycleEvent struct {
	Type     string         `json:"type"`
	Response ResponseObject `json:"response"`
}

// ResponseOutputItemEvent brackets one output item (added, done).
type ResponseOutputItemEvent struct {
	Type        string                `json:"type"`
	OutputIndex int                   `json:"output_index"`
	Item        ResponseOutputMessage `json:"item"`
}

// ResponseContentPartEvent brackets one content part (added, done).
type ResponseContentPartEvent struct {
	Type         string             `json:"type"`
	ItemID       string             `json:"item_id"`
	OutputIndex  int                `json:"output_index"`
	ContentIndex int                `json:"content_index"`
	Part         ResponseOutputText `json:"part"`
}

// ResponseTextDeltaEvent carries one incremental text fragment.
type ResponseTextDeltaEvent struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

// ResponseTextDoneEvent closes the text stream with the final text.
type ResponseTextDoneEvent struct {
	Type         string `json:"type"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Text         string `json:"text"`
}
