package models

// Message represents a single conversational message in the normalized schema.
type Message struct {
	Role    string
	Content string
	Name    string
}

// Roles accepted in chat requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Finish reasons describing why generation stopped.
const (
	FinishStop          = "stop"
	FinishLength        = "length"
	FinishContentFilter = "content_filter"
)

// ChatRequest is the canonical representation of a chat completion request.
// It is immutable once constructed and owned by a single request handler.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Stream      bool
	N           int
	MaxTokens   int
	Temperature float64
}

// LastUserContent returns the content of the most recent user message, or
// empty string and false when the conversation has no user message.
func (r ChatRequest) LastUserContent() (string, bool) {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content, true
		}
	}
	return "", false
}

// CompletionRequest represents a legacy text completion style request.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Stream      bool
	MaxTokens   int
	Temperature float64
}

// ResponseRequest is the canonical representation of a Responses API request.
// Input is flattened to normalized messages during decoding; a bare string
// input becomes a single user message.
type ResponseRequest struct {
	Model           string
	Input           []Message
	Instructions    string
	Stream          bool
	MaxOutputTokens int
	Temperature     float64
	TopP            float64
	Metadata        map[string]string
}

// LastUserContent returns the content of the most recent user input item, or
// empty string and false when there is none.
func (r ResponseRequest) LastUserContent() (string, bool) {
	for i := len(r.Input) - 1; i >= 0; i-- {
		if r.Input[i].Role == RoleUser {
			return r.Input[i].Content, true
		}
	}
	return "", false
}

// Result is the output of one strategy invocation. Each Result is consumed by
// exactly one of the response assembler or the streaming adapter, never both.
type Result struct {
	Content      string
	FinishReason string
}

// Usage records token accounting information. Counts are a documented
// approximation derived from text length, not real tokenization.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Model identifies a configured model exposed by the mock.
type Model struct {
	ID      string
	Created int64
	OwnedBy string
}
