package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmock/internal/models"
)

func TestChatRequestDecoding(t *testing.T) {
	t.Parallel()

	var req ChatCompletionRequest
	err := json.Unmarshal([]byte(`{
		"model": "gpt-4",
		"messages": [
			{"role": "system", "content": "Be terse."},
			{"role": "user", "content": "Hello!"}
		],
		"stream": true,
		"max_tokens": 50,
		"temperature": 0.2
	}`), &req)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "Hello!", req.Messages[1].Content)
	assert.True(t, req.Stream)
	assert.Equal(t, 1, req.N)
	assert.Equal(t, 50, req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 1e-9)

	normalized := req.ToNormalized()
	assert.Equal(t, models.ChatRequest{
		Model: "gpt-4",
		Messages: []models.Message{
			{Role: models.RoleSystem, Content: "Be terse."},
			{Role: models.RoleUser, Content: "Hello!"},
		},
		Stream:      true,
		N:           1,
		MaxTokens:   50,
		Temperature: 0.2,
	}, normalized)
}

func TestChatRequestSegmentedContent(t *testing.T) {
	t.Parallel()

	var req ChatCompletionRequest
	err := json.Unmarshal([]byte(`{
		"model": "gpt-4",
		"messages": [
			{"role": "user", "content": [{"type": "text", "text": "part one "}, {"type": "text", "text": "part two"}]}
		]
	}`), &req)
	require.NoError(t, err)
	assert.Equal(t, "part one part two", req.Messages[0].Content)
}

func TestChatRequestValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"missing model", `{"messages":[{"role":"user","content":"hi"}]}`},
		{"no messages", `{"model":"gpt-4","messages":[]}`},
		{"bad role", `{"model":"gpt-4","messages":[{"role":"wizard","content":"hi"}]}`},
		{"bad n", `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}],"n":0}`},
		{"stream with n", `{"model":"gpt-4","messages":[{"role":"user","content":"hi"}],"n":2,"stream":true}`},
		{"image content", `{"model":"gpt-4","messages":[{"role":"user","content":[{"type":"image_url"}]}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req ChatCompletionRequest
			assert.Error(t, json.Unmarshal([]byte(tc.body), &req))
		})
	}
}

func TestChatRequestAllowsEmptyContent(t *testing.T) {
	t.Parallel()

	var req ChatCompletionRequest
	err := json.Unmarshal([]byte(`{"model":"gpt-4","messages":[{"role":"system","content":"only system"}]}`), &req)
	require.NoError(t, err)

	err = json.Unmarshal([]byte(`{"model":"gpt-4","messages":[{"role":"user"}]}`), &req)
	require.NoError(t, err)
	assert.Empty(t, req.Messages[0].Content)
}

func TestCompletionRequestPromptForms(t *testing.T) {
	t.Parallel()

	var req CompletionRequest
	require.NoError(t, json.Unmarshal([]byte(`{"model":"gpt-4","prompt":"plain"}`), &req))
	assert.Equal(t, "plain", req.Prompt)

	require.NoError(t, json.Unmarshal([]byte(`{"model":"gpt-4","prompt":["a","b"]}`), &req))
	assert.Equal(t, "a\nb", req.Prompt)

	assert.Error(t, json.Unmarshal([]byte(`{"model":"gpt-4","prompt":42}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"model":"gpt-4"}`), &req))
}

func TestResponseRequestInputForms(t *testing.T) {
	t.Parallel()

	var req ResponseCreateRequest
	require.NoError(t, json.Unmarshal([]byte(`{"model":"gpt-4","input":"just text"}`), &req))
	require.Len(t, req.Input, 1)
	assert.Equal(t, models.RoleUser, req.Input[0].Role)
	assert.Equal(t, "just text", req.Input[0].Content)

	require.NoError(t, json.Unmarshal([]byte(`{
		"model": "gpt-4",
		"input": [
			{"role": "developer", "content": "guide"},
			{"role": "user", "content": [{"type": "input_text", "text": "structured"}]}
		]
	}`), &req))
	require.Len(t, req.Input, 2)
	assert.Equal(t, "structured", req.Input[1].Content)

	assert.Error(t, json.Unmarshal([]byte(`{"model":"gpt-4"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"model":"gpt-4","input":[{"role":"alien","content":"x"}]}`), &req))
}

func TestChunkDeltaSerialization(t *testing.T) {
	t.Parallel()

	empty := ""
	role, err := json.Marshal(ChunkDelta{Role: "assistant", Content: &empty})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"assistant","content":""}`, string(role))

	finish, err := json.Marshal(ChunkChoice{Index: 0, Delta: ChunkDelta{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"index":0,"delta":{},"finish_reason":null}`, string(finish))
}
