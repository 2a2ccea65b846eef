package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmock/internal/config"
	"llmock/internal/models"
	"llmock/internal/strategy"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080},
		Models: []config.ModelConfig{
			{ID: "gpt-4", Created: 1700000000, OwnedBy: "openai"},
			{ID: "gpt-3.5-turbo", Created: 1690000000, OwnedBy: "openai"},
		},
		Strategy: config.StrategyConfig{Name: config.StrategyMirror},
	}
}

// spyStrategy records invocations so tests can assert short-circuits.
type spyStrategy struct {
	calls int
	err   error
}

func (s *spyStrategy) Name() string { return "spy" }

func (s *spyStrategy) GenerateChat(context.Context, models.ChatRequest) (models.Result, error) {
	s.calls++
	return models.Result{Content: "spy", FinishReason: models.FinishStop}, s.err
}

func (s *spyStrategy) GenerateCompletion(context.Context, models.CompletionRequest) (models.Result, error) {
	s.calls++
	return models.Result{Content: "spy", FinishReason: models.FinishStop}, s.err
}

func TestChatAssemblesResponse(t *testing.T) {
	t.Parallel()

	eng := New(testConfig(), strategy.Mirror{})
	resp, err := eng.Chat(context.Background(), models.ChatRequest{
		Model: "gpt-4",
		Messages: []models.Message{
			{Role: models.RoleUser, Content: "Hello, how are you?"},
		},
		N: 1,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.ID, "chatcmpl-"))
	assert.Equal(t, "chat.completion", resp.Object)
	assert.Equal(t, "gpt-4", resp.Model)
	assert.Positive(t, resp.Created)

	require.Len(t, resp.Choices, 1)
	choice := resp.Choices[0]
	assert.Equal(t, 0, choice.Index)
	assert.Equal(t, models.RoleAssistant, choice.Message.Role)
	assert.Equal(t, "Hello, how are you?", choice.Message.Content)
	assert.Equal(t, models.FinishStop, choice.FinishReason)

	require.NotNil(t, resp.Usage)
	assert.Positive(t, resp.Usage.PromptTokens)
	assert.Positive(t, resp.Usage.CompletionTokens)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

func TestChatMultipleChoices(t *testing.T) {
	t.Parallel()

	eng := New(testConfig(), strategy.Fixed{Text: "same every time"})
	resp, err := eng.Chat(context.Background(), models.ChatRequest{
		Model:    "gpt-4",
		Messages: []models.Message{{Role: models.RoleUser, Content: "x"}},
		N:        3,
	})
	require.NoError(t, err)

	require.Len(t, resp.Choices, 3)
	for i, choice := range resp.Choices {
		assert.Equal(t, i, choice.Index)
		assert.Equal(t, "same every time", choice.Message.Content)
		assert.Equal(t, models.FinishStop, choice.FinishReason)
	}
}

func TestUnknownModelShortCircuits(t *testing.T) {
	t.Parallel()

	spy := &spyStrategy{}
	eng := New(testConfig(), spy)

	_, err := eng.Chat(context.Background(), models.ChatRequest{
		Model:    "nope",
		Messages: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnknownModel)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "invalid_request_error", apiErr.Type)
	assert.Equal(t, "model", apiErr.Param)
	assert.Equal(t, "model_not_found", apiErr.Code)

	assert.Zero(t, spy.calls, "strategy must not run for an unknown model")
}

func TestGenerationFailureIsServerError(t *testing.T) {
	t.Parallel()

	spy := &spyStrategy{err: strategy.ErrGeneration}
	eng := New(testConfig(), spy)

	_, err := eng.Completion(context.Background(), models.CompletionRequest{
		Model:  "gpt-4",
		Prompt: "hi",
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "server_error", apiErr.Type)
}

func TestStreamingEquivalence(t *testing.T) {
	t.Parallel()

	eng := New(testConfig(), strategy.Mirror{})
	req := models.ChatRequest{
		Model: "gpt-4",
		Messages: []models.Message{
			{Role: models.RoleUser, Content: "the quick brown fox jumps over the lazy dog"},
		},
		N: 1,
	}

	resp, err := eng.Chat(context.Background(), req)
	require.NoError(t, err)

	st, err := eng.ChatStream(context.Background(), req)
	require.NoError(t, err)

	var streamed strings.Builder
	for {
		event, ok := st.Next()
		if !ok {
			break
		}
		text := string(event)
		if strings.Contains(text, `"content":"`) && !strings.Contains(text, `"role"`) {
			start := strings.Index(text, `"content":"`) + len(`"content":"`)
			end := strings.Index(text[start:], `"`)
			streamed.WriteString(text[start : start+end])
		}
	}
	assert.Equal(t, resp.Choices[0].Message.Content, streamed.String())
}

func TestResponseAssembly(t *testing.T) {
	t.Parallel()

	eng := New(testConfig(), strategy.Mirror{})
	resp, err := eng.Response(context.Background(), models.ResponseRequest{
		Model:        "gpt-4",
		Input:        []models.Message{{Role: models.RoleUser, Content: "mirror me"}},
		Instructions: "be brief",
		Temperature:  1.0,
		TopP:         1.0,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.ID, "resp_"))
	assert.Equal(t, "response", resp.Object)
	assert.Equal(t, "completed", resp.Status)
	require.NotNil(t, resp.CompletedAt)

	require.Len(t, resp.Output, 1)
	out := resp.Output[0]
	assert.True(t, strings.HasPrefix(out.ID, "msg_"))
	assert.Equal(t, models.RoleAssistant, out.Role)
	require.Len(t, out.Content, 1)
	assert.Equal(t, "mirror me", out.Content[0].Text)

	require.NotNil(t, resp.Usage)
	assert.Equal(t, resp.Usage.InputTokens+resp.Usage.OutputTokens, resp.Usage.TotalTokens)
}

func TestResponseUnsupportedByStrategy(t *testing.T) {
	t.Parallel()

	// spyStrategy does not implement the Responses surface.
	eng := New(testConfig(), &spyStrategy{})
	_, err := eng.Response(context.Background(), models.ResponseRequest{
		Model: "gpt-4",
		Input: []models.Message{{Role: models.RoleUser, Content: "hi"}},
	})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
}

func TestEstimateTokens(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abc"))
	assert.Equal(t, 2, estimateTokens("eight ch"))
	assert.Equal(t, 25, estimateTokens(strings.Repeat("a", 100)))
}
