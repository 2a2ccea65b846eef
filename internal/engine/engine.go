// Package engine holds the response-generation core: it validates the
// requested model, dispatches to the configured strategy, and assembles
// either the complete response object or a streaming adapter. The engine is
// stateless across requests and safe for concurrent use.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"llmock/internal/config"
	"llmock/internal/models"
	"llmock/internal/schema"
	"llmock/internal/strategy"
	"llmock/internal/stream"
)

// Engine maps normalized requests to strategy calls and wire responses.
type Engine struct {
	catalogue map[string]models.Model
	ordered   []models.Model
	strategy  strategy.Strategy
}

// New constructs the engine from the configured model set and strategy.
func New(cfg config.Config, strat strategy.Strategy) *Engine {
	catalogue := make(map[string]models.Model, len(cfg.Models))
	ordered := make([]models.Model, 0, len(cfg.Models))
	for _, m := range cfg.Models {
		model := models.Model{
			ID:      m.ID,
			Created: m.Created,
			OwnedBy: m.OwnedBy,
		}
		catalogue[m.ID] = model
		ordered = append(ordered, model)
	}

	return &Engine{
		catalogue: catalogue,
		ordered:   ordered,
		strategy:  strat,
	}
}

// Models returns the configured catalogue in configuration order.
func (e *Engine) Models() []models.Model {
	out := make([]models.Model, len(e.ordered))
	copy(out, e.ordered)
	return out
}

// Model looks up a single configured model.
func (e *Engine) Model(id string) (models.Model, bool) {
	m, ok := e.catalogue[id]
	return m, ok
}

func (e *Engine) checkModel(id string) error {
	if _, ok := e.catalogue[id]; !ok {
		return unknownModelError(id)
	}
	return nil
}

// Chat runs one non-streaming chat completion: model check, strategy
// dispatch (once per requested choice), then assembly.
func (e *Engine) Chat(ctx context.Context, req models.ChatRequest) (schema.ChatCompletionResponse, error) {
	if err := e.checkModel(req.Model); err != nil {
		return schema.ChatCompletionResponse{}, err
	}

	n := req.N
	if n < 1 {
		n = 1
	}
	results := make([]models.Result, 0, n)
	for i := 0; i < n; i++ {
		result, err := e.strategy.GenerateChat(ctx, req)
		if err != nil {
			return schema.ChatCompletionResponse{}, generationError(err)
		}
		results = append(results, result)
	}

	return e.assembleChat(req, results), nil
}

// ChatStream runs one streaming chat completion, returning the adapter that
// yields the event sequence. Validation and generation both happen before
// the first event, so failures here are full error responses.
func (e *Engine) ChatStream(ctx context.Context, req models.ChatRequest) (stream.Stream, error) {
	if err := e.checkModel(req.Model); err != nil {
		return nil, err
	}

	result, err := e.strategy.GenerateChat(ctx, req)
	if err != nil {
		return nil, generationError(err)
	}

	return stream.NewChat(newChatID(), time.Now().Unix(), req.Model, result), nil
}

// Completion runs one non-streaming legacy completion.
func (e *Engine) Completion(ctx context.Context, req models.CompletionRequest) (schema.CompletionResponse, error) {
	if err := e.checkModel(req.Model); err != nil {
		return schema.CompletionResponse{}, err
	}

	result, err := e.strategy.GenerateCompletion(ctx, req)
	if err != nil {
		return schema.CompletionResponse{}, generationError(err)
	}

	usage := usageFor(req.Prompt, result.Content)
	return schema.CompletionResponse{
		ID:      newCompletionID(),
		Object:  "text_completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []schema.CompletionChoice{{
			Text:         result.Content,
			Index:        0,
			FinishReason: result.FinishReason,
		}},
		Usage: schema.UsageFromNormalized(usage),
	}, nil
}

// CompletionStream runs one streaming legacy completion.
func (e *Engine) CompletionStream(ctx context.Context, req models.CompletionRequest) (stream.Stream, error) {
	if err := e.checkModel(req.Model); err != nil {
		return nil, err
	}

	result, err := e.strategy.GenerateCompletion(ctx, req)
	if err != nil {
		return nil, generationError(err)
	}

	return stream.NewCompletion(newCompletionID(), time.Now().Unix(), req.Model, result), nil
}

// Response runs one non-streaming Responses API call.
func (e *Engine) Response(ctx context.Context, req models.ResponseRequest) (schema.ResponseObject, error) {
	if err := e.checkModel(req.Model); err != nil {
		return schema.ResponseObject{}, err
	}

	result, err := e.generateResponse(ctx, req)
	if err != nil {
		return schema.ResponseObject{}, err
	}

	completed, _ := e.assembleResponse(req, result)
	return completed, nil
}

// ResponseStream runs one streaming Responses API call.
func (e *Engine) ResponseStream(ctx context.Context, req models.ResponseRequest) (stream.Stream, error) {
	if err := e.checkModel(req.Model); err != nil {
		return nil, err
	}

	result, err := e.generateResponse(ctx, req)
	if err != nil {
		return nil, err
	}

	completed, msgID := e.assembleResponse(req, result)
	return stream.NewResponse(completed, msgID, result.Content), nil
}

func (e *Engine) generateResponse(ctx context.Context, req models.ResponseRequest) (models.Result, error) {
	rs, ok := e.strategy.(strategy.ResponseStrategy)
	if !ok {
		return models.Result{}, &APIError{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("The configured strategy %q does not support the Responses API", e.strategy.Name()),
			Type:    schema.ErrTypeServer,
		}
	}

	result, err := rs.GenerateResponse(ctx, req)
	if err != nil {
		return models.Result{}, generationError(err)
	}
	return result, nil
}

// assembleChat builds the complete chat response, one choice per result,
// each independently finish-reasoned.
func (e *Engine) assembleChat(req models.ChatRequest, results []models.Result) schema.ChatCompletionResponse {
	choices := make([]schema.ChatChoice, 0, len(results))
	var completionTokens int
	for i, result := range results {
		choices = append(choices, schema.ChatChoice{
			Index: i,
			Message: schema.ChatMessage{
				Role:    models.RoleAssistant,
				Content: result.Content,
			},
			FinishReason: result.FinishReason,
		})
		completionTokens += estimateTokens(result.Content)
	}

	usage := models.Usage{
		PromptTokens:     estimateTokens(chatPromptText(req)),
		CompletionTokens: completionTokens,
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	return schema.ChatCompletionResponse{
		ID:      newChatID(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: choices,
		Usage:   schema.UsageFromNormalized(usage),
	}
}

// assembleResponse builds the completed Responses API object and returns it
// together with the generated output message id.
func (e *Engine) assembleResponse(req models.ResponseRequest, result models.Result) (schema.ResponseObject, string) {
	now := time.Now().Unix()
	msgID := newMessageID()

	inputText := responseInputText(req)
	usage := &schema.ResponseUsage{
		InputTokens:  estimateTokens(inputText),
		OutputTokens: estimateTokens(result.Content),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	var instructions *string
	if req.Instructions != "" {
		instructions = &req.Instructions
	}
	var maxOutputTokens *int
	if req.MaxOutputTokens > 0 {
		maxOutputTokens = &req.MaxOutputTokens
	}
	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}

	return schema.ResponseObject{
		ID:              newResponseID(),
		Object:          "response",
		CreatedAt:       now,
		Status:          "completed",
		CompletedAt:     &now,
		Instructions:    instructions,
		MaxOutputTokens: maxOutputTokens,
		Model:           req.Model,
		Output: []schema.ResponseOutputMessage{{
			Type:   "message",
			ID:     msgID,
			Status: "completed",
			Role:   models.RoleAssistant,
			Content: []schema.ResponseOutputText{{
				Type:        "output_text",
				Text:        result.Content,
				Annotations: []any{},
			}},
		}},
		Temperature: req.Temperature,
		TopP:        req.TopP,
		Usage:       usage,
		Metadata:    metadata,
	}, msgID
}

// estimateTokens approximates token counts as one token per four characters.
// It is deliberately not real tokenization; tests only rely on counts being
// deterministic and positive.
func estimateTokens(text string) int {
	return max(1, len(text)/4)
}

func usageFor(promptText, completionText string) models.Usage {
	usage := models.Usage{
		PromptTokens:     estimateTokens(promptText),
		CompletionTokens: estimateTokens(completionText),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}

func chatPromptText(req models.ChatRequest) string {
	parts := make([]string, 0, len(req.Messages))
	for _, msg := range req.Messages {
		if msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, " ")
}

func responseInputText(req models.ResponseRequest) string {
	parts := make([]string, 0, len(req.Input)+1)
	if req.Instructions != "" {
		parts = append(parts, req.Instructions)
	}
	for _, msg := range req.Input {
		if msg.Content != "" {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, " ")
}

// Correlation identifiers follow OpenAI's prefixes.
func newChatID() string {
	return "chatcmpl-" + hexID(24)
}

func newCompletionID() string {
	return "cmpl-" + hexID(24)
}

func newResponseID() string {
	return "resp_" + hexID(32)
}

func newMessageID() string {
	return "msg_" + hexID(32)
}

func hexID(n int) string {
	h := strings.ReplaceAll(uuid.NewString(), "-", "")
	if n < len(h) {
		h = h[:n]
	}
	return h
}
