package strategy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"llmock/internal/config"
	"llmock/internal/models"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "llmock/0.1"
)

// Proxy forwards requests to a real OpenAI-compatible backend and returns its
// output, letting the mock serve genuine completions behind the same surface.
// Upstream latency becomes part of the response latency; upstream failures
// are reported as generation errors.
type Proxy struct {
	apiKey        string
	client        *http.Client
	chatURL       string
	completionURL string
}

// NewProxy creates a proxy strategy targeting the configured backend.
func NewProxy(cfg config.ProxyConfig, client *http.Client) (*Proxy, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}

	return &Proxy{
		apiKey:        cfg.APIKey,
		client:        client,
		chatURL:       baseURL + "/chat/completions",
		completionURL: baseURL + "/completions",
	}, nil
}

func (p *Proxy) Name() string {
	return config.StrategyProxy
}

// GenerateChat forwards the conversation to the upstream chat endpoint.
func (p *Proxy) GenerateChat(ctx context.Context, req models.ChatRequest) (models.Result, error) {
	messages := make([]proxyMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, proxyMessage{
			Role:    msg.Role,
			Content: msg.Content,
			Name:    msg.Name,
		})
	}

	payload := chatPayload{
		Model:    req.Model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = &req.MaxTokens
	}
	if req.Temperature != 0 {
		payload.Temperature = &req.Temperature
	}

	var resp chatUpstreamResponse
	if err := p.post(ctx, p.chatURL, payload, &resp); err != nil {
		return models.Result{}, err
	}
	if len(resp.Choices) == 0 {
		return models.Result{}, fmt.Errorf("%w: upstream returned no choices", ErrGeneration)
	}

	return models.Result{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: normalizeFinishReason(resp.Choices[0].FinishReason),
	}, nil
}

// GenerateCompletion forwards the prompt to the upstream legacy endpoint.
func (p *Proxy) GenerateCompletion(ctx context.Context, req models.CompletionRequest) (models.Result, error) {
	payload := completionPayload{
		Model:  req.Model,
		Prompt: req.Prompt,
	}
	if req.MaxTokens > 0 {
		payload.MaxTokens = &req.MaxTokens
	}
	if req.Temperature != 0 {
		payload.Temperature = &req.Temperature
	}

	var resp completionUpstreamResponse
	if err := p.post(ctx, p.completionURL, payload, &resp); err != nil {
		return models.Result{}, err
	}
	if len(resp.Choices) == 0 {
		return models.Result{}, fmt.Errorf("%w: upstream returned no choices", ErrGeneration)
	}

	return models.Result{
		Content:      resp.Choices[0].Text,
		FinishReason: normalizeFinishReason(resp.Choices[0].FinishReason),
	}, nil
}

func (p *Proxy) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("construct request: %w", err)
	}

	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set("User-Agent", userAgent)
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: upstream request: %v", ErrGeneration, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 400 {
		return parseUpstreamError(httpResp)
	}

	if err := json.NewDecoder(httpResp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode upstream response: %v", ErrGeneration, err)
	}
	return nil
}

func parseUpstreamError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("%w: upstream status %d", ErrGeneration, resp.StatusCode)
	}

	var parsed struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return fmt.Errorf("%w: upstream status %d: %s", ErrGeneration, resp.StatusCode, parsed.Error.Message)
	}
	return fmt.Errorf("%w: upstream status %d", ErrGeneration, resp.StatusCode)
}

// normalizeFinishReason clamps upstream finish reasons to the supported set.
func normalizeFinishReason(reason string) string {
	switch reason {
	case models.FinishStop, models.FinishLength, models.FinishContentFilter:
		return reason
	default:
		return models.FinishStop
	}
}

type proxyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

type chatPayload struct {
	Model       string         `json:"model"`
	Messages    []proxyMessage `json:"messages"`
	MaxTokens   *int           `json:"max_tokens,omitempty"`
	Temperature *float64       `json:"temperature,omitempty"`
}

type completionPayload struct {
	Model       string   `json:"model"`
	Prompt      string   `json:"prompt"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type chatUpstreamResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type completionUpstreamResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
