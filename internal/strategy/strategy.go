package strategy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"llmock/internal/config"
	"llmock/internal/models"
)

// ErrGeneration indicates a strategy failed to produce a result.
var ErrGeneration = errors.New("generation failed")

// ErrUnknownStrategy indicates the configured strategy name is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Strategy decides what content a mock response contains. Implementations
// must be pure functions of their input: no cross-request state, and no
// blocking I/O beyond what is intrinsic to the variant (a proxy variant's
// upstream call is part of the response latency).
type Strategy interface {
	Name() string
	GenerateChat(ctx context.Context, req models.ChatRequest) (models.Result, error)
	GenerateCompletion(ctx context.Context, req models.CompletionRequest) (models.Result, error)
}

// ResponseStrategy is implemented by strategies that additionally serve the
// Responses API surface.
type ResponseStrategy interface {
	Strategy
	GenerateResponse(ctx context.Context, req models.ResponseRequest) (models.Result, error)
}

type factory func(cfg config.StrategyConfig) (Strategy, error)

// factories maps configured names to constructors. New variants register here
// rather than being discovered dynamically.
var factories = map[string]factory{
	config.StrategyMirror: func(config.StrategyConfig) (Strategy, error) {
		return Mirror{}, nil
	},
	config.StrategyFixed: func(cfg config.StrategyConfig) (Strategy, error) {
		return Fixed{Text: cfg.Text}, nil
	},
	config.StrategyProxy: func(cfg config.StrategyConfig) (Strategy, error) {
		if cfg.Proxy == nil {
			return nil, errors.New("proxy strategy requires proxy configuration")
		}
		return NewProxy(*cfg.Proxy, newHTTPClient(defaultHTTPTimeout))
	},
}

// New constructs the strategy selected by configuration.
func New(cfg config.StrategyConfig) (Strategy, error) {
	build, ok := factories[cfg.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, cfg.Name)
	}

	s, err := build(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialise strategy %q: %w", cfg.Name, err)
	}
	return s, nil
}

const (
	defaultHTTPTimeout     = 60 * time.Second
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
