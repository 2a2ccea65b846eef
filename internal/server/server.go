// Package server wires the generation engine to an OpenAI-shaped HTTP
// surface: routing, authentication, CORS, metrics and the SSE write loop.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llmock/internal/config"
	"llmock/internal/engine"
	"llmock/internal/schema"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second
)

type Server struct {
	cfg     config.Config
	engine  *engine.Engine
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, eng *engine.Engine) (*Server, error) {
	if eng == nil {
		return nil, errors.New("engine must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = openAIErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	if len(cfg.CORS.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORS.AllowOrigins,
			AllowCredentials: true,
		}))
	}
	e.Use(metricsMiddleware)
	e.Use(apiKeyMiddleware(cfg.APIKey))

	srv := &Server{
		cfg:     cfg,
		engine:  eng,
		app:     e,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the HTTP handler for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg.Server.Port)
	slog.Info("starting server", "addr", s.address, "strategy", s.cfg.Strategy.Name)

	// No WriteTimeout: SSE streams stay open as long as the client reads.
	httpServer := &http.Server{
		Addr:        s.address,
		Handler:     s.app,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.app.GET("/v1/models", s.handleListModels)
	s.app.GET("/v1/models/:id", s.handleRetrieveModel)
	s.app.POST("/v1/chat/completions", s.handleChatCompletions)
	s.app.POST("/v1/completions", s.handleCompletions)
	s.app.POST("/v1/responses", s.handleResponses)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, schema.ModelListFromNormalized(s.engine.Models()))
}

func (s *Server) handleRetrieveModel(c echo.Context) error {
	id := c.Param("id")
	model, ok := s.engine.Model(id)
	if !ok {
		return &engine.APIError{
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("The model '%s' does not exist", id),
			Type:    schema.ErrTypeNotFound,
			Param:   "model",
			Code:    "model_not_found",
		}
	}
	return c.JSON(http.StatusOK, schema.ModelFromNormalized(model))
}

func (s *Server) handleChatCompletions(c echo.Context) error {
	var req schema.ChatCompletionRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	normalized := req.ToNormalized()

	if normalized.Stream {
		st, err := s.engine.ChatStream(ctx, normalized)
		if err != nil {
			return err
		}
		return s.writeStream(c, st)
	}

	resp, err := s.engine.Chat(ctx, normalized)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCompletions(c echo.Context) error {
	var req schema.CompletionRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	normalized := req.ToNormalized()

	if normalized.Stream {
		st, err := s.engine.CompletionStream(ctx, normalized)
		if err != nil {
			return err
		}
		return s.writeStream(c, st)
	}

	resp, err := s.engine.Completion(ctx, normalized)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleResponses(c echo.Context) error {
	var req schema.ResponseCreateRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	normalized := req.ToNormalized()

	if normalized.Stream {
		st, err := s.engine.ResponseStream(ctx, normalized)
		if err != nil {
			return err
		}
		return s.writeStream(c, st)
	}

	resp, err := s.engine.Response(ctx, normalized)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return validationError("request body is required")
		}
		return validationError(err.Error())
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return validationError("request body must contain a single JSON object")
	}
	return nil
}

func validationError(message string) error {
	return &engine.APIError{
		Status:  http.StatusBadRequest,
		Message: message,
		Type:    schema.ErrTypeInvalidRequest,
	}
}

func writeError(c echo.Context, status int, shape schema.ErrorShape) error {
	return c.JSON(status, schema.ErrorBody{Error: shape})
}

func openAIErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		// Headers already sent; a mid-stream failure can only truncate.
		return
	}

	var apiErr *engine.APIError
	if errors.As(err, &apiErr) {
		_ = writeError(c, apiErr.Status, apiErr.Shape())
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = writeError(c, httpErr.Code, schema.ErrorShape{
			Message: fmt.Sprintf("%v", httpErr.Message),
			Type:    schema.ErrTypeInvalidRequest,
		})
		return
	}

	slog.Error("unhandled error", "err", err)
	_ = writeError(c, http.StatusInternalServerError, schema.ErrorShape{
		Message: "internal server error",
		Type:    schema.ErrTypeServer,
	})
}

func printStartupBanner(port int) {
	fmt.Println()
	fmt.Println("llmock ready")
	fmt.Printf("Listening on http://127.0.0.1:%d\n", port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /v1/models")
	fmt.Println("  POST /v1/chat/completions")
	fmt.Println("  POST /v1/completions")
	fmt.Println("  POST /v1/responses")
	fmt.Printf("Example:\n  curl http://127.0.0.1:%d/v1/chat/completions -H 'Content-Type: application/json' -d '{\"model\":\"gpt-4\",\"messages\":[{\"role\":\"user\",\"content\":\"hello\"}]}'\n\n", port)
}
