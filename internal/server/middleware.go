package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"llmock/internal/engine"
	"llmock/internal/schema"
)

// apiKeyMiddleware validates the Bearer token on every request. The health
// and metrics endpoints and CORS preflights stay open; when no key is
// configured all requests are allowed. The generation core only ever sees
// requests this decision has already admitted.
func apiKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return next(c)
			}

			req := c.Request()
			if req.Method == http.MethodOptions {
				return next(c)
			}
			switch req.URL.Path {
			case "/health", "/metrics":
				return next(c)
			}

			auth := req.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return authError("Missing API key")
			}
			if strings.TrimPrefix(auth, "Bearer ") != apiKey {
				return authError("Invalid API key")
			}

			return next(c)
		}
	}
}

func authError(message string) error {
	return &engine.APIError{
		Status:  http.StatusUnauthorized,
		Message: message,
		Type:    schema.ErrTypeAuthentication,
	}
}
