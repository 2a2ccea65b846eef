package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"llmock/internal/engine"
	"llmock/internal/schema"
	"llmock/internal/stream"
)

// writeStream drains a streaming adapter onto the wire, one event per write.
// Backpressure is honored by preparing the next event only after the previous
// write returned. If the client disconnects the loop stops within one event
// without emitting the terminal marker; at that point the failure is only
// observable in logs and metrics, never on the wire.
func (s *Server) writeStream(c echo.Context, st stream.Stream) error {
	writer := c.Response().Writer
	flusher, ok := writer.(http.Flusher)
	if !ok {
		slog.Error("http writer does not support flushing")
		return &engine.APIError{
			Status:  http.StatusInternalServerError,
			Message: "server does not support streaming responses",
			Type:    schema.ErrTypeServer,
		}
	}

	header := c.Response().Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	delay := s.cfg.Stream.Delay.Std()

	activeStreams.Inc()
	defer activeStreams.Dec()

	first := true
	for {
		event, ok := st.Next()
		if !ok {
			return nil
		}

		if !first && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				streamAbortsTotal.Inc()
				slog.Debug("stream cancelled during delay", "uri", c.Request().RequestURI)
				return nil
			case <-timer.C:
			}
		}
		first = false

		select {
		case <-ctx.Done():
			streamAbortsTotal.Inc()
			slog.Debug("client disconnected mid-stream", "uri", c.Request().RequestURI)
			return nil
		default:
		}

		if _, err := writer.Write(event); err != nil {
			streamAbortsTotal.Inc()
			slog.Debug("stream write failed", "uri", c.Request().RequestURI, "err", err)
			return nil
		}
		flusher.Flush()
		streamEventsTotal.Inc()
	}
}
