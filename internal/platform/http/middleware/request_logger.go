// Package middleware provides gin middlewares shared by all routes.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dino_classifier/internal/platform/logging"
)

// RequestIDHeader carries the per-request identifier.
const RequestIDHeader = "X-Request-ID"

// RequestObserver receives one observation per served request.
type RequestObserver interface {
	ObserveRequest(path, method string, status int, d time.Duration)
}

// RequestLogger assigns a request ID, logs each request with slog and reports it to obs (which may be nil).
// The ID is stored in the request context so handlers and usecases logging with
// slog.*Context emit the same request_id.
func RequestLogger(obs RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Header(RequestIDHeader, id)

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		attrs := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", elapsed.Milliseconds(),
			"client_ip", c.ClientIP(),
			"bytes_in", c.Request.ContentLength,
			"bytes_out", c.Writer.Size(),
		}
		switch {
		case status >= 500:
			slog.Error("request served", attrs...)
		case status >= 400:
			slog.Warn("request served", attrs...)
		default:
			slog.Info("request served", attrs...)
		}

		if obs != nil {
			obs.ObserveRequest(path, c.Request.Method, status, elapsed)
		}
	}
}
