package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/serialport/pkg/serial"
	"github.com/m-mizutani/serialport/pkg/utils/logging"
)

// LoggingMiddleware returns a middleware that logs HTTP requests
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := logging.From(ctx).With("request_id", middleware.GetReqID(r.Context()))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
			}()

			next.ServeHTTP(ww, r.WithContext(logging.With(r.Context(), logger)))
		})
	}
}

// errorStatus maps a serial port error to an HTTP status code
func errorStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	switch {
	case serial.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	}

	switch serial.KindOf(err) {
	case serial.KindNoDevice:
		return http.StatusNotFound
	case serial.KindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// handleError writes an error response whose status follows the error kind.
// Server errors are logged and reported to Sentry.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	logger := logging.From(r.Context())

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "status", status)
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
	} else {
		logger.Warn("Request rejected", "error", err, "status", status)
	}

	writeError(w, r, err, status)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	writeJSON(w, r, status, map[string]string{
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Error("Failed to encode response", "error", err)
	}
}
