package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/ghsnap/pkg/domain/model"
)

// LoggingMiddleware returns a middleware that logs HTTP requests
func LoggingMiddleware(ctx context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			logger := ctxlog.From(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("HTTP request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// writeError classifies err and writes the JSON error response with the
// matching HTTP status
func writeError(w http.ResponseWriter, err error) {
	report := model.ClassifyError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusForKind(report.Kind))

	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": report.Message,
		"kind":  string(report.Kind),
	}); err != nil {
		// Can't get context here, so use background context
		ctxlog.From(context.Background()).Error("Failed to encode error response", "error", err)
	}
}

// statusForKind maps a classified failure to the HTTP status of this surface
func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrorKindInvalidArgument:
		return http.StatusBadRequest
	case model.ErrorKindUnauthorized:
		return http.StatusUnauthorized
	case model.ErrorKindForbidden:
		return http.StatusForbidden
	case model.ErrorKindNotFound:
		return http.StatusNotFound
	case model.ErrorKindUpstreamStatus, model.ErrorKindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
