package middleware

import (
	"net/http"
	"time"

	"payment-router/internal/common/logging"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging logs every HTTP request with method, path, status and duration.
// Server errors log at error level, client errors at warn.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		fields := []logging.Field{
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", wrapped.statusCode),
			logging.Int64("duration_ms", duration.Milliseconds()),
			logging.String("remote_addr", r.RemoteAddr),
		}
		if r.URL.RawQuery != "" {
			fields = append(fields, logging.String("query", r.URL.RawQuery))
		}
		if key := r.Header.Get("Idempotency-Key"); key != "" {
			fields = append(fields, logging.String("idempotency_key", key))
		}
		if userID := r.Header.Get("X-User-ID"); userID != "" {
			fields = append(fields, logging.String("user_id", userID))
		}

		switch {
		case wrapped.statusCode >= 500:
			logging.Error("HTTP request completed", nil, fields...)
		case wrapped.statusCode >= 400:
			logging.Warn("HTTP request completed", fields...)
		default:
			logging.Info("HTTP request completed", fields...)
		}
	})
}
