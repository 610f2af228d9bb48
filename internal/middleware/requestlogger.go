package middleware

import (
	"net/http"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/logging"
)

type statusCapturingWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusCapturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RequestLogger appends one logging.Entry per completed response to
// manager, per spec.md §4.9.
func RequestLogger(manager *logging.Manager, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			capture := &statusCapturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)

			manager.Append(logging.Entry{
				ID:             logging.RequestIDFromContext(r.Context()),
				Timestamp:      start,
				Method:         r.Method,
				URL:            r.URL.String(),
				Status:         capture.status,
				ResponseTimeMS: time.Since(start).Milliseconds(),
				UserAgent:      r.Header.Get("User-Agent"),
				IP:             clientIP(r),
			})
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}
