package middleware

import (
	"net/http"

	"github.com/alexberriman/pretendo-sub001/internal/logging"
)

// Recover catches a panic anywhere downstream and converts it into a
// 500 response instead of letting it escape the request handler
// (spec.md §9: "panics must never escape a request handler").
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(r.Context()).WithField("panic", rec).Error("recovered from panic in request handler")
				http.Error(w, `{"status":500,"message":"internal server error"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
