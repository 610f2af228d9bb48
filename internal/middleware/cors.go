// Package middleware implements the per-request pipeline of spec.md
// §4.9: CORS, latency injection, error simulation, authentication,
// RBAC, request logging, and panic recovery.
package middleware

import "net/http"

// CORS answers preflight OPTIONS requests with 204 and tags every
// response with permissive cross-origin headers, adapted from the
// teacher's handleCORS.
func CORS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
