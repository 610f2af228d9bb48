package middleware

import (
	"context"
	"net/http"

	"github.com/alexberriman/pretendo-sub001/internal/authsvc"
)

type contextKeyType struct{}

var subjectContextKey = &contextKeyType{}

// Authenticator extracts and verifies the bearer token from a request.
// It is satisfied by *authsvc.Service.
type Authenticator interface {
	Verify(token string) (authsvc.Subject, bool)
}

// Auth resolves the bearer token named by headerName, if present, and
// attaches the resulting subject to the request context. It never
// rejects a request by itself — that is RBAC's job (spec.md §4.8). A
// token that is supplied but invalid or expired is treated the same as
// no token: downstream RBAC sees an unauthenticated request.
func Auth(auth Authenticator, headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = "Authorization"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(headerName)
			if header != "" {
				if token, ok := authsvc.ExtractToken(header); ok {
					if subject, ok := auth.Verify(token); ok {
						ctx := context.WithValue(r.Context(), subjectContextKey, &subject)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SubjectFromContext returns the authenticated subject attached by
// Auth, or nil if the request is unauthenticated.
func SubjectFromContext(ctx context.Context) *authsvc.Subject {
	subject, _ := ctx.Value(subjectContextKey).(*authsvc.Subject)
	return subject
}
