package middleware

import (
	"net/http"

	"github.com/alexberriman/pretendo-sub001/internal/authsvc"
	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/gorilla/mux"
)

// RecordFetcher fetches a single record for the "owner" access check.
type RecordFetcher interface {
	Get(resource string, id interface{}) query.Record
}

// RBACForResource enforces the access-control policy of spec.md §4.8
// for one resource/action pair. The route synthesizer wraps each
// generated CRUD handler with an instance bound to that route's own
// resource and action, since every resource gets its own literal
// route rather than a templated "{resource}" pattern.
func RBACForResource(fetcher RecordFetcher, resource config.Resource, action config.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := SubjectFromContext(r.Context())

			var record query.Record
			if id, hasID := mux.Vars(r)["id"]; hasID {
				record = fetcher.Get(resource.Name, query.CoerceID(id))
			}

			switch authsvc.Authorize(resource.AccessControl, action, resource, subject, record) {
			case authsvc.Allow:
				next.ServeHTTP(w, r)
			case authsvc.DenyUnauthenticated:
				http.Error(w, `{"status":401,"message":"authentication required"}`, http.StatusUnauthorized)
			default:
				http.Error(w, `{"status":403,"message":"forbidden"}`, http.StatusForbidden)
			}
		})
	}
}
