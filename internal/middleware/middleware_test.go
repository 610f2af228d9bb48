package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/authsvc"
	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	records map[string]query.Record
}

func (f fakeFetcher) Get(resource string, id interface{}) query.Record {
	return f.records[resource]
}

type fakeAuthenticator struct {
	subject authsvc.Subject
}

func (f fakeAuthenticator) Verify(token string) (authsvc.Subject, bool) {
	if token == "good" {
		return f.subject, true
	}
	return authsvc.Subject{}, false
}

func TestRBACDeniesUnauthenticated(t *testing.T) {
	resource := config.Resource{Name: "settings", AccessControl: config.Access{config.ActionList: {"admin"}}}
	handler := RBACForResource(fakeFetcher{}, resource, config.ActionList)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/settings", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBACAllowsMatchingRole(t *testing.T) {
	resource := config.Resource{Name: "settings", AccessControl: config.Access{config.ActionList: {"admin"}}}
	auth := fakeAuthenticator{subject: authsvc.Subject{Role: "admin"}}

	router := mux.NewRouter()
	router.Handle("/settings", Auth(auth, "Authorization")(RBACForResource(fakeFetcher{}, resource, config.ActionList)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
	))).Methods("GET")

	req := httptest.NewRequest("GET", "/settings", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRBACOwnerResolution(t *testing.T) {
	resource := config.Resource{Name: "posts", OwnedBy: "userId", AccessControl: config.Access{config.ActionUpdate: {"owner"}}}
	fetcher := fakeFetcher{records: map[string]query.Record{"posts": {"id": 1.0, "userId": 10.0}}}
	auth := fakeAuthenticator{subject: authsvc.Subject{ID: 10.0}}

	router := mux.NewRouter()
	router.Handle("/posts/{id}", Auth(auth, "Authorization")(RBACForResource(fetcher, resource, config.ActionUpdate)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
	))).Methods("PATCH")

	req := httptest.NewRequest("PATCH", "/posts/1", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoverCatchesPanic(t *testing.T) {
	handler := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSHandlesPreflight(t *testing.T) {
	handler := CORS(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("OPTIONS", "/users", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
