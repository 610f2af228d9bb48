package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/database"
	"github.com/alexberriman/pretendo-sub001/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() config.Document {
	doc := config.Document{
		Resources: []config.Resource{
			{
				Name:   "posts",
				Fields: []config.Field{{Name: "title", Type: config.FieldString, Required: true}},
				Relationships: []config.Relationship{
					{Name: "author", Type: config.RelBelongsTo, Resource: "users", ForeignKey: "userId"},
				},
			},
			{
				Name:   "users",
				Fields: []config.Field{{Name: "name", Type: config.FieldString}},
				Relationships: []config.Relationship{
					{Name: "posts", Type: config.RelHasMany, Resource: "posts", ForeignKey: "userId"},
				},
			},
		},
		Routes: []config.Route{
			{Method: "GET", Path: "/status", Type: "json", Response: map[string]interface{}{"ok": true, "caller": "{name}"}},
		},
	}
	doc.ApplyDefaults()
	return doc
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	doc := testDocument()
	db, err := database.New(doc, persistence.NewMemory())
	require.Nil(t, err)
	return New(Builder{Document: doc, DB: db})
}

func TestCreateThenListResource(t *testing.T) {
	s := newTestServer(t)

	createReq := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"name":"Alice"}`))
	createRec := httptest.NewRecorder()
	s.router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	listReq := httptest.NewRequest(http.MethodGet, "/users", nil)
	listRec := httptest.NewRecorder()
	s.router.ServeHTTP(listRec, listReq)
	require.Equal(t, http.StatusOK, listRec.Code)

	var body struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Alice", body.Data[0]["name"])
}

func TestGetMissingResourceReturnsNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/users/999", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRelationRouteReturnsRelatedRecords(t *testing.T) {
	s := newTestServer(t)

	userRec := httptest.NewRecorder()
	s.router.ServeHTTP(userRec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"name":"Bob"}`)))
	var user struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(userRec.Body.Bytes(), &user))

	postBody, _ := json.Marshal(map[string]interface{}{"title": "hello", "userId": user.Data["id"]})
	postRec := httptest.NewRecorder()
	s.router.ServeHTTP(postRec, httptest.NewRequest(http.MethodPost, "/posts", bytes.NewBuffer(postBody)))
	require.Equal(t, http.StatusCreated, postRec.Code)

	relatedRec := httptest.NewRecorder()
	idStr := formatID(user.Data["id"])
	s.router.ServeHTTP(relatedRec, httptest.NewRequest(http.MethodGet, "/users/"+idStr+"/posts", nil))
	require.Equal(t, http.StatusOK, relatedRec.Code)

	var related struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(relatedRec.Body.Bytes(), &related))
	require.Len(t, related.Data, 1)
	assert.Equal(t, "hello", related.Data[0]["title"])
}

func TestDeleteThenGetReturns404(t *testing.T) {
	s := newTestServer(t)
	createRec := httptest.NewRecorder()
	s.router.ServeHTTP(createRec, httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString(`{"name":"Carol"}`)))
	var created struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))
	idStr := formatID(created.Data["id"])

	deleteRec := httptest.NewRecorder()
	s.router.ServeHTTP(deleteRec, httptest.NewRequest(http.MethodDelete, "/users/"+idStr, nil))
	assert.Equal(t, http.StatusNoContent, deleteRec.Code)

	getRec := httptest.NewRecorder()
	s.router.ServeHTTP(getRec, httptest.NewRequest(http.MethodGet, "/users/"+idStr, nil))
	assert.Equal(t, http.StatusNotFound, getRec.Code)
}

func TestJSONCustomRouteLeavesUnknownPlaceholders(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "{name}", body["caller"])
}

func TestRootHandlerListsResources(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Resources []string `json:"resources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.ElementsMatch(t, []string{"posts", "users"}, body.Resources)
}

func TestDocsHandlerReturnsOpenAPIDocument(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/__docs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "3.0.3", body["openapi"])
}

func formatID(id interface{}) string {
	raw, _ := json.Marshal(id)
	return string(bytes.Trim(raw, `"`))
}
