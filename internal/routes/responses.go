// Package routes synthesizes the HTTP surface of spec.md §4.10 from a
// parsed configuration document: CRUD and relation routes per
// resource, the admin and auth endpoints, and operator-declared custom
// routes.
package routes

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/alexberriman/pretendo-sub001/internal/resultx"
	"github.com/goccy/go-json"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeItem(w http.ResponseWriter, status int, record query.Record) {
	writeJSON(w, status, map[string]interface{}{"data": record})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// writeList writes the list envelope of spec.md §4.10, plus the
// mirrored Link header and X-Total-Count header.
func writeList(w http.ResponseWriter, r *http.Request, records []query.Record, pagination query.Pagination) {
	if records == nil {
		records = []query.Record{}
	}
	links := paginationLinks(r, pagination)

	meta := map[string]interface{}{
		"pagination": map[string]interface{}{
			"currentPage": pagination.CurrentPage,
			"perPage":     pagination.PerPage,
			"totalPages":  pagination.TotalPages,
			"totalItems":  pagination.TotalItems,
			"links":       links,
		},
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(pagination.TotalItems))
	if linkHeader := buildLinkHeader(links); linkHeader != "" {
		w.Header().Set("Link", linkHeader)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": records, "meta": meta})
}

func paginationLinks(r *http.Request, p query.Pagination) map[string]string {
	links := map[string]string{"first": pageURL(r, 1), "last": pageURL(r, p.TotalPages)}
	if p.CurrentPage > 1 {
		links["prev"] = pageURL(r, p.CurrentPage-1)
	}
	if p.CurrentPage < p.TotalPages {
		links["next"] = pageURL(r, p.CurrentPage+1)
	}
	return links
}

func pageURL(r *http.Request, page int) string {
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := *r.URL
	u.RawQuery = q.Encode()
	return u.String()
}

func buildLinkHeader(links map[string]string) string {
	order := []string{"first", "prev", "next", "last"}
	var parts []string
	for _, rel := range order {
		if url, ok := links[rel]; ok {
			parts = append(parts, fmt.Sprintf(`<%s>; rel="%s"`, url, rel))
		}
	}
	return strings.Join(parts, ", ")
}

// writeError maps a resultx.Error to its HTTP status per spec.md §7
// and writes the {status, message, code?, details?} body shape.
func writeError(w http.ResponseWriter, err *resultx.Error) {
	status := statusForKind(err.Kind)
	body := map[string]interface{}{"status": status, "message": err.Message}
	if err.Code != "" {
		body["code"] = err.Code
	}
	if len(err.Details) > 0 {
		body["details"] = err.Details
	}
	writeJSON(w, status, body)
}

func statusForKind(kind resultx.Kind) int {
	switch kind {
	case resultx.KindNotFound:
		return http.StatusNotFound
	case resultx.KindConflict:
		return http.StatusBadRequest
	case resultx.KindValidation, resultx.KindBadRequest:
		return http.StatusBadRequest
	case resultx.KindAuthUnauthorized:
		return http.StatusUnauthorized
	case resultx.KindAuthForbidden:
		return http.StatusForbidden
	case resultx.KindExpansionDepth:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
