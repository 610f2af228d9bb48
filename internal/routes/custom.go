package routes

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"regexp"
	"strings"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/database"
	"github.com/alexberriman/pretendo-sub001/internal/logging"
	"github.com/alexberriman/pretendo-sub001/internal/middleware"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/dop251/goja"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

var placeholderPattern = regexp.MustCompile(`\{:?([A-Za-z0-9_]+)\}`)

// registerCustomRoutes wires every operator-declared route of spec.md
// §4.11, applying each route's own auth override rather than the
// global rule.
func (s *Server) registerCustomRoutes() {
	for _, route := range s.doc.Routes {
		route := route
		var h http.HandlerFunc
		switch route.Type {
		case "script":
			h = s.scriptRouteHandler(route)
		default:
			h = s.jsonRouteHandler(route)
		}
		s.router.HandleFunc(route.Path, s.withRouteAuth(route, h)).Methods(route.Method)
	}
}

// withRouteAuth applies the route-level auth override of spec.md
// §4.11: {enabled:false} bypasses auth entirely; {enabled:true,
// roles:[...]} requires authentication and, if roles is non-empty and
// lacks "*", membership in one of the listed roles.
func (s *Server) withRouteAuth(route config.Route, next http.HandlerFunc) http.HandlerFunc {
	if route.Auth == nil || !route.Auth.Enabled {
		return next
	}
	roles := route.Auth.Roles
	return func(w http.ResponseWriter, r *http.Request) {
		subject := middleware.SubjectFromContext(r.Context())
		if subject == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"status": http.StatusUnauthorized, "message": "authentication required"})
			return
		}
		if len(roles) > 0 && !containsRole(roles, subject.Role) {
			writeJSON(w, http.StatusForbidden, map[string]interface{}{"status": http.StatusForbidden, "message": "forbidden"})
			return
		}
		next(w, r)
	}
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == "*" || r == role {
			return true
		}
	}
	return false
}

// jsonRouteHandler returns a deep copy of the configured response,
// substituting {:name}/{name} placeholders with the same-named path
// parameter, leaving unknown names intact.
func (s *Server) jsonRouteHandler(route config.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		body := substitutePlaceholders(deepCopyJSON(route.Response), vars)
		writeJSON(w, http.StatusOK, body)
	}
}

func substitutePlaceholders(value interface{}, vars map[string]string) interface{} {
	switch v := value.(type) {
	case string:
		return placeholderPattern.ReplaceAllStringFunc(v, func(match string) string {
			name := placeholderPattern.FindStringSubmatch(match)[1]
			if replacement, ok := vars[name]; ok {
				return replacement
			}
			return match
		})
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = substitutePlaceholders(val, vars)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = substitutePlaceholders(val, vars)
		}
		return out
	default:
		return v
	}
}

func deepCopyJSON(value map[string]interface{}) map[string]interface{} {
	raw, err := json.Marshal(value)
	if err != nil {
		return map[string]interface{}{}
	}
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return out
}

// scriptHost is the db façade exposed to a sandboxed script, per
// spec.md §4.11. Its methods are bound into a plain map[string]interface{}
// (see asObject) rather than exposed via goja's reflection-based struct
// binding: reflect never permits invoking an unexported method, even
// from the defining package, so lowercase JS-convention names like
// getResourceById could never be reached as exported Go method names
// without renaming them out of their spec-mandated casing.
type scriptHost struct {
	db *database.Database
}

// asObject returns the façade as the host object goja binds under
// "db", keyed by the exact JS method names spec.md §4.11 names.
func (h scriptHost) asObject() map[string]interface{} {
	return map[string]interface{}{
		"getResourceById":     h.getResourceById,
		"getResources":        h.getResources,
		"createResource":      h.createResource,
		"updateResource":      h.updateResource,
		"deleteResource":      h.deleteResource,
		"getRelatedResources": h.getRelatedResources,
	}
}

func (h scriptHost) getResourceById(resource string, id interface{}) interface{} {
	handle, ok := h.db.Resource(resource)
	if !ok {
		return nil
	}
	if s, isString := id.(string); isString {
		id = query.CoerceID(s)
	}
	rec, err := handle.FindByID(id, nil).Unwrap()
	if err != nil {
		return nil
	}
	return map[string]interface{}(rec)
}

func (h scriptHost) getResources(resource string) []interface{} {
	handle, ok := h.db.Resource(resource)
	if !ok {
		return nil
	}
	result, err := handle.FindAll(query.Options{Page: 1, PerPage: math.MaxInt32}, nil).Unwrap()
	if err != nil {
		return nil
	}
	out := make([]interface{}, len(result.Records))
	for i, rec := range result.Records {
		out[i] = map[string]interface{}(rec)
	}
	return out
}

func (h scriptHost) createResource(resource string, data map[string]interface{}) interface{} {
	handle, ok := h.db.Resource(resource)
	if !ok {
		return nil
	}
	rec, err := handle.Create(context.Background(), query.Record(data), nil).Unwrap()
	if err != nil {
		return nil
	}
	return map[string]interface{}(rec)
}

func (h scriptHost) updateResource(resource string, id interface{}, data map[string]interface{}) interface{} {
	handle, ok := h.db.Resource(resource)
	if !ok {
		return nil
	}
	rec, err := handle.Patch(context.Background(), id, query.Record(data), nil).Unwrap()
	if err != nil {
		return nil
	}
	return map[string]interface{}(rec)
}

func (h scriptHost) deleteResource(resource string, id interface{}) bool {
	handle, ok := h.db.Resource(resource)
	if !ok {
		return false
	}
	ok2, err := handle.Delete(context.Background(), id).Unwrap()
	if err != nil {
		return false
	}
	return ok2
}

func (h scriptHost) getRelatedResources(resource, relationship string, id interface{}) []interface{} {
	handle, ok := h.db.Resource(resource)
	if !ok {
		return nil
	}
	result, err := handle.FindRelated(relationship, id, query.Options{}).Unwrap()
	if err != nil {
		return nil
	}
	out := make([]interface{}, len(result.Records))
	for i, rec := range result.Records {
		out[i] = map[string]interface{}(rec)
	}
	return out
}

// scriptRouteHandler evaluates an operator-supplied snippet in a
// fresh goja runtime per request, so globals set by one request can
// never leak into another, per spec.md §4.11.
func (s *Server) scriptRouteHandler(route config.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vm := goja.New()
		vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
		log := logging.FromContext(r.Context())

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)

		requestObj := map[string]interface{}{
			"method":  r.Method,
			"path":    r.URL.Path,
			"params":  toStringMap(mux.Vars(r)),
			"query":   toStringMap(flattenQuery(r)),
			"body":    body,
			"headers": toStringMap(flattenHeader(r)),
			"subject": subjectOrNil(r),
		}

		response := &scriptResponse{status: http.StatusOK, headers: map[string]string{}}

		console := map[string]interface{}{
			"log": func(args ...interface{}) {
				log.Info(fmt.Sprint(args...))
			},
		}

		if err := vm.Set("request", requestObj); err != nil {
			writeScriptError(w, err)
			return
		}
		if err := vm.Set("response", response); err != nil {
			writeScriptError(w, err)
			return
		}
		if err := vm.Set("console", console); err != nil {
			writeScriptError(w, err)
			return
		}
		if err := vm.Set("db", scriptHost{db: s.db}.asObject()); err != nil {
			writeScriptError(w, err)
			return
		}

		if _, err := vm.RunString(route.Script); err != nil {
			log.WithError(err).Warn("custom route script failed")
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"status": http.StatusInternalServerError, "message": "script execution failed"})
			return
		}

		for k, v := range response.headers {
			w.Header().Set(k, v)
		}
		writeJSON(w, response.status, response.body)
	}
}

// scriptResponse is the mutable "response" host object a script
// builds up before returning.
type scriptResponse struct {
	status  int
	headers map[string]string
	body    interface{}
}

func (r *scriptResponse) SetStatus(status int) {
	r.status = status
}

func (r *scriptResponse) SetHeader(key, value string) {
	r.headers[key] = value
}

func (r *scriptResponse) SetBody(body interface{}) {
	r.body = body
}

func writeScriptError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"status": http.StatusInternalServerError, "message": fmt.Sprintf("cannot prepare script context: %v", err)})
}

func toStringMap(m map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func flattenQuery(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func flattenHeader(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, v := range r.Header {
		if len(v) > 0 {
			out[strings.ToLower(k)] = v[0]
		}
	}
	return out
}

func subjectOrNil(r *http.Request) interface{} {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == nil {
		return nil
	}
	return *subject
}

