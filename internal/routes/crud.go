package routes

import (
	"net/http"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/database"
	"github.com/alexberriman/pretendo-sub001/internal/middleware"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

// registerResourceRoutes wires the six CRUD routes of spec.md §4.10
// for one resource, each individually guarded by RBAC bound to its
// own action.
func (s *Server) registerResourceRoutes(resource config.Resource) {
	handle, ok := s.db.Resource(resource.Name)
	if !ok {
		return
	}
	path := "/" + resource.Name

	s.handle(path, "GET", resource, config.ActionList, s.listHandler(handle))
	s.handle(path+"/{id}", "GET", resource, config.ActionGet, s.getHandler(handle))
	s.handle(path, "POST", resource, config.ActionCreate, s.createHandler(handle))
	s.handle(path+"/{id}", "PUT", resource, config.ActionUpdate, s.updateHandler(handle))
	s.handle(path+"/{id}", "PATCH", resource, config.ActionUpdate, s.patchHandler(handle))
	s.handle(path+"/{id}", "DELETE", resource, config.ActionDelete, s.deleteHandler(handle))

	for _, rel := range resource.Relationships {
		if rel.Type == config.RelBelongsTo || rel.Type == config.RelHasMany {
			s.registerRelationRoute(resource, handle, rel)
		}
	}
}

// handle registers a route wrapped with RBAC bound to resource/action.
// Authentication, logging, CORS, latency, and error-simulation are
// applied once at the router level by Server.middlewareChain.
func (s *Server) handle(path, method string, resource config.Resource, action config.Action, h http.HandlerFunc) {
	wrapped := middleware.RBACForResource(s.db, resource, action)(h)
	s.router.Handle(path, wrapped).Methods(method)
}

func (s *Server) listHandler(handle *database.ResourceHandle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := query.Parse(r.URL.Query())
		opts.MaxPerPage = s.doc.Options.MaxPageSize
		if opts.PerPage == 0 {
			opts.PerPage = s.doc.Options.DefaultPageSize
		}
		expandPaths := query.ParseExpand(r.URL.Query())

		result := handle.FindAll(opts, expandPaths)
		records, err := result.Unwrap()
		if err != nil {
			writeError(w, err)
			return
		}
		writeList(w, r, records.Records, records.Pagination)
	}
}

func (s *Server) getHandler(handle *database.ResourceHandle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := query.CoerceID(mux.Vars(r)["id"])
		expandPaths := query.ParseExpand(r.URL.Query())

		result := handle.FindByID(id, expandPaths)
		rec, err := result.Unwrap()
		if err != nil {
			writeError(w, err)
			return
		}
		writeItem(w, http.StatusOK, rec)
	}
}

func (s *Server) createHandler(handle *database.ResourceHandle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input query.Record
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"status": http.StatusBadRequest, "message": "invalid JSON body"})
			return
		}

		result := handle.Create(r.Context(), input, subjectID(r))
		rec, err := result.Unwrap()
		if err != nil {
			writeError(w, err)
			return
		}
		writeItem(w, http.StatusCreated, rec)
	}
}

func (s *Server) updateHandler(handle *database.ResourceHandle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := query.CoerceID(mux.Vars(r)["id"])
		var input query.Record
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"status": http.StatusBadRequest, "message": "invalid JSON body"})
			return
		}

		result := handle.Update(r.Context(), id, input, subjectID(r))
		rec, err := result.Unwrap()
		if err != nil {
			writeError(w, err)
			return
		}
		writeItem(w, http.StatusOK, rec)
	}
}

func (s *Server) patchHandler(handle *database.ResourceHandle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := query.CoerceID(mux.Vars(r)["id"])
		var input query.Record
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]interface{}{"status": http.StatusBadRequest, "message": "invalid JSON body"})
			return
		}

		result := handle.Patch(r.Context(), id, input, subjectID(r))
		rec, err := result.Unwrap()
		if err != nil {
			writeError(w, err)
			return
		}
		writeItem(w, http.StatusOK, rec)
	}
}

func (s *Server) deleteHandler(handle *database.ResourceHandle) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := query.CoerceID(mux.Vars(r)["id"])
		result := handle.Delete(r.Context(), id)
		if _, err := result.Unwrap(); err != nil {
			writeError(w, err)
			return
		}
		writeNoContent(w)
	}
}

func subjectID(r *http.Request) interface{} {
	subject := middleware.SubjectFromContext(r.Context())
	if subject == nil {
		return nil
	}
	return subject.ID
}
