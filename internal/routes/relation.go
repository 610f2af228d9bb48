package routes

import (
	"net/http"

	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/database"
	"github.com/alexberriman/pretendo-sub001/internal/query"
	"github.com/gorilla/mux"
)

// registerRelationRoute wires GET /<name>/:id/<related> for one
// belongsTo/hasMany relationship, per spec.md §4.10. Access control
// rides on the owning resource's "get" action, since the route reads
// the owning record to traverse the relationship from.
func (s *Server) registerRelationRoute(resource config.Resource, handle *database.ResourceHandle, rel config.Relationship) {
	path := "/" + resource.Name + "/{id}/" + rel.Name
	s.handle(path, "GET", resource, config.ActionGet, s.relationHandler(handle, rel.Name))
}

func (s *Server) relationHandler(handle *database.ResourceHandle, relationshipName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := query.CoerceID(mux.Vars(r)["id"])
		opts := query.Parse(r.URL.Query())

		result := handle.FindRelated(relationshipName, id, opts)
		related, err := result.Unwrap()
		if err != nil {
			writeError(w, err)
			return
		}
		writeList(w, r, related.Records, related.Pagination)
	}
}
