package routes

import (
	"net/http"

	"github.com/goccy/go-json"
)

// registerAdminRoutes wires the operator-facing reset/backup/restore
// endpoints of spec.md §4.10, §6.
func (s *Server) registerAdminRoutes() {
	s.router.HandleFunc("/__reset", s.resetHandler).Methods("POST")
	s.router.HandleFunc("/__backup", s.backupHandler).Methods("POST")
	s.router.HandleFunc("/__restore", s.restoreHandler).Methods("POST")
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Reset(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) backupHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Label string `json:"label"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	result := s.db.Backup(body.Label)
	id, err := result.Unwrap()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id})
}

func (s *Server) restoreHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"status": http.StatusBadRequest, "message": "id is required"})
		return
	}

	if err := s.db.Restore(body.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}
