package routes

import (
	"net/http"

	"github.com/alexberriman/pretendo-sub001/internal/authsvc"
	"github.com/goccy/go-json"
)

// registerAuthRoutes wires the login/logout endpoints of spec.md
// §4.10 when authentication is enabled.
func (s *Server) registerAuthRoutes() {
	if s.auth == nil {
		return
	}
	endpoint := s.doc.Options.Auth.LoginEndpoint
	if endpoint == "" {
		endpoint = "/auth/login"
	}
	s.router.HandleFunc(endpoint, s.loginHandler).Methods("POST")
	s.router.HandleFunc("/auth/logout", s.logoutHandler).Methods("POST")
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"status": http.StatusBadRequest, "message": "invalid JSON body"})
		return
	}

	result := s.auth.Authenticate(body.Username, body.Password)
	login, err := result.Unwrap()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     login.Token,
		"user":      login.Subject,
		"expiresAt": login.ExpiresAt,
	})
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	if token, ok := authsvc.ExtractToken(r.Header.Get("Authorization")); ok {
		s.auth.Revoke(token)
	}
	writeNoContent(w)
}
