package routes

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alexberriman/pretendo-sub001/internal/authsvc"
	"github.com/alexberriman/pretendo-sub001/internal/config"
	"github.com/alexberriman/pretendo-sub001/internal/database"
	"github.com/alexberriman/pretendo-sub001/internal/logging"
	"github.com/alexberriman/pretendo-sub001/internal/middleware"
	"github.com/alexberriman/pretendo-sub001/internal/openapi"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// shutdownGrace bounds how long Stop waits for in-flight requests to
// finish, per spec.md §5.5.
const shutdownGrace = 30 * time.Second

// Server synthesizes and serves the full HTTP surface of spec.md
// §4.10 from a configuration document, mirroring the constructor
// shape of the teacher's backend.Builder/backend.Backend pair.
type Server struct {
	doc    config.Document
	db     *database.Database
	auth   *authsvc.Service
	router *mux.Router
	logs   *logging.Manager

	httpServer *http.Server
	listener   net.Listener
}

// Builder collects everything Server needs to start, mirroring
// backend.Builder's "mandatory fields plus optional tuning" shape.
type Builder struct {
	Document  config.Document
	DB        *database.Database
	AuthUsers authsvc.UserSource
}

// New builds a Server and registers every route the document implies.
// It does not bind a socket; call Start for that.
func New(b Builder) *Server {
	s := &Server{
		doc:    b.Document,
		db:     b.DB,
		router: mux.NewRouter(),
		logs:   logging.NewManager(b.Document.Options.LogMaxEntries),
	}

	if b.Document.Options.Auth.Enabled && b.AuthUsers != nil {
		ttl := time.Duration(b.Document.Options.Auth.TokenTTLSeconds) * time.Second
		s.auth = authsvc.New(b.AuthUsers, ttl)
	}

	s.registerRoutes()
	s.router.Use(s.middlewareChain()...)
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/", s.rootHandler).Methods("GET")
	s.router.HandleFunc("/__docs", s.docsHandler).Methods("GET")

	for _, resource := range s.doc.Resources {
		s.registerResourceRoutes(resource)
	}
	s.registerAdminRoutes()
	s.registerAuthRoutes()
	s.registerCustomRoutes()
}

// middlewareChain orders the pipeline from spec.md §4.9: structured
// logging first (so every later middleware can log), then response
// compression, CORS, latency/error injection, authentication, and
// finally panic recovery and request-log capture at the boundary.
func (s *Server) middlewareChain() []mux.MiddlewareFunc {
	compress := func(next http.Handler) http.Handler {
		return handlers.CompressHandler(next)
	}

	corsEnabled := s.doc.Options.CORSEnabled == nil || *s.doc.Options.CORSEnabled
	logRequests := s.doc.Options.LogRequests == nil || *s.doc.Options.LogRequests

	chain := []mux.MiddlewareFunc{
		logging.Middleware,
		compress,
		middleware.CORS(corsEnabled),
		middleware.Latency(s.doc.Options.Latency),
		middleware.ErrorSimulation(s.doc.Options.ErrorSimulation),
		poweredByMiddleware,
	}
	if s.auth != nil {
		chain = append(chain, middleware.Auth(s.auth, s.doc.Options.Auth.HeaderName))
	}
	chain = append(chain,
		middleware.Recover,
		middleware.RequestLogger(s.logs, logRequests),
	)
	return chain
}

func poweredByMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Powered-By", "Pretendo")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	names := make([]string, len(s.doc.Resources))
	for i, res := range s.doc.Resources {
		names[i] = res.Name
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":          "pretendo",
		"resources":     names,
		"documentation": "/__docs",
	})
}

func (s *Server) docsHandler(w http.ResponseWriter, r *http.Request) {
	if s.doc.Options.Docs.RequireAuth && middleware.SubjectFromContext(r.Context()) == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"status": http.StatusUnauthorized, "message": "authentication required"})
		return
	}
	if r.URL.Query().Get("format") == "yaml" {
		body, err := openapi.GenerateYAML(s.doc)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"status": http.StatusInternalServerError, "message": "cannot render documentation"})
			return
		}
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}
	writeJSON(w, http.StatusOK, openapi.Generate(s.doc))
}

// Logs exposes the request-log manager for admin/diagnostic use.
func (s *Server) Logs() *logging.Manager {
	return s.logs
}

// Router exposes the underlying mux.Router, primarily for tests and
// the AWS Lambda adapter.
func (s *Server) Router() *mux.Router {
	return s.router
}

// StartResult carries the bound address on success.
type StartResult struct {
	URL string
}

// Start binds host:port and begins serving in the background. It
// returns once the listener is bound (or the bind failed), matching
// spec.md §4.12's "wait for a listening signal or a bind error".
func (s *Server) Start(host string, port int) (StartResult, error) {
	if host == "" {
		host = s.doc.Options.Host
	}
	if port == 0 {
		port = s.doc.Options.Port
	}
	addr := fmt.Sprintf("%s:%d", host, port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return StartResult{}, fmt.Errorf("cannot bind %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.router}

	go func() {
		_ = s.httpServer.Serve(listener)
	}()

	return StartResult{URL: s.URL()}, nil
}

// URL returns the address the server is (or will be) reachable at.
func (s *Server) URL() string {
	if s.listener != nil {
		return "http://" + s.listener.Addr().String()
	}
	return fmt.Sprintf("http://%s:%d", s.doc.Options.Host, s.doc.Options.Port)
}

// Stop closes the listener and waits up to shutdownGrace for in-flight
// requests to drain before forcing a close.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
