// Package web is the HTTP transport for the notes service: routing, the
// session cookie middleware, and the mapping of service results onto status
// codes and JSON bodies.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/dkovalev/notelist/internal/logging"
	"github.com/dkovalev/notelist/internal/server/config"
	"github.com/dkovalev/notelist/internal/server/services"
	"github.com/gorilla/mux"
)

type Server struct {
	address         string
	users           *services.UserService
	notes           *services.NoteService
	logger          logging.Logger
	sessionValidity time.Duration
}

func NewServer(cfg *config.Config, l logging.Logger, us *services.UserService, ns *services.NoteService) (*Server, error) {
	return &Server{
		address:         cfg.EndpointAddrHTTP,
		logger:          l.With("module", "http_server"),
		users:           us,
		notes:           ns,
		sessionValidity: cfg.SessionValidityDuration,
	}, nil
}

// Router wires all routes and middleware. The /notes subtree sits behind
// requireAuth; everything else is reachable anonymously.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.logMiddleware)
	r.Use(metricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	notes := r.PathPrefix("/notes").Subrouter()
	notes.Use(s.requireAuth)
	notes.HandleFunc("", s.handleListNotes).Methods(http.MethodGet)
	notes.HandleFunc("", s.handleCreateNote).Methods(http.MethodPost)
	notes.HandleFunc("/{id:[0-9]+}", s.handleGetNote).Methods(http.MethodGet)
	notes.HandleFunc("/{id:[0-9]+}", s.handleUpdateNote).Methods(http.MethodPut)
	notes.HandleFunc("/{id:[0-9]+}", s.handleDeleteNote).Methods(http.MethodDelete)

	return r
}

func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
