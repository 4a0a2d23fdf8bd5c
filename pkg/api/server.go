package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cbodonnell/rewind/pkg/api/handlers"
	"github.com/cbodonnell/rewind/pkg/api/middleware"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/queue"
	"github.com/cbodonnell/rewind/pkg/repositories"
	"github.com/cbodonnell/rewind/pkg/state"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
	tls    *TLSConfig
}

type TLSConfig struct {
	CertFile string
	KeyFile  string
}

type NewAPIServerOptions struct {
	Port          int
	TLS           *TLSConfig
	Token         string
	CommandQueue  queue.Queue
	StatusManager state.StatusManager
	Repository    repositories.Repository
	// Companions serves the companion websocket when set.
	Companions http.Handler
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
		tls:    opts.TLS,
	}
}

// NewRouter builds the API routes. Handlers never touch the simulation:
// commands go through the queue and status is read from the status manager.
func NewRouter(opts NewAPIServerOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging, middleware.CORS)

	authed := r.NewRoute().Subrouter()
	authed.Use(middleware.NewTokenMiddleware(opts.Token))
	authed.HandleFunc("/status", handlers.HandleGetStatus(opts.StatusManager)).Methods(http.MethodGet, http.MethodOptions)
	authed.HandleFunc("/commands/{command}", handlers.HandleSubmitCommand(opts.CommandQueue)).Methods(http.MethodPost, http.MethodOptions)
	if opts.Repository != nil {
		authed.HandleFunc("/sessions/{sessionID}/snapshots", handlers.HandleListSnapshots(opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
		authed.HandleFunc("/sessions/{sessionID}/snapshots/latest", handlers.HandleLatestSnapshot(opts.Repository)).Methods(http.MethodGet, http.MethodOptions)
	}
	if opts.Companions != nil {
		r.Handle("/companion", opts.Companions).Methods(http.MethodGet)
	}
	return r
}

// Start starts the APIServer
func (s *APIServer) Start() {
	var listenAndServe func() error
	if s.tls != nil {
		log.Info("API server listening on %s with TLS", s.server.Addr)
		listenAndServe = func() error {
			return s.server.ListenAndServeTLS(s.tls.CertFile, s.tls.KeyFile)
		}
	} else {
		log.Info("API server listening on %s", s.server.Addr)
		listenAndServe = s.server.ListenAndServe
	}
	if err := listenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
