// Package server hosts the HTTP/JSON gateway for the command queue and
// the application catalog, plus the websocket outcome stream.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/entl/botdeck/internal/health"
	"github.com/entl/botdeck/internal/session"
	"github.com/entl/botdeck/internal/storage"
	"github.com/entl/botdeck/internal/system"
)

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// Server is the botdeck HTTP gateway.
type Server struct {
	httpServer *http.Server
	svc        *session.Service
	store      *storage.DB
	sys        *system.Service
	health     *health.Registry
	config     Config
}

// New creates the gateway and wires its routes.
func New(cfg Config, svc *session.Service, store *storage.DB, sys *system.Service) *Server {
	s := &Server{
		svc:    svc,
		store:  store,
		sys:    sys,
		config: cfg,
	}

	mux := http.NewServeMux()

	// Command queue actions
	mux.HandleFunc("POST /api/v1/queue", s.handleSubmit)
	mux.HandleFunc("GET /api/v1/queue", s.handleQueueSnapshot)
	mux.HandleFunc("DELETE /api/v1/queue", s.handleClearQueue)
	mux.HandleFunc("POST /api/v1/queue/execute", s.handleExecute)
	mux.HandleFunc("GET /api/v1/queue/history", s.handleHistory)

	// Application catalog
	mux.HandleFunc("GET /api/v1/apps", s.handleListApps)
	mux.HandleFunc("GET /api/v1/apps/search", s.handleSearch)
	mux.HandleFunc("GET /api/v1/apps/suggest", s.handleSuggest)

	// Live outcome stream
	mux.Handle("GET /api/v1/stream", newWebSocketHandler(svc))

	// Introspection
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /ping", s.handlePing)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      loggingMiddleware(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s.health = health.NewRegistry("botdeck", cfg.Version)
	s.health.RegisterFunc("storage", func(ctx context.Context) health.CheckResult {
		if err := store.Ping(ctx); err != nil {
			return health.CheckResult{Status: health.StatusUnhealthy, Message: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: "database reachable"}
	})
	s.health.RegisterFunc("sessions", func(ctx context.Context) health.CheckResult {
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("%d resident session(s)", len(svc.Manager().List())),
		}
	})

	return s
}

// loggingMiddleware adds request logging.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		log.Printf("http: %s %s -> %d (%s)", r.Method, r.URL.Path, wrapper.statusCode, time.Since(start))
	})
}

// responseWrapper wraps http.ResponseWriter to capture the status code.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack delegates to the wrapped writer so the websocket upgrade works
// behind the logging middleware.
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying response writer does not support hijacking")
	}
	return hj.Hijack()
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *responseWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	log.Printf("botdeck gateway listening on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// StartAsync starts the server in the background.
func (s *Server) StartAsync() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	log.Printf("stopping botdeck gateway")
	return s.httpServer.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.httpServer.Addr
}

// Handler exposes the routed handler, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
