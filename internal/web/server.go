package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by /health. Set at build time with -ldflags.
var Version = "dev"

// Config holds server configuration
type Config struct {
	Port        int
	CORSOrigins []string // origins allowed on /api/v1, defaults to any
}

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *Config
	hub        *Hub // live sessions, may be nil
	api        chi.Router

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new HTTP server. hub may be nil when live sessions
// are not served.
func NewServer(cfg *Config, hub *Hub) *Server {
	router := chi.NewRouter()

	srv := &Server{
		router: router,
		config: cfg,
		hub:    hub,
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		sessions := 0
		if s.hub != nil {
			sessions = s.hub.Count()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintf(w, `{"status":"ok","version":%q,"sessions":%d}`, Version, sessions); err != nil {
			_ = err // Client disconnected
		}
	})

	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) corsOrigins() []string {
	if len(s.config.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return s.config.CORSOrigins
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.mu.Lock()
	s.listener = listener
	s.httpServer = httpServer
	s.mu.Unlock()

	err = httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop tells live sessions to go away and gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Broadcast(ShutdownEvent())
		s.hub.Shutdown()
	}
	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer != nil {
		return httpServer.Shutdown(ctx)
	}
	return nil
}

// Addr returns the listening address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// BaseURL returns the server's base URL
func (s *Server) BaseURL() string {
	if addr := s.Addr(); addr != "" {
		return fmt.Sprintf("http://%s", addr)
	}
	return fmt.Sprintf("http://localhost:%d", s.config.Port)
}

// RegisterStatsHandler registers the dashboard page, the panel partial and
// the JSON API. The API is CORS enabled.
func (s *Server) RegisterStatsHandler(handler interface{}) {
	type statsHandler interface {
		Page(w http.ResponseWriter, r *http.Request)
		Partial(w http.ResponseWriter, r *http.Request)
		GetStats(w http.ResponseWriter, r *http.Request)
	}

	if h, ok := handler.(statsHandler); ok {
		s.router.Get("/", h.Page)
		s.router.Get("/partials/stats", h.Partial)
		s.apiRouter().Get("/stats", h.GetStats)
	}
}

// RegisterCyclesHandler serves the fetch cycle history under /api/v1/cycles.
func (s *Server) RegisterCyclesHandler(handler interface{}) {
	type cyclesHandler interface {
		ListCycles(w http.ResponseWriter, r *http.Request)
	}

	if h, ok := handler.(cyclesHandler); ok {
		s.apiRouter().Get("/cycles", h.ListCycles)
	}
}

// apiRouter returns the CORS enabled /api/v1 subrouter, mounting it on first use.
func (s *Server) apiRouter() chi.Router {
	if s.api == nil {
		api := chi.NewRouter()
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins(),
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		s.router.Mount("/api/v1", api)
		s.api = api
	}
	return s.api
}

// RegisterLiveHandler serves live sessions on /ws.
func (s *Server) RegisterLiveHandler(handler http.Handler) {
	s.router.Get("/ws", handler.ServeHTTP)
}

// Router returns the underlying Chi router for external route mounting.
func (s *Server) Router() *chi.Mux {
	return s.router
}
