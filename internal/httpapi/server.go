package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shuru63/skylark-lab-assignment/internal/config"
	"github.com/Shuru63/skylark-lab-assignment/internal/live"
	"github.com/Shuru63/skylark-lab-assignment/internal/logging"
	"github.com/Shuru63/skylark-lab-assignment/internal/store"
	"github.com/Shuru63/skylark-lab-assignment/internal/token"
)

type Server struct {
	cfg      *config.Config
	store    store.Store
	tokens   *token.Service
	live     *live.Registry
	streams  StreamController
	upgrader websocket.Upgrader
	router   chi.Router
}

type Option func(*Server)

// WithStreamController replaces the default logging-only controller.
func WithStreamController(c StreamController) Option {
	return func(s *Server) { s.streams = c }
}

func NewServer(cfg *config.Config, st store.Store, tokens *token.Service, reg *live.Registry, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		tokens:  tokens,
		live:    reg,
		streams: logStreamController{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	if cfg.Auth.ProducerToken == "" {
		logging.Warn().Msg("alert submission endpoint is open: no producer token configured")
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(recoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", requestIDHeader, producerTokenHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: !s.cfg.AllowAnyOrigin(),
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get(s.cfg.Live.Path, s.handleLive)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.With(s.requireUser).Get("/me", s.handleMe)
	})

	r.Route("/api/cameras", func(r chi.Router) {
		r.Use(s.requireUser)
		r.Get("/", s.handleListCameras)
		r.Post("/", s.handleCreateCamera)
		r.Get("/{id}", s.handleGetCamera)
		r.Put("/{id}", s.handleUpdateCamera)
		r.Delete("/{id}", s.handleDeleteCamera)
		r.Post("/{id}/start", s.handleStartCamera)
		r.Post("/{id}/stop", s.handleStopCamera)
	})

	r.Route("/api/alerts", func(r chi.Router) {
		r.With(s.requireUser).Get("/", s.handleListAlerts)
		r.With(s.requireProducer).Post("/", s.handleCreateAlert)
	})

	s.router = r
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.cfg.AllowAnyOrigin() {
		return true
	}
	for _, allowed := range s.cfg.Server.CORSOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
