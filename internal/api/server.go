package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ecoquest/quest-engine/internal/catalog"
	"github.com/ecoquest/quest-engine/internal/config"
	"github.com/ecoquest/quest-engine/internal/events"
	"github.com/ecoquest/quest-engine/internal/leaderboard"
	"github.com/ecoquest/quest-engine/internal/progression"
	"github.com/ecoquest/quest-engine/internal/storage"
	"github.com/ecoquest/quest-engine/internal/verify"
)

// Server represents the HTTP API server
type Server struct {
	config      config.ServerConfig
	router      *chi.Mux
	catalog     *catalog.Loader
	engine      *verify.Engine
	progression *progression.Service
	repo        storage.Repository
	leaderboard *leaderboard.Leaderboard
	hub         *events.Hub
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	cat *catalog.Loader,
	engine *verify.Engine,
	prog *progression.Service,
	repo storage.Repository,
	lb *leaderboard.Leaderboard,
	hub *events.Hub,
) *Server {
	s := &Server{
		config:      cfg,
		catalog:     cat,
		engine:      engine,
		progression: prog,
		repo:        repo,
		leaderboard: lb,
		hub:         hub,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health checks (public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Quest catalog
		r.Route("/quests", func(r chi.Router) {
			r.Get("/", s.handleListQuests)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetQuest)
				r.Get("/tips", s.handleGetTips)
				r.With(s.requireUser).Post("/join", s.handleJoinQuest)
				r.With(s.requireUser).Post("/submissions", s.handleSubmitEvidence)
			})
		})

		// User progression
		r.Route("/users/{userId}", func(r chi.Router) {
			r.Get("/progress", s.handleGetProgress)
			r.Get("/achievements", s.handleGetAchievements)
			r.Get("/submissions", s.handleGetSubmissions)
		})

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/events", s.handleEventsWS)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
