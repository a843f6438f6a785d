package api

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maercaestro/furnace-commander/internal/physics"
	"github.com/maercaestro/furnace-commander/internal/predict"
	"github.com/maercaestro/furnace-commander/internal/sim"
	"github.com/maercaestro/furnace-commander/internal/store"
)

// Server handles HTTP requests
type Server struct {
	db           store.DB
	sweeper      *sim.Sweeper
	predictor    predict.Predictor
	errorHandler *ErrorHandler
	logger       *log.Logger
	startTime    time.Time
}

// NewServer creates a new API server. predictor may be nil if no inference
// sidecar is configured; the demo endpoint then reports unavailable.
func NewServer(db store.DB, predictor predict.Predictor) *Server {
	logger := log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)

	server := &Server{
		db:           db,
		sweeper:      sim.NewSweeper(),
		predictor:    predictor,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
	}

	logger.Printf("server_startup tunings=%d leaderboard_enabled=%t predictor_enabled=%t",
		len(physics.List()), server.db != nil, server.predictor != nil)

	return server
}

// Routes sets up the HTTP routes with proper middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.CORSMiddleware)

	// Health and monitoring endpoints
	r.Get("/health", s.handleHealthCheck)
	r.Get("/health/ready", s.handleReadiness)
	r.Get("/health/live", s.handleLiveness)
	r.Get("/version", s.handleVersion)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/tick", s.handleTick)
		r.Post("/score", s.handleScore)
		r.Post("/sweep", s.handleSweep)
		r.Post("/demo", s.handleDemo)
		r.Get("/tunings", s.handleListTunings)
		r.Post("/leaderboard", s.handleSubmitScore)
		r.Get("/leaderboard", s.handleTopScores)
		r.Get("/leaderboard/all", s.handleListScores)
		r.Get("/leaderboard/{id}", s.handleGetScore)
		r.Get("/episodes", s.handleRecentEpisodes)
		r.Get("/episodes/{id}", s.handleGetEpisode)
	})

	// Live play over WebSocket
	r.Get("/ws/play", s.handlePlay)

	return r
}

// CORSMiddleware allows the browser front-end to reach the API from its
// own origin during development.
func (s *Server) CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Server-Version", Version)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, try to write a simple error response
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
