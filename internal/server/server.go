// Package server provides the HTTP server and routing for Folio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/analytics"
	analyticshandlers "github.com/aristath/folio/internal/modules/analytics/handlers"
	"github.com/aristath/folio/internal/modules/charts"
	chartshandlers "github.com/aristath/folio/internal/modules/charts/handlers"
	"github.com/aristath/folio/internal/modules/currency"
	currencyhandlers "github.com/aristath/folio/internal/modules/currency/handlers"
	ledgerhandlers "github.com/aristath/folio/internal/modules/ledger/handlers"
	"github.com/aristath/folio/internal/scheduler"
)

// Version is reported by /health
const Version = "1.0.0"

// Config holds server configuration
type Config struct {
	Log          zerolog.Logger
	ClientDataDB *database.DB
	Scheduler    *scheduler.Scheduler
	Analytics    *analytics.Service
	Charts       *charts.Service
	Rates        currency.RateSource
	BaseCurrency domain.Currency
	Port         int
	DevMode      bool
}

// Server represents the HTTP server
type Server struct {
	router       *chi.Mux
	server       *http.Server
	log          zerolog.Logger
	port         int
	clientDataDB *database.DB
	scheduler    *scheduler.Scheduler
	analytics    *analytics.Service
	charts       *charts.Service
	rates        currency.RateSource
	baseCurrency domain.Currency

	mu   sync.RWMutex
	jobs map[string]scheduler.Job
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "server").Logger(),
		port:         cfg.Port,
		clientDataDB: cfg.ClientDataDB,
		scheduler:    cfg.Scheduler,
		analytics:    cfg.Analytics,
		charts:       cfg.Charts,
		rates:        cfg.Rates,
		baseCurrency: cfg.BaseCurrency,
		jobs:         make(map[string]scheduler.Job),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers job instances for manual triggering via API
func (s *Server) SetJobs(jobs ...scheduler.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range jobs {
		s.jobs[job.Name()] = job
	}
}

func (s *Server) job(name string) (scheduler.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[name]
	return job, ok
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.analytics != nil {
			analyticsHandler := analyticshandlers.NewHandler(s.analytics, s.log)
			analyticsHandler.RegisterRoutes(r)
		}

		if s.charts != nil {
			chartsHandler := chartshandlers.NewHandler(s.charts, s.log)
			chartsHandler.RegisterRoutes(r)
		}

		currencyHandler := currencyhandlers.NewHandler(s.rates, s.baseCurrency, s.log)
		currencyHandler.RegisterRoutes(r)

		ledgerHandler := ledgerhandlers.NewHandler(s.log)
		ledgerHandler.RegisterRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/jobs", s.handleJobsStatus)
			r.Post("/jobs/{name}/run", s.handleRunJob)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
