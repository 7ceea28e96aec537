// Package server provides the HTTP server and routing for riskfolio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/mkarlis/riskfolio/internal/config"
	"github.com/mkarlis/riskfolio/internal/database"
	"github.com/mkarlis/riskfolio/internal/modules/ledger"
	ledgerhandlers "github.com/mkarlis/riskfolio/internal/modules/ledger/handlers"
	"github.com/mkarlis/riskfolio/internal/modules/portfolio"
	portfoliohandlers "github.com/mkarlis/riskfolio/internal/modules/portfolio/handlers"
	riskhandlers "github.com/mkarlis/riskfolio/internal/modules/risk/handlers"
	"github.com/mkarlis/riskfolio/internal/modules/simulation"
	simulationhandlers "github.com/mkarlis/riskfolio/internal/modules/simulation/handlers"
	"github.com/mkarlis/riskfolio/internal/reliability"
)

// Config holds server configuration.
type Config struct {
	Log               zerolog.Logger
	Config            *config.Config
	Port              int
	DevMode           bool
	Databases         map[string]*database.DB
	PortfolioService  *portfolio.Service
	LedgerService     *ledger.Service
	SimulationService *simulation.Service
	Backups           *reliability.S3BackupService
	StreamStatus      StreamStatus
}

// Server represents the HTTP server.
type Server struct {
	router            *chi.Mux
	server            *http.Server
	log               zerolog.Logger
	cfg               *config.Config
	portfolioService  *portfolio.Service
	ledgerService     *ledger.Service
	simulationService *simulation.Service
	systemHandlers    *SystemHandlers
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:            chi.NewRouter(),
		log:               cfg.Log.With().Str("component", "server").Logger(),
		cfg:               cfg.Config,
		portfolioService:  cfg.PortfolioService,
		ledgerService:     cfg.LedgerService,
		simulationService: cfg.SimulationService,
		systemHandlers: NewSystemHandlers(
			cfg.Log,
			cfg.Config.DataDir,
			cfg.Databases,
			cfg.Backups,
			cfg.StreamStatus,
		),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		portfolioHandler := portfoliohandlers.NewHandler(s.portfolioService, s.log)
		portfolioHandler.RegisterRoutes(r)

		riskHandler := riskhandlers.NewHandler(s.portfolioService, s.cfg.ConfidenceLevel, s.log)
		riskHandler.RegisterRoutes(r)

		ledgerHandler := ledgerhandlers.NewHandler(s.ledgerService, s.log)
		ledgerHandler.RegisterRoutes(r)

		simulationHandler := simulationhandlers.NewHandler(s.simulationService, s.log)
		simulationHandler.RegisterRoutes(r)

		s.systemHandlers.RegisterRoutes(r)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
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
