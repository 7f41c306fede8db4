package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"clinical-note-cleaner/config"
	"clinical-note-cleaner/handlers"
	"clinical-note-cleaner/services"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	router     *mux.Router
	httpServer *http.Server
	services   *services.ServiceContainer
	logger     services.Logger

	// Handlers
	cleanHandler      *handlers.CleanHandler
	dictionaryHandler *handlers.DictionaryHandler
}

// NewServer creates a new server instance over already created services
func NewServer(cfg *config.Config, container *services.ServiceContainer) *Server {
	router := mux.NewRouter()

	logger := container.Logger
	if logger == nil {
		logger = services.NoopLogger{}
	}

	s := &Server{
		config:   cfg,
		router:   router,
		services: container,
		logger:   logger,
		cleanHandler: handlers.NewCleanHandler(
			container.Cleaner,
			container.Jobs,
			container.Parser.SupportedExtensions(),
			cfg.Server.MaxUploadBytes,
			logger.With(services.String("component", "clean_handler")),
		),
		dictionaryHandler: handlers.NewDictionaryHandler(
			container.Dictionaries,
			logger.With(services.String("component", "dictionary_handler")),
		),
		httpServer: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}

	s.setupRoutes()
	s.setupMiddleware()

	return s
}

// Handler exposes the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Health and monitoring
	api.HandleFunc("/health", s.healthCheck).Methods("GET", "OPTIONS")
	if s.services.MetricsService != nil {
		api.HandleFunc("/metrics", s.metricsHandler).Methods("GET")
	}

	// Cleaning
	api.HandleFunc("/clean", s.cleanHandler.CleanFile).Methods("POST", "OPTIONS")
	api.HandleFunc("/clean/text", s.cleanHandler.CleanText).Methods("POST", "OPTIONS")
	api.HandleFunc("/formats", s.cleanHandler.ListFormats).Methods("GET")

	// Jobs
	api.HandleFunc("/jobs/{id}", s.cleanHandler.GetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/download/{artifact}", s.cleanHandler.DownloadArtifact).Methods("GET")

	// Dictionary
	api.HandleFunc("/dictionary", s.dictionaryHandler.GetDictionary).Methods("GET")
	api.HandleFunc("/dictionary/reload", s.dictionaryHandler.ReloadDictionary).Methods("POST")
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	// CORS must be first to handle preflight requests
	s.router.Use(s.corsMiddleware)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.contentTypeMiddleware)

	if s.services.MetricsService != nil {
		s.router.Use(s.performanceMiddleware)
	}
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting server", services.String("addr", s.httpServer.Addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	return s.Shutdown()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// healthCheck handles health check requests.
// Degraded still answers 200; only unhealthy answers 503.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	systemHealth := s.services.HealthService.CheckHealth(r.Context())

	statusCode := http.StatusOK
	if systemHealth.Status == services.HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.writeJSON(w, statusCode, systemHealth)
}

// metricsHandler handles metrics requests
func (s *Server) metricsHandler(w http.ResponseWriter, r *http.Request) {
	metrics := s.services.MetricsService.GetMetrics()

	if count, err := s.services.Jobs.Count(r.Context()); err == nil {
		metrics["jobs"] = map[string]interface{}{"stored": count}
	}
	metrics["dictionary"] = map[string]interface{}{
		"source":  s.services.Dictionaries.Source(),
		"entries": s.services.Dictionaries.Current().Len(),
	}

	s.writeJSON(w, http.StatusOK, metrics)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("Failed to encode response", err)
	}
}
