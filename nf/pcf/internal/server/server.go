package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/pcf/internal/config"
	"github.com/fivegcore/emulator/nf/pcf/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// PCFServer represents the PCF HTTP server
type PCFServer struct {
	config  *config.Config
	router  *chi.Mux
	server  *http.Server
	logger  *zap.Logger
	service *service.Service
}

// NewServer creates a new PCF server
func NewServer(cfg *config.Config, svc *service.Service, logger *zap.Logger) *PCFServer {
	s := &PCFServer{
		config:  cfg,
		router:  chi.NewRouter(),
		logger:  logger,
		service: svc,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *PCFServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *PCFServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/status", s.handleStatus)

	s.router.Route("/npcf-smpolicycontrol/v1", func(r chi.Router) {
		r.Post("/sm-policies", s.handleCreatePolicy)
		r.Get("/sm-policies/{assocId}", s.handleGetPolicy)
		r.Patch("/sm-policies/{assocId}", s.handleUpdatePolicy)
	})
}

// Start starts the HTTP server
func (s *PCFServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting PCF HTTP server", zap.String("address", addr))

	if s.config.SBI.TLS.Enabled {
		return s.server.ListenAndServeTLS(s.config.SBI.TLS.CertFile, s.config.SBI.TLS.KeyFile)
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *PCFServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping PCF HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *PCFServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *PCFServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *PCFServer) handleReady(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *PCFServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service": "PCF",
		"version": "1.0.0",
		"stats":   s.service.Stats(),
	})
}
