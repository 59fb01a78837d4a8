package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/gnb/internal/config"
	"github.com/fivegcore/emulator/nf/gnb/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// GNBServer is the gNB HTTP server.
type GNBServer struct {
	config      *config.Config
	router      *chi.Mux
	server      *http.Server
	ngapService *service.NGAPService
	logger      *zap.Logger
}

// NewServer creates a new gNB server.
func NewServer(cfg *config.Config, ngapService *service.NGAPService, logger *zap.Logger) *GNBServer {
	s := &GNBServer{
		config:      cfg,
		router:      chi.NewRouter(),
		ngapService: ngapService,
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *GNBServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *GNBServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/status", s.handleStatus)

	s.router.Route("/ngap", func(r chi.Router) {
		r.Post("/initial-ue-message", s.handleInitialUEMessage)
		r.Post("/downlink-nas-transport", s.handleDownlinkNASTransport)
		r.Post("/ue-context-setup-request", s.handleUEContextSetupRequest)
		r.Post("/pdu-session-resource-setup-request", s.handlePDUSessionResourceSetupRequest)
		r.Post("/handover-request", s.handleHandoverRequest)
		r.Get("/ue-contexts", s.handleListUEContexts)
	})
}

// Start starts the HTTP server.
func (s *GNBServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting gNB HTTP server", zap.String("address", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *GNBServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping gNB HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *GNBServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *GNBServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *GNBServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service":                   "gNB",
		"version":                   "1.0.0",
		"connectedUEs":              s.ngapService.Contexts().Count(),
		"amfConnectionEstablished": s.ngapService.AMFConnectionEstablished(),
	})
}
