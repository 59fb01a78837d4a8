package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/cu/internal/config"
	"github.com/fivegcore/emulator/nf/cu/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// CUServer is the gNB-CU HTTP server.
type CUServer struct {
	config      *config.Config
	router      *chi.Mux
	server      *http.Server
	f1apService *service.F1APService
	logger      *zap.Logger
}

// NewServer creates a new CU server.
func NewServer(cfg *config.Config, f1apService *service.F1APService, logger *zap.Logger) *CUServer {
	s := &CUServer{
		config:      cfg,
		router:      chi.NewRouter(),
		f1apService: f1apService,
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *CUServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *CUServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/cu/status", s.handleStatus)
	s.router.Get("/cu/ue-contexts", s.handleListUEContexts)

	s.router.Route("/f1ap", func(r chi.Router) {
		r.Post("/f1-setup-request", s.handleF1SetupRequest)
		r.Post("/initial-ul-rrc-message", s.handleInitialULRRCMessageTransfer)
		r.Post("/ue-context-setup-response", s.handleUEContextSetupResponse)
	})
}

// Start starts the HTTP server.
func (s *CUServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting CU HTTP server", zap.String("address", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *CUServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping CU HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *CUServer) loggingMiddleware(next http.Handler) http.Handler {
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

func (s *CUServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *CUServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":         "operational",
		"connectedUEs":   s.f1apService.Contexts().Count(),
		"rrcVersion":     s.config.RRC.Version,
	})
}
