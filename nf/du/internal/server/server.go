package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/du/internal/config"
	"github.com/fivegcore/emulator/nf/du/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// DUServer is the gNB-DU HTTP server.
type DUServer struct {
	config *config.Config
	router *chi.Mux
	server *http.Server
	stack  *service.ProtocolStackService
	logger *zap.Logger
}

// NewServer creates a new DU server.
func NewServer(cfg *config.Config, stack *service.ProtocolStackService, logger *zap.Logger) *DUServer {
	s := &DUServer{
		config: cfg,
		router: chi.NewRouter(),
		stack:  stack,
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *DUServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *DUServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/du/status", s.handleStatus)
	s.router.Get("/du/ue-contexts", s.handleListUEContexts)

	s.router.Route("/f1ap", func(r chi.Router) {
		r.Post("/initial-ul-rrc-message", s.handleInitialULRRCMessageTransfer)
	})
	s.router.Route("/phy", func(r chi.Router) {
		r.Post("/process-prach", s.handleProcessPRACH)
	})
	s.router.Route("/mac", func(r chi.Router) {
		r.Get("/schedule-uplink", s.handleScheduleUplink)
		r.Get("/schedule-downlink", s.handleScheduleDownlink)
		r.Post("/harq-feedback", s.handleHARQFeedback)
	})
	s.router.Route("/rlc", func(r chi.Router) {
		r.Post("/process-sdu", s.handleRLCProcessSDU)
	})
	s.router.Route("/pdcp", func(r chi.Router) {
		r.Post("/process-sdu", s.handlePDCPProcessSDU)
	})
}

// Start starts the HTTP server.
func (s *DUServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting DU HTTP server", zap.String("address", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *DUServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping DU HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *DUServer) loggingMiddleware(next http.Handler) http.Handler {
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

func (s *DUServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *DUServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"status":     "operational",
		"activeUEs":  s.stack.Contexts().Count(),
		"currentSlot": s.stack.CurrentSlot(),
	})
}
