package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/udm/internal/config"
	"github.com/fivegcore/emulator/nf/udm/internal/repository"
	"github.com/fivegcore/emulator/nf/udm/internal/service"
	"go.uber.org/zap"
)

// UDMServer represents the UDM HTTP server
type UDMServer struct {
	config *config.Config
	router *chi.Mux
	server *http.Server
	logger *zap.Logger

	repo repository.Repository

	authService *service.AuthenticationService
	sdmService  *service.SDMService
	uecmService *service.UECMService
}

// NewServer creates a new UDM server
func NewServer(
	cfg *config.Config,
	repo repository.Repository,
	authService *service.AuthenticationService,
	sdmService *service.SDMService,
	uecmService *service.UECMService,
	logger *zap.Logger,
) *UDMServer {
	s := &UDMServer{
		config:      cfg,
		router:      chi.NewRouter(),
		logger:      logger,
		repo:        repo,
		authService: authService,
		sdmService:  sdmService,
		uecmService: uecmService,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures HTTP middleware
func (s *UDMServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

// setupRoutes configures HTTP routes
func (s *UDMServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/status", s.handleStatus)

	// Nudm_UEAuthentication service (TS 29.503)
	s.router.Route("/nudm-ueau/v1", func(r chi.Router) {
		r.Post("/{supi}/security-information/generate-auth-data", s.handleGenerateAuthData)
		r.Post("/{supi}/auth-events", s.handleConfirmAuth)
	})

	// Nudm_SDM service (TS 29.503)
	s.router.Route("/nudm-sdm/v1", func(r chi.Router) {
		r.Get("/{supi}/am-data", s.handleGetAMData)
		r.Get("/{supi}/sm-data", s.handleGetSMData)

		r.Post("/{supi}/sdm-subscriptions", s.handleSubscribeSDM)
		r.Delete("/{supi}/sdm-subscriptions/{subscriptionId}", s.handleUnsubscribeSDM)
	})

	// Nudm_UECM service (TS 29.503)
	s.router.Route("/nudm-uecm/v1", func(r chi.Router) {
		r.Put("/{supi}/registrations/amf-3gpp-access", s.handleRegisterAMF3GPP)
		r.Patch("/{supi}/registrations/amf-3gpp-access", s.handleUpdateAMF3GPP)
		r.Get("/{supi}/registrations/amf-3gpp-access", s.handleGetAMF3GPP)
		r.Delete("/{supi}/registrations/amf-3gpp-access", s.handleDeregisterAMF3GPP)

		r.Get("/{supi}/ue-context", s.handleGetUEContext)
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Get("/stats", s.handleGetStats)
	})
}

// Start starts the HTTP server
func (s *UDMServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting UDM HTTP server", zap.String("address", addr))

	if s.config.SBI.TLS.Enabled {
		return s.server.ListenAndServeTLS(s.config.SBI.TLS.CertFile, s.config.SBI.TLS.KeyFile)
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *UDMServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping UDM HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}

	return nil
}

func (s *UDMServer) loggingMiddleware(next http.Handler) http.Handler {
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

func (s *UDMServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *UDMServer) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not-ready"})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *UDMServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.uecmService.GetStats()
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service": "UDM",
		"version": "1.0.0",
		"stats":   stats,
	})
}
