package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/ausf/internal/config"
	"github.com/fivegcore/emulator/nf/ausf/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// AUSFServer represents the AUSF HTTP server
type AUSFServer struct {
	config *config.Config
	router *chi.Mux
	server *http.Server
	logger *zap.Logger

	authService *service.AuthenticationService
}

// NewServer creates a new AUSF server
func NewServer(
	cfg *config.Config,
	authService *service.AuthenticationService,
	logger *zap.Logger,
) *AUSFServer {
	s := &AUSFServer{
		config:      cfg,
		router:      chi.NewRouter(),
		logger:      logger,
		authService: authService,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *AUSFServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *AUSFServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/status", s.handleStatus)

	// Nausf_UEAuthentication service
	s.router.Route("/nausf-auth/v1", func(r chi.Router) {
		r.Post("/ue-authentications", s.handleUEAuthenticationRequest)
		r.Put("/ue-authentications/{authCtxId}/5g-aka-confirmation", s.handleConfirm5gAkaAuth)
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Get("/stats", s.handleGetStats)
		r.Get("/test/auth-context/{authCtxId}", s.handleGetAuthContext) // test only
	})
}

// Start starts the HTTP server
func (s *AUSFServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting AUSF HTTP server", zap.String("address", addr))

	if s.config.SBI.TLS.Enabled {
		return s.server.ListenAndServeTLS(s.config.SBI.TLS.CertFile, s.config.SBI.TLS.KeyFile)
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *AUSFServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping AUSF HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}

	return nil
}

func (s *AUSFServer) loggingMiddleware(next http.Handler) http.Handler {
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

func (s *AUSFServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *AUSFServer) handleReady(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *AUSFServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.authService.GetStats()

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service": "AUSF",
		"version": "1.0.0",
		"stats":   stats,
	})
}
