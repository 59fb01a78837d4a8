package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/amf/internal/config"
	amfcontext "github.com/fivegcore/emulator/nf/amf/internal/context"
	"github.com/fivegcore/emulator/nf/amf/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// AMFServer represents the AMF HTTP server.
type AMFServer struct {
	config              *config.Config
	router              *chi.Mux
	server              *http.Server
	registrationService *service.RegistrationService
	pduSessionService   *service.PDUSessionService
	contextManager      *amfcontext.UEContextManager
	logger              *zap.Logger
}

// NewServer creates a new AMF server.
func NewServer(
	cfg *config.Config,
	registrationService *service.RegistrationService,
	pduSessionService *service.PDUSessionService,
	contextManager *amfcontext.UEContextManager,
	logger *zap.Logger,
) *AMFServer {
	s := &AMFServer{
		config:              cfg,
		router:              chi.NewRouter(),
		registrationService: registrationService,
		pduSessionService:   pduSessionService,
		contextManager:      contextManager,
		logger:              logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *AMFServer) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *AMFServer) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/status", s.handleStatus)

	s.router.Route("/nas", func(r chi.Router) {
		r.Post("/registration-request", s.handleRegistrationRequest)
		r.Post("/authentication-response", s.handleAuthenticationResponse)
		r.Post("/security-mode-complete", s.handleSecurityModeComplete)
		r.Post("/pdu-session-establishment-request", s.handlePDUSessionEstablishment)

		r.Get("/ue-contexts", s.handleListUEContexts)
		r.Get("/ue-contexts/{supi}", s.handleGetUEContext)
		r.Post("/ue-contexts/{supi}/release", s.handleReleaseUEContext)
		r.Delete("/ue-contexts/{supi}", s.handleDeregistration)
	})

	s.router.Route("/admin", func(r chi.Router) {
		r.Get("/stats", s.handleGetStats)
	})
}

// Start starts the HTTP server.
func (s *AMFServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting AMF HTTP server", zap.String("address", addr))

	if s.config.SBI.TLS.Enabled {
		return s.server.ListenAndServeTLS(s.config.SBI.TLS.CertFile, s.config.SBI.TLS.KeyFile)
	}

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server.
func (s *AMFServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping AMF HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *AMFServer) loggingMiddleware(next http.Handler) http.Handler {
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

func (s *AMFServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *AMFServer) handleReady(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *AMFServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service": "AMF",
		"version": "1.0.0",
		"guami":   s.config.GetGUAMI(),
	})
}
