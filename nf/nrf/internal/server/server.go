package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/fivegcore/emulator/common/authtoken"
	"github.com/fivegcore/emulator/nf/nrf/internal/config"
	"github.com/fivegcore/emulator/nf/nrf/internal/repository"
	"go.uber.org/zap"
)

// NRFServer represents the NRF HTTP server.
type NRFServer struct {
	config     *config.Config
	repository repository.Repository
	tokens     *authtoken.Issuer
	router     *chi.Mux
	httpServer *http.Server
	logger     *zap.Logger
}

// NewNRFServer creates a new NRF server instance.
func NewNRFServer(cfg *config.Config, logger *zap.Logger) (*NRFServer, error) {
	repo := repository.NewMemoryRepository(logger)

	issuer, err := authtoken.NewIssuer(cfg.NF.InstanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	logger.Info("token signing key generated for this boot", zap.String("fingerprint", issuer.KeyFingerprint()))

	server := &NRFServer{
		config:     cfg,
		repository: repo,
		tokens:     issuer,
		router:     chi.NewRouter(),
		logger:     logger,
	}

	server.setupRoutes()

	return server, nil
}

// setupRoutes configures HTTP routes.
func (s *NRFServer) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/status", s.handleStatus)

	// OAuth2-style token issuance — bootstrap, not itself token-gated (§4.1).
	s.router.Post("/oauth2/token", s.handleIssueToken)

	// NF Management Service (TS 29.510, Clause 5.2.2)
	s.router.Route("/nnrf-nfm/v1", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Put("/nf-instances/{nfInstanceId}", s.handleNFRegister)
		r.Patch("/nf-instances/{nfInstanceId}", s.handleNFUpdate)
		r.Delete("/nf-instances/{nfInstanceId}", s.handleNFDeregister)
		r.Get("/nf-instances/{nfInstanceId}", s.handleNFGet)
		r.Get("/nf-instances", s.handleNFList)

		r.Patch("/nf-instances/{nfInstanceId}/heartbeat", s.handleHeartbeat)

		r.Post("/subscriptions", s.handleSubscribe)
		r.Delete("/subscriptions/{subscriptionId}", s.handleUnsubscribe)
		r.Get("/subscriptions/{subscriptionId}", s.handleGetSubscription)
	})

	// NF Discovery Service (TS 29.510, Clause 5.2.3)
	s.router.Route("/nnrf-disc/v1", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/nf-instances", s.handleNFDiscover)
	})

	// Legacy endpoints (design notes §9): route to the same modern store.
	s.router.Route("/", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/register", s.handleLegacyRegister)
		r.Get("/discover/{nfType}", s.handleLegacyDiscover)
	})
}

// Start starts the HTTP server.
func (s *NRFServer) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.SBI.BindAddress, s.config.SBI.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if s.config.SBI.TLS.Enabled {
		return s.httpServer.ListenAndServeTLS(
			s.config.SBI.TLS.CertFile,
			s.config.SBI.TLS.KeyFile,
		)
	}

	return s.httpServer.ListenAndServe()
}

// Stop stops the HTTP server gracefully.
func (s *NRFServer) Stop(ctx context.Context) error {
	s.logger.Info("Stopping NRF server")

	if memRepo, ok := s.repository.(*repository.MemoryRepository); ok {
		memRepo.Close()
	}

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}

	return nil
}

// loggingMiddleware logs HTTP requests.
func (s *NRFServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *NRFServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *NRFServer) handleReady(w http.ResponseWriter, r *http.Request) {
	_, err := s.repository.GetStats(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready","error":"repository unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
