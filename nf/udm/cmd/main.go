package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/udm/internal/client"
	udmclickhouse "github.com/fivegcore/emulator/nf/udm/internal/clickhouse"
	"github.com/fivegcore/emulator/nf/udm/internal/config"
	"github.com/fivegcore/emulator/nf/udm/internal/repository"
	"github.com/fivegcore/emulator/nf/udm/internal/server"
	"github.com/fivegcore/emulator/nf/udm/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "nf/udm/config/udm.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("starting UDM (Unified Data Management)",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.String("sbi_bind", cfg.SBI.BindAddress),
		zap.Int("sbi_port", cfg.SBI.Port),
		zap.String("nrf_url", cfg.NRF.URL),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := newRepository(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize repository", zap.Error(err))
	}
	if err := repository.SeedDefaultSubscriber(ctx, repo); err != nil {
		logger.Warn("failed to seed default subscriber", zap.Error(err))
	}

	authService := service.NewAuthenticationService(repo, logger)
	sdmService := service.NewSDMService(repo, logger)
	uecmService := service.NewUECMService(logger)

	logger.Info("services initialized")

	srv := server.NewServer(cfg, repo, authService, sdmService, uecmService, logger)

	metricsServer := metrics.NewMetricsServer(cfg.Observability.Metrics.Port, logger)
	go func() {
		logger.Info("starting metrics server", zap.Int("port", cfg.Observability.Metrics.Port))
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()
	defer metricsServer.Stop()

	metrics.SetServiceUp(true)
	defer metrics.SetServiceUp(false)

	if cfg.NRF.Enabled {
		nrfClient := client.NewNRFClient(cfg.NRF.URL, cfg.NF.InstanceID, logger)

		profile := &client.NFProfile{
			NFInstanceID: cfg.NF.InstanceID,
			NFType:       "UDM",
			NFStatus:     "REGISTERED",
			PLMNID: client.PLMNID{
				MCC: cfg.PLMN.MCC,
				MNC: cfg.PLMN.MNC,
			},
			IPv4Address: fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port),
			Capacity:    100,
			Priority:    1,
			UDMInfo: &client.UDMInfo{
				GroupID: "udm-group-1",
			},
		}

		if err := nrfClient.Register(ctx, profile); err != nil {
			logger.Error("failed to register with NRF", zap.Error(err))
		} else {
			logger.Info("registered with NRF")

			go func() {
				ticker := time.NewTicker(cfg.NRF.HeartbeatInterval)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						if err := nrfClient.Heartbeat(ctx, cfg.NF.InstanceID); err != nil {
							logger.Error("heartbeat failed", zap.Error(err))
						}
					case <-ctx.Done():
						return
					}
				}
			}()

			defer func() {
				deregCtx, deregCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer deregCancel()

				if err := nrfClient.Deregister(deregCtx, cfg.NF.InstanceID); err != nil {
					logger.Error("failed to deregister from NRF", zap.Error(err))
				} else {
					logger.Info("deregistered from NRF")
				}
			}()
		}
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("UDM started successfully",
			zap.String("address", fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)),
			zap.String("scheme", cfg.SBI.Scheme),
		)
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			logger.Error("failed to gracefully shutdown server", zap.Error(err))
		}

		logger.Info("UDM shutdown complete")
	}
}

// newRepository picks the ClickHouse-backed repository when storage.clickhouse
// is configured, falling back to the in-memory store otherwise.
func newRepository(cfg *config.Config, logger *zap.Logger) (repository.Repository, error) {
	if !cfg.UsesClickHouse() {
		logger.Info("using in-memory subscriber repository")
		return repository.NewMemoryRepository(logger), nil
	}

	chClient, err := udmclickhouse.NewClient(cfg.Storage.ClickHouse)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	logger.Info("using ClickHouse subscriber repository", zap.Strings("addresses", cfg.Storage.ClickHouse.Addresses))
	return repository.NewClickHouseRepository(chClient, logger), nil
}

// createLogger creates a structured logger
func createLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}

	return logger
}
