package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fivegcore/emulator/nf/pcf/internal/client"
	"github.com/fivegcore/emulator/nf/pcf/internal/config"
	"github.com/fivegcore/emulator/nf/pcf/internal/server"
	"github.com/fivegcore/emulator/nf/pcf/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "nf/pcf/config/pcf.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("starting PCF (Policy Control Function)",
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

	policyService := service.NewService(logger)
	logger.Info("policy service initialized")

	srv := server.NewServer(cfg, policyService, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.NRF.Enabled {
		nrfClient := client.NewNRFClient(cfg.NRF.URL, cfg.NF.InstanceID, logger)

		profile := &client.NFProfile{
			NFInstanceID: cfg.NF.InstanceID,
			NFType:       "PCF",
			NFStatus:     "REGISTERED",
			PLMNID: client.PLMNID{
				MCC: cfg.PLMN.MCC,
				MNC: cfg.PLMN.MNC,
			},
			IPv4Address: fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port),
			Capacity:    100,
			Priority:    1,
			PCFInfo: &client.PCFInfo{
				GroupID: "pcf-group-1",
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
		logger.Info("PCF started successfully",
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

		logger.Info("PCF shutdown complete")
	}
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
