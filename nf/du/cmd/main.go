package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fivegcore/emulator/common/f1"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/du/internal/client"
	"github.com/fivegcore/emulator/nf/du/internal/config"
	ducontext "github.com/fivegcore/emulator/nf/du/internal/context"
	"github.com/fivegcore/emulator/nf/du/internal/mac"
	"github.com/fivegcore/emulator/nf/du/internal/pdcp"
	"github.com/fivegcore/emulator/nf/du/internal/phy"
	"github.com/fivegcore/emulator/nf/du/internal/rlc"
	"github.com/fivegcore/emulator/nf/du/internal/server"
	"github.com/fivegcore/emulator/nf/du/internal/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// prewarmUEIDs are the UE ids the DU pre-creates RLC/PDCP entities for at
// startup, matching du.py's lifespan handler (UE ids 1-4, SRB1/SRB2/DRB5).
var prewarmUEIDs = []uint32{1, 2, 3, 4}

func main() {
	configPath := flag.String("config", "nf/du/config/du.yaml", "path to configuration file")
	flag.Parse()

	logger := createLogger("info")
	defer logger.Sync()

	logger.Info("starting gNB-DU",
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
	)

	contexts := ducontext.NewManager()
	scheduler := mac.NewScheduler()
	rlcMgr := rlc.NewManager()
	pdcpMgr := pdcp.NewManager()
	phyLayer := phy.NewLayer(cfg.PHY.Numerology, cfg.PHY.SlotsPerFrame, cfg.PHY.ResourceBlocks, cfg.PHY.SymbolsPerSlot, cfg.PHY.SubcarriersPerRB)
	cuClient := client.NewCUClient(cfg.CU.URL, cfg.CU.Timeout, logger)

	for _, ueID := range prewarmUEIDs {
		rlcMgr.CreateAMEntity(ueID, 1)
		rlcMgr.CreateAMEntity(ueID, 2)
		rlcMgr.CreateAMEntity(ueID, 5)
		pdcpMgr.CreateEntity(ueID, 1, pdcp.BearerTypeSRB)
		pdcpMgr.CreateEntity(ueID, 2, pdcp.BearerTypeSRB)
		pdcpMgr.CreateEntity(ueID, 5, pdcp.BearerTypeDRB)
	}
	logger.Info("pre-created RLC/PDCP entities", zap.Int("ue_count", len(prewarmUEIDs)))

	stack := service.NewProtocolStackService(cfg, contexts, scheduler, rlcMgr, pdcpMgr, phyLayer, cuClient, logger)

	srv := server.NewServer(cfg, stack, logger)

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

	ctx := context.Background()
	if cfg.NRF.Enabled {
		nrfClient := client.NewNRFClient(cfg.NRF.URL, cfg.NF.InstanceID, logger)

		profile := &client.NFProfile{
			NFInstanceID: cfg.NF.InstanceID,
			NFType:       "GNB_DU",
			NFStatus:     "REGISTERED",
			PLMNID: client.PLMNID{
				MCC: cfg.PLMN.MCC,
				MNC: cfg.PLMN.MNC,
			},
			IPv4Addresses: []string{fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)},
			Capacity:      100,
			Priority:      1,
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
							logger.Error("NRF heartbeat failed", zap.Error(err))
						}
					case <-ctx.Done():
						return
					}
				}
			}()

			defer func() {
				if err := nrfClient.Deregister(context.Background(), cfg.NF.InstanceID); err != nil {
					logger.Error("failed to deregister from NRF", zap.Error(err))
				}
			}()
		}
	}

	go func() {
		setupCtx, cancel := context.WithTimeout(ctx, cfg.CU.Timeout)
		defer cancel()

		resp, err := cuClient.SendF1SetupRequest(setupCtx, &f1.F1SetupRequest{
			TransactionID: 1,
			GNBDUName:     cfg.NF.Name,
		})
		if err != nil {
			logger.Warn("F1 setup request to CU failed; it is not retried", zap.Error(err))
			return
		}
		logger.Info("F1 setup complete", zap.String("gnb_cu_name", resp.GNBCUNAME), zap.Int("cells_to_activate", len(resp.CellsToActivate)))
	}()

	slotTickerDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.PHY.SlotDurationMS) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stack.TickSlot()
			case <-slotTickerDone:
				return
			}
		}
	}()
	defer close(slotTickerDone)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("DU started successfully",
			zap.String("address", fmt.Sprintf("%s:%d", cfg.SBI.BindAddress, cfg.SBI.Port)),
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

		logger.Info("DU shutdown complete")
	}
}

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
