// Package worker holds the UPF's two background goroutines: a 60s
// aggregate-statistics logger (with optional ClickHouse batch insert) and a
// 30s GTP-U drop-counter monitor.
package worker

import (
	"context"
	"time"

	"github.com/fivegcore/emulator/common/metrics"
	upfchclient "github.com/fivegcore/emulator/nf/upf/internal/clickhouse"
	upfcontext "github.com/fivegcore/emulator/nf/upf/internal/context"
	"github.com/fivegcore/emulator/nf/upf/internal/qos"
	"go.uber.org/zap"
)

const (
	statsInterval = time.Minute
	dropInterval  = 30 * time.Second
	dropWarnLevel = 100
)

// StatsLogger periodically logs aggregate traffic statistics, batch-inserting
// them into ClickHouse when configured.
type StatsLogger struct {
	ctx        *upfcontext.UPFContext
	clickhouse *upfchclient.Client
	logger     *zap.Logger
}

// NewStatsLogger builds a StatsLogger. ch may be nil, in which case the
// worker only logs via zap.
func NewStatsLogger(ctx *upfcontext.UPFContext, ch *upfchclient.Client, logger *zap.Logger) *StatsLogger {
	return &StatsLogger{ctx: ctx, clickhouse: ch, logger: logger}
}

// Run blocks until ctx is cancelled, ticking every minute.
func (w *StatsLogger) Run(ctx context.Context) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.tick(ctx, now)
		}
	}
}

func (w *StatsLogger) tick(ctx context.Context, now time.Time) {
	stats := w.ctx.TrafficStats()

	var totalUL, totalDL uint64
	for _, s := range stats {
		totalUL += s.UplinkBytes
		totalDL += s.DownlinkBytes
	}

	w.logger.Info("aggregate traffic statistics",
		zap.Int("sessions", len(stats)),
		zap.Uint64("total_uplink_bytes", totalUL),
		zap.Uint64("total_downlink_bytes", totalDL),
	)

	metrics.SetUPFActiveSessions(len(stats))
	metrics.SetUplinkThroughput(float64(totalUL) * 8 / statsInterval.Seconds())
	metrics.SetDownlinkThroughput(float64(totalDL) * 8 / statsInterval.Seconds())

	if w.clickhouse == nil || len(stats) == 0 {
		return
	}

	batch, err := w.clickhouse.PrepareBatch(ctx, "INSERT INTO upf_traffic_statistics (upf_seid, timestamp, uplink_bytes, downlink_bytes, dropped_packets)")
	if err != nil {
		w.logger.Warn("failed to prepare ClickHouse batch", zap.Error(err))
		return
	}

	for seid, s := range stats {
		if err := batch.Append(seid, now, s.UplinkBytes, s.DownlinkBytes, s.DroppedPackets); err != nil {
			w.logger.Warn("failed to append statistics row", zap.Error(err))
			return
		}
	}

	if err := batch.Send(); err != nil {
		w.logger.Warn("failed to send ClickHouse batch", zap.Error(err))
	}
}

// DropMonitor periodically inspects per-tunnel drop counters, warning and
// resetting any tunnel over the warn threshold.
type DropMonitor struct {
	reader qos.DropCounterReader
	logger *zap.Logger
	reset  func(tunnelID string)
}

// NewDropMonitor builds a DropMonitor over a reader and the reset callback to
// invoke after a warning fires (the enforcer's own ResetDropCount when reader
// is software-backed).
func NewDropMonitor(reader qos.DropCounterReader, reset func(tunnelID string), logger *zap.Logger) *DropMonitor {
	return &DropMonitor{reader: reader, reset: reset, logger: logger}
}

// Run blocks until ctx is cancelled, ticking every 30 seconds.
func (w *DropMonitor) Run(ctx context.Context) {
	ticker := time.NewTicker(dropInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *DropMonitor) tick() {
	counts, err := w.reader.DropCounts()
	if err != nil {
		w.logger.Warn("failed to read drop counters", zap.Error(err))
		return
	}

	for tunnelID, count := range counts {
		if count <= dropWarnLevel {
			continue
		}
		w.logger.Warn("high GTP-U drop rate",
			zap.String("tunnel_id", tunnelID),
			zap.Int64("drops", count),
		)
		if w.reset != nil {
			w.reset(tunnelID)
		}
	}
}
