package service

import (
	"context"
	"strconv"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	upfcontext "github.com/fivegcore/emulator/nf/upf/internal/context"
	"github.com/fivegcore/emulator/nf/upf/internal/qos"
	"go.uber.org/zap"
)

// GTPUService implements the HTTP-facing GTP-U processing endpoint, applying
// the same token-bucket enforcement the real N3/N6 UDP data path uses and
// then ordering accounting of admitted packets through a priority queue; the
// UDP data path has no priority queue.
type GTPUService struct {
	ctx      *upfcontext.UPFContext
	enforcer *qos.Enforcer
	queue    *qos.PriorityQueue
	logger   *zap.Logger
}

// NewGTPUService builds a GTPUService and starts its priority drain loop.
func NewGTPUService(ctx *upfcontext.UPFContext, enforcer *qos.Enforcer, logger *zap.Logger) *GTPUService {
	s := &GTPUService{ctx: ctx, enforcer: enforcer, logger: logger}
	s.queue = qos.NewPriorityQueue(s.drain)
	return s
}

// Stop ends the priority drain loop.
func (s *GTPUService) Stop() {
	s.queue.Stop()
}

// ProcessPacketRequest is the body of POST /gtp-u/process-packet.
type ProcessPacketRequest struct {
	TunnelID  string                 `json:"tunnel_id"`
	Direction string                 `json:"direction"` // uplink, downlink
	Header    map[string]interface{} `json:"header,omitempty"`
	Payload   string                 `json:"payload"`
}

// ProcessPacketResponse reports the enforcement outcome for one packet.
type ProcessPacketResponse struct {
	TunnelID string `json:"tunnel_id"`
	Allowed  bool   `json:"allowed"`
	Priority int    `json:"priority"`
}

// ProcessPacket enforces the tunnel's token bucket, then enqueues the packet
// for priority-ordered traffic accounting.
func (s *GTPUService) ProcessPacket(ctx context.Context, req *ProcessPacketRequest) (*ProcessPacketResponse, error) {
	tunnel, ok := s.ctx.GetTunnel(req.TunnelID)
	if !ok {
		return nil, apierror.NotFoundf("GTP tunnel %q not found", req.TunnelID)
	}

	size := len(req.Payload)
	allowed := s.enforcer.Allow(tunnel.TunnelID, req.Direction, size)
	priority := qos.PriorityFor5QI(tunnel.Var5QI)

	if allowed {
		s.queue.Enqueue(&qos.QueuedPacket{
			TunnelID:  tunnel.TunnelID,
			Direction: req.Direction,
			Size:      size,
			Priority:  priority,
		})
	} else {
		s.recordDrop(tunnel, req.Direction)
		metrics.RecordQoSViolation(strconv.Itoa(tunnel.Var5QI))
	}

	return &ProcessPacketResponse{
		TunnelID: tunnel.TunnelID,
		Allowed:  allowed,
		Priority: priority,
	}, nil
}

// drain is invoked by the priority queue's background goroutine, lowest
// priority number first, and folds the packet into the session's traffic
// statistics.
func (s *GTPUService) drain(p *qos.QueuedPacket) {
	tunnel, ok := s.ctx.GetTunnel(p.TunnelID)
	if !ok {
		return
	}
	s.ctx.UpdateActivity(tunnel.SEID)
	metrics.RecordGTPUPacket(p.Direction, p.Size)

	if p.Direction == "downlink" {
		s.ctx.RecordTraffic(tunnel.SEID, 0, uint64(p.Size), 0, 1, 0)
	} else {
		s.ctx.RecordTraffic(tunnel.SEID, uint64(p.Size), 0, 1, 0, 0)
	}
}

func (s *GTPUService) recordDrop(tunnel *upfcontext.GTPTunnel, direction string) {
	s.ctx.RecordTraffic(tunnel.SEID, 0, 0, 0, 0, 1)
	metrics.RecordGTPUPacketDropped("rate_limited")
	s.logger.Debug("GTP-U packet dropped by rate limiter",
		zap.String("tunnel_id", tunnel.TunnelID),
		zap.String("direction", direction),
	)
}
