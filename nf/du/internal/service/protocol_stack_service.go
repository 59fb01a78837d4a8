// Package service wires together the DU's MAC, RLC, PDCP, and PHY layers
// and its F1AP procedures toward the CU, mirroring the layering of
// du.py's DistributedUnit.
package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/f1"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/du/internal/client"
	"github.com/fivegcore/emulator/nf/du/internal/config"
	ducontext "github.com/fivegcore/emulator/nf/du/internal/context"
	"github.com/fivegcore/emulator/nf/du/internal/mac"
	"github.com/fivegcore/emulator/nf/du/internal/pdcp"
	"github.com/fivegcore/emulator/nf/du/internal/phy"
	"github.com/fivegcore/emulator/nf/du/internal/rlc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	lcidSRB1 uint8 = 1
	lcidSRB2 uint8 = 2
	lcidDRB5 uint8 = 5
)

// ProtocolStackService ties the DU's layers and its CU peer together.
type ProtocolStackService struct {
	cfg       *config.Config
	contexts  *ducontext.Manager
	scheduler *mac.Scheduler
	rlcMgr    *rlc.Manager
	pdcpMgr   *pdcp.Manager
	phyLayer  *phy.Layer
	cuClient  *client.CUClient
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewProtocolStackService wires the DU's layers together.
func NewProtocolStackService(
	cfg *config.Config,
	contexts *ducontext.Manager,
	scheduler *mac.Scheduler,
	rlcMgr *rlc.Manager,
	pdcpMgr *pdcp.Manager,
	phyLayer *phy.Layer,
	cuClient *client.CUClient,
	logger *zap.Logger,
) *ProtocolStackService {
	return &ProtocolStackService{
		cfg:       cfg,
		contexts:  contexts,
		scheduler: scheduler,
		rlcMgr:    rlcMgr,
		pdcpMgr:   pdcpMgr,
		phyLayer:  phyLayer,
		cuClient:  cuClient,
		logger:    logger,
		tracer:    otel.Tracer("gnb-du"),
	}
}

// Contexts exposes the UE context manager for status reporting and tests.
func (s *ProtocolStackService) Contexts() *ducontext.Manager { return s.contexts }

// CurrentSlot reports the PHY layer's current frame/slot counters.
func (s *ProtocolStackService) CurrentSlot() phy.SlotState { return s.phyLayer.CurrentSlot() }

// TickSlot advances the PHY layer by one slot, per the background slot-
// processing worker started in main.
func (s *ProtocolStackService) TickSlot() phy.SlotState {
	metrics.RecordDUSlotProcessed()
	return s.phyLayer.Tick()
}

// PRACHRequest is the body a test harness posts to simulate a UE's random
// access attempt.
type PRACHRequest struct {
	PreambleIndex int `json:"preambleIndex"`
}

// PRACHResponse reports the allocated UE context and the PHY layer's
// random-access response, per du.py's process_prach.
type PRACHResponse struct {
	GNBDUUEF1APID uint32              `json:"gnbDuUeF1apId"`
	Detection     phy.PRACHDetection  `json:"detection"`
}

// ProcessPRACH allocates a fresh UE context for a detected preamble, pre-
// creates its SRB1/SRB2/DRB5 RLC+PDCP entities (per du.py's lifespan
// pre-creation for UE ids 1-4), and returns the PHY detection result.
func (s *ProtocolStackService) ProcessPRACH(ctx context.Context, req *PRACHRequest) (*PRACHResponse, error) {
	_, span := s.tracer.Start(ctx, "ProtocolStackService.ProcessPRACH")
	defer span.End()

	detection := s.phyLayer.ProcessPRACH(req.PreambleIndex)
	metrics.RecordDUPRACHDetection()

	ueCtx := s.contexts.CreateContext()
	s.rlcMgr.CreateAMEntity(ueCtx.GNBDUUEF1APID, lcidSRB1)
	s.rlcMgr.CreateAMEntity(ueCtx.GNBDUUEF1APID, lcidSRB2)
	s.rlcMgr.CreateAMEntity(ueCtx.GNBDUUEF1APID, lcidDRB5)
	s.pdcpMgr.CreateEntity(ueCtx.GNBDUUEF1APID, lcidSRB1, pdcp.BearerTypeSRB)
	s.pdcpMgr.CreateEntity(ueCtx.GNBDUUEF1APID, lcidSRB2, pdcp.BearerTypeSRB)
	s.pdcpMgr.CreateEntity(ueCtx.GNBDUUEF1APID, lcidDRB5, pdcp.BearerTypeDRB)

	metrics.SetDUActiveUEs(s.contexts.Count())
	span.SetAttributes(attribute.Int("preamble_index", req.PreambleIndex), attribute.Int64("gnb_du_ue_f1ap_id", int64(ueCtx.GNBDUUEF1APID)))

	return &PRACHResponse{GNBDUUEF1APID: ueCtx.GNBDUUEF1APID, Detection: detection}, nil
}

// InitialULRRCTransferRequest is a test harness's request to simulate a UE
// sending its RRCSetupRequest on SRB0.
type InitialULRRCTransferRequest struct {
	GNBDUUEF1APID uint32 `json:"gnbDuUeF1apId"`
	CRNTI         uint16 `json:"cRnti"`
	RRCContainer  []byte `json:"rrcContainer"`
}

// ForwardInitialULRRCMessage forwards the RRC container unchanged to the CU
// over F1AP and returns the CU's DL RRC Message Transfer (RRC Setup), per
// du.py's handle_initial_ul_rrc_message.
func (s *ProtocolStackService) ForwardInitialULRRCMessage(ctx context.Context, req *InitialULRRCTransferRequest) (*f1.DLRRCMessage, error) {
	ctx, span := s.tracer.Start(ctx, "ProtocolStackService.ForwardInitialULRRCMessage")
	defer span.End()

	ueCtx, ok := s.contexts.GetContext(req.GNBDUUEF1APID)
	if !ok {
		metrics.RecordDUF1APProcedure("initial-ul-rrc-message", "unknown_ue")
		return nil, apierror.NotFoundf("unknown gNB-DU-UE-F1AP-ID %d", req.GNBDUUEF1APID)
	}
	ueCtx.Touch()

	msg := &f1.InitialULRRCMessage{
		GNBDUUEF1APID: req.GNBDUUEF1APID,
		CRNTI:         req.CRNTI,
		RRCContainer:  req.RRCContainer,
	}

	resp, err := s.cuClient.SendInitialULRRCMessageTransfer(ctx, msg)
	if err != nil {
		s.logger.Warn("initial ul rrc message transfer to CU failed", zap.Error(err), zap.Uint32("gnb_du_ue_f1ap_id", req.GNBDUUEF1APID))
		metrics.RecordDUF1APProcedure("initial-ul-rrc-message", "forward_failed")
		return nil, fmt.Errorf("forwarding initial ul rrc message to CU: %w", err)
	}

	metrics.RecordDUF1APProcedure("initial-ul-rrc-message", "success")
	return resp, nil
}

// MACUplinkScheduleResponse reports the uplink grants computed for the
// current slot.
type MACUplinkScheduleResponse struct {
	Grants map[uint32]mac.UplinkGrant `json:"grants"`
}

// ScheduleUplink runs the MAC uplink scheduler over every active UE.
func (s *ProtocolStackService) ScheduleUplink() *MACUplinkScheduleResponse {
	return &MACUplinkScheduleResponse{Grants: s.scheduler.ScheduleUplink(s.contexts.GetAll())}
}

// MACDownlinkScheduleResponse reports the downlink assignments computed for
// the current slot.
type MACDownlinkScheduleResponse struct {
	Assignments map[uint32]mac.DownlinkAssignment `json:"assignments"`
}

// ScheduleDownlink runs the MAC downlink scheduler over every active UE.
func (s *ProtocolStackService) ScheduleDownlink() *MACDownlinkScheduleResponse {
	return &MACDownlinkScheduleResponse{Assignments: s.scheduler.ScheduleDownlink(s.contexts.GetAll())}
}

// HARQFeedbackRequest is the body a test harness posts to deliver ACK/NACK
// feedback for one HARQ process.
type HARQFeedbackRequest struct {
	UEID        uint32 `json:"ueId"`
	HARQProcess int    `json:"harqProcess"`
	ACK         bool   `json:"ack"`
}

// ProcessHARQFeedback records the ACK/NACK and counts retransmissions.
func (s *ProtocolStackService) ProcessHARQFeedback(req *HARQFeedbackRequest) {
	s.scheduler.ProcessHARQFeedback(req.UEID, req.HARQProcess, req.ACK)
	if !req.ACK {
		metrics.RecordDUHARQRetransmission()
	}
}

// RLCSDURequest is the body a test harness posts to hand an SDU to an RLC
// AM entity for transmission.
type RLCSDURequest struct {
	UEID    uint32 `json:"ueId"`
	LCID    uint8  `json:"lcid"`
	Payload []byte `json:"payload"`
}

// RLCPDUResponse is the PDU produced by an RLC AM entity's transmit path.
type RLCPDUResponse struct {
	SN      uint16 `json:"sn"`
	Payload []byte `json:"payload"`
	Poll    bool   `json:"poll"`
}

// TransmitRLCSDU hands an SDU to the named UE/logical-channel's RLC AM
// entity and returns the resulting PDU.
func (s *ProtocolStackService) TransmitRLCSDU(req *RLCSDURequest) (*RLCPDUResponse, error) {
	entity, ok := s.rlcMgr.GetAMEntity(req.UEID, req.LCID)
	if !ok {
		return nil, apierror.NotFoundf("no RLC AM entity for UE %d LCID %d", req.UEID, req.LCID)
	}
	pdu := entity.TransmitSDU(req.Payload)
	return &RLCPDUResponse{SN: pdu.SN, Payload: pdu.Payload, Poll: pdu.Poll}, nil
}

// PDCPSDURequest is the body a test harness posts to hand an SDU to a PDCP
// entity for transmission. The payload is a plain string so that the
// simulated compression/cipher markers remain human-readable.
type PDCPSDURequest struct {
	UEID     uint32 `json:"ueId"`
	BearerID uint8  `json:"bearerId"`
	SDU      string `json:"sdu"`
}

// PDCPPDUResponse is the ciphered PDU produced by a PDCP entity's transmit
// path, base64-encoded for transport.
type PDCPPDUResponse struct {
	SN  uint32 `json:"sn"`
	PDU string `json:"pdu"`
}

// TransmitPDCPSDU hands an SDU to the named UE/bearer's PDCP entity and
// returns the resulting ciphered PDU.
func (s *ProtocolStackService) TransmitPDCPSDU(req *PDCPSDURequest) (*PDCPPDUResponse, error) {
	entity, ok := s.pdcpMgr.GetEntity(req.UEID, req.BearerID)
	if !ok {
		return nil, apierror.NotFoundf("no PDCP entity for UE %d bearer %d", req.UEID, req.BearerID)
	}
	sn, pdu := entity.TransmitSDU(req.SDU)
	return &PDCPPDUResponse{SN: sn, PDU: base64.StdEncoding.EncodeToString([]byte(pdu))}, nil
}
