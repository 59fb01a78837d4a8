package service

import (
	"context"
	"fmt"

	"github.com/fivegcore/emulator/common/apierror"
	smfconfig "github.com/fivegcore/emulator/nf/smf/internal/config"
	smfcontext "github.com/fivegcore/emulator/nf/smf/internal/context"
	"github.com/fivegcore/emulator/nf/smf/internal/n4"
	"go.uber.org/zap"
)

// defaultQFI, defaultFiveQI and defaultN2Priority are the fixed QoS flow
// parameters this emulator installs on every PDU session: a single
// non-GBR internet flow, matching the UPF's accepted default session shape.
const (
	defaultQFI        = 9
	defaultFiveQI     = 9
	defaultN2Priority = 80
	defaultMBR        = 100_000_000 // 100 Mbps up/down
	uplinkFARID       = 1
	uplinkQERID       = 1
	n3TEID            = 1001
)

// SessionService handles PDU session management.
// 3GPP TS 23.502 - Procedures for the 5G System.
// 3GPP TS 29.502 - Session Management Services.
type SessionService struct {
	config     *smfconfig.Config
	smfContext *smfcontext.SMFContext
	pfcpClient *n4.PFCPClient
	logger     *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	cfg *smfconfig.Config,
	smfCtx *smfcontext.SMFContext,
	pfcpClient *n4.PFCPClient,
	logger *zap.Logger,
) (*SessionService, error) {
	return &SessionService{
		config:     cfg,
		smfContext: smfCtx,
		pfcpClient: pfcpClient,
		logger:     logger,
	}, nil
}

// CreateSessionRequest is the body of POST /nsmf-pdusession/v1/sm-contexts.
type CreateSessionRequest struct {
	SUPI         string            `json:"supi"`
	PDUSessionID uint8             `json:"pduSessionId"`
	DNN          string            `json:"dnn"`
	SNSSAI       smfcontext.SNSSAI `json:"sNssai"`
	AnType       string            `json:"anType"`

	GNBN3Address  string `json:"gnbN3Address,omitempty"`
	GNBTEIDUplink uint32 `json:"gnbTeidUplink,omitempty"`
}

// QoSFlowSetupRequest mirrors the N2 SM information carried back to the AMF
// for the gNB's QoS flow setup.
type QoSFlowSetupRequest struct {
	QFI      uint8 `json:"qfi"`
	FiveQI   uint8 `json:"5qi"`
	Priority uint8 `json:"priority"`
}

// N2SMInfo is the N2 SM information returned to the AMF, destined for the gNB.
type N2SMInfo struct {
	QoSFlowSetupRequestList []QoSFlowSetupRequest `json:"qosFlowSetupRequestList"`
}

// SMContextWire identifies the created SM context.
type SMContextWire struct {
	ContextID   string `json:"contextId"`
	UEIPAddress string `json:"ueIpAddress"`
}

// CreateSessionResponse is the body returned from a successful Create SM
// Context request.
type CreateSessionResponse struct {
	Status       string        `json:"status"`
	PDUSessionID uint8         `json:"pduSessionId"`
	UEIPAddress  string        `json:"ueIpAddress"`
	N2SMInfo     N2SMInfo      `json:"n2SmInfo"`
	SMContext    SMContextWire `json:"smContext"`
}

// UpdateSessionRequest is the body of a PDU session modify request.
type UpdateSessionRequest struct {
	SUPI             string  `json:"supi"`
	PDUSessionID     uint8   `json:"pduSessionId"`
	QoSFlowsToRemove []uint8 `json:"qosFlowsToRemove,omitempty"`
}

// UpdateSessionResponse acknowledges a modify request.
type UpdateSessionResponse struct {
	Result       string `json:"result"`
	SUPI         string `json:"supi"`
	PDUSessionID uint8  `json:"pduSessionId"`
}

// ReleaseSessionRequest is the body of a PDU session release request.
type ReleaseSessionRequest struct {
	SUPI         string `json:"supi"`
	PDUSessionID uint8  `json:"pduSessionId"`
	Cause        string `json:"cause,omitempty"`
}

// ReleaseSessionResponse acknowledges a release request.
type ReleaseSessionResponse struct {
	Result       string `json:"result"`
	SUPI         string `json:"supi"`
	PDUSessionID uint8  `json:"pduSessionId"`
}

// deterministicUEIPv4 assigns the UE's IPv4 address as a function of the PDU
// session ID alone, per this emulator's simplified N4 contract: 10.<(id%254)+1>.0.1.
func deterministicUEIPv4(pduSessionID uint8) string {
	return fmt.Sprintf("10.%d.0.1", (int(pduSessionID)%254)+1)
}

// CreateSession handles PDU session creation.
// 3GPP TS 29.502, Clause 5.2.2.2.1 - Nsmf_PDUSession_CreateSMContext.
func (s *SessionService) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	if req.SUPI == "" || req.PDUSessionID == 0 || req.DNN == "" || req.SNSSAI.SST == 0 || req.AnType == "" {
		return nil, apierror.InvalidArgumentf("missing required fields: supi, pduSessionId, dnn, sNssai, anType")
	}

	s.logger.Info("Creating PDU session",
		zap.String("supi", req.SUPI),
		zap.Uint8("pdu_session_id", req.PDUSessionID),
		zap.String("dnn", req.DNN),
		zap.Int("sst", req.SNSSAI.SST),
	)

	session := smfcontext.NewPDUSession(req.SUPI, req.PDUSessionID, req.DNN, req.SNSSAI)
	session.SetGNBInfo(req.GNBTEIDUplink, req.GNBN3Address)

	ueIP := deterministicUEIPv4(req.PDUSessionID)
	session.SetUEIPAddress(ueIP, "")
	session.SetSessionAMBR(defaultMBR, defaultMBR)
	session.AddQoSFlow(&smfcontext.QoSFlow{
		QFI:      defaultQFI,
		FiveQI:   defaultFiveQI,
		Priority: defaultN2Priority,
	})

	upfNodeID, upfN4Address := s.smfContext.GetUPFInfo()
	seid := n4.GenerateSEID(req.SUPI, req.PDUSessionID)

	session.UpdateState(smfcontext.PDUSessionStateActivePending)

	pfcpReq := s.buildPFCPEstablishmentRequest(session, seid, upfNodeID)
	pfcpResp, err := s.pfcpClient.EstablishSession(ctx, pfcpReq)
	if err != nil {
		s.logger.Error("PFCP session establishment failed", zap.Error(err))
		return nil, err
	}

	session.SetUPFInfo(upfNodeID, upfN4Address, n3TEID, n3TEID)
	session.UPFSEID = pfcpResp.UPFSEID
	session.UpdateState(smfcontext.PDUSessionStateActive)

	if err := s.smfContext.AddSession(session); err != nil {
		s.logger.Error("Failed to add session to context", zap.Error(err))
		return nil, apierror.Internal("failed to add session", err)
	}

	s.logger.Info("PDU session created successfully",
		zap.String("supi", req.SUPI),
		zap.Uint8("pdu_session_id", req.PDUSessionID),
		zap.String("ue_ip", ueIP),
		zap.Uint64("upf_seid", pfcpResp.UPFSEID),
	)

	contextID := fmt.Sprintf("%s:%d", req.SUPI, req.PDUSessionID)
	return &CreateSessionResponse{
		Status:       "CREATED",
		PDUSessionID: req.PDUSessionID,
		UEIPAddress:  ueIP,
		N2SMInfo: N2SMInfo{
			QoSFlowSetupRequestList: []QoSFlowSetupRequest{
				{QFI: defaultQFI, FiveQI: defaultFiveQI, Priority: defaultN2Priority},
			},
		},
		SMContext: SMContextWire{
			ContextID:   contextID,
			UEIPAddress: ueIP,
		},
	}, nil
}

// ReleaseSession handles PDU session release.
func (s *SessionService) ReleaseSession(ctx context.Context, req *ReleaseSessionRequest) (*ReleaseSessionResponse, error) {
	s.logger.Info("Releasing PDU session",
		zap.String("supi", req.SUPI),
		zap.Uint8("pdu_session_id", req.PDUSessionID),
		zap.String("cause", req.Cause),
	)

	session, err := s.smfContext.GetSession(req.SUPI, req.PDUSessionID)
	if err != nil {
		return nil, apierror.NotFoundf("session %s:%d not found", req.SUPI, req.PDUSessionID)
	}

	session.UpdateState(smfcontext.PDUSessionStateReleasing)

	if _, err := s.pfcpClient.DeleteSession(ctx, session.UPFSEID); err != nil {
		s.logger.Error("PFCP session deletion failed, continuing with local cleanup", zap.Error(err))
	}

	if err := s.smfContext.RemoveSession(req.SUPI, req.PDUSessionID); err != nil {
		s.logger.Error("Failed to remove session from context", zap.Error(err))
	}

	s.logger.Info("PDU session released successfully",
		zap.String("supi", req.SUPI),
		zap.Uint8("pdu_session_id", req.PDUSessionID),
	)

	return &ReleaseSessionResponse{
		Result:       "SUCCESS",
		SUPI:         req.SUPI,
		PDUSessionID: req.PDUSessionID,
	}, nil
}

// buildPFCPEstablishmentRequest builds the PFCP Session Establishment
// Request sent to the UPF: one PDR (ACCESS source interface, UE-IP match,
// DNN network instance), one FAR (FORWARD to CORE with a GTP-U outer
// header), and one QER (QFI 9, 100 Mbps up/down).
func (s *SessionService) buildPFCPEstablishmentRequest(
	session *smfcontext.PDUSession,
	seid uint64,
	upfNodeID string,
) *n4.SessionEstablishmentRequest {
	return &n4.SessionEstablishmentRequest{
		MessageType: "PFCP_SESSION_ESTABLISHMENT_REQUEST",
		NodeID:      upfNodeID,
		CPFSEID:     seid,
		DNN:         session.DNN,
		CreatePDR: []n4.PDR{
			{
				PDRID:      1,
				Precedence: 200,
				PDI: n4.PDI{
					SourceInterface: "ACCESS",
					NetworkInstance: session.DNN,
					UEIPAddress:     &n4.UEIP{IPv4: session.UEIPv4Address},
				},
				FARID: uplinkFARID,
				QERID: []uint32{uplinkQERID},
			},
		},
		CreateFAR: []n4.FAR{
			{
				FARID:       uplinkFARID,
				ApplyAction: "FORWARD",
				ForwardingParameters: &n4.ForwardingParameters{
					DestinationInterface: "CORE",
					OuterHeaderCreation:  &n4.FTEID{TEID: n3TEID},
				},
			},
		},
		CreateQER: []n4.QER{
			{
				QERID:  uplinkQERID,
				QFI:    defaultQFI,
				Var5QI: defaultFiveQI,
				MBR:    &n4.BitRate{Uplink: defaultMBR, Downlink: defaultMBR},
			},
		},
	}
}

// GetSessionStatistics returns session statistics for the debug/admin surface.
func (s *SessionService) GetSessionStatistics() map[string]interface{} {
	stats := s.smfContext.GetStatistics()
	return map[string]interface{}{
		"total_sessions":    stats.TotalSessions,
		"active_sessions":   stats.ActiveSessions,
		"released_sessions": stats.ReleasedSessions,
	}
}

// ListSessionKeys returns the session keys of every active session, for
// GET /smf/sessions debug introspection.
func (s *SessionService) ListSessionKeys() []string {
	return s.smfContext.AllSessionKeys()
}
