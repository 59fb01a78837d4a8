// Package service implements the gNB's NGAP procedures toward the AMF.
// Messages are represented as the discriminated JSON envelope
// {initiatingMessage|successfulOutcome|unsuccessfulOutcome:{procedureCode,
// criticality, value:{protocolIEs}}} rather than ASN.1 PER, consistent with
// every NF-to-NF interface in this emulator.
package service

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/gnb/internal/client"
	"github.com/fivegcore/emulator/nf/gnb/internal/config"
	gnbcontext "github.com/fivegcore/emulator/nf/gnb/internal/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// NGAP procedure codes (3GPP TS 38.413 § 9.3.8).
const (
	ProcedureCodeHandoverRequired             = 0
	ProcedureCodeHandoverRequest              = 1
	ProcedureCodeHandoverRequestAcknowledge   = 2
	ProcedureCodeHandoverPreparationFailure   = 3
	ProcedureCodeDownlinkNASTransport         = 4
	ProcedureCodeErrorIndication              = 5
	ProcedureCodeUplinkNASTransport           = 46
	ProcedureCodeInitialUEMessage             = 15
	ProcedureCodeInitialContextSetup          = 14
	ProcedureCodePaging                       = 20
	ProcedureCodeNGSetup                      = 21
	ProcedureCodeReset                        = 22
	ProcedureCodePDUSessionResourceSetup      = 29
)

// Envelope is the discriminated NGAP JSON wrapper.
type Envelope struct {
	InitiatingMessage   *Message `json:"initiatingMessage,omitempty"`
	SuccessfulOutcome   *Message `json:"successfulOutcome,omitempty"`
	UnsuccessfulOutcome *Message `json:"unsuccessfulOutcome,omitempty"`
}

// Message is one NGAP PDU.
type Message struct {
	ProcedureCode int                    `json:"procedureCode"`
	Criticality   string                 `json:"criticality"`
	Value         map[string]interface{} `json:"value"`
}

func initiating(procedureCode int, protocolIEs map[string]interface{}) Envelope {
	return Envelope{InitiatingMessage: &Message{
		ProcedureCode: procedureCode,
		Criticality:   "ignore",
		Value:         map[string]interface{}{"protocolIEs": protocolIEs},
	}}
}

func successful(procedureCode int, protocolIEs map[string]interface{}) Envelope {
	return Envelope{SuccessfulOutcome: &Message{
		ProcedureCode: procedureCode,
		Criticality:   "ignore",
		Value:         map[string]interface{}{"protocolIEs": protocolIEs},
	}}
}

func unsuccessful(procedureCode int, cause string) Envelope {
	return Envelope{UnsuccessfulOutcome: &Message{
		ProcedureCode: procedureCode,
		Criticality:   "ignore",
		Value:         map[string]interface{}{"protocolIEs": map[string]interface{}{"cause": cause}},
	}}
}

// InitialUEMessageRequest is the body a test harness posts to simulate a UE
// sending its first NAS message.
type InitialUEMessageRequest struct {
	NASPDU             json.RawMessage `json:"nasPdu"`
	EstablishmentCause string          `json:"establishmentCause,omitempty"`
}

// InitialUEMessageResponse reports the ran-ue-ngap-id allocated, the
// constructed NGAP envelope, and the AMF's reply to the forwarded NAS-PDU.
type InitialUEMessageResponse struct {
	RanUENgapID uint32          `json:"ranUeNgapId"`
	NGAPMessage Envelope        `json:"ngapMessage"`
	AMFResponse json.RawMessage `json:"amfResponse,omitempty"`
}

// DownlinkNASTransportRequest is AMF->gNB NAS delivery.
type DownlinkNASTransportRequest struct {
	RanUENgapID uint32          `json:"ranUeNgapId"`
	AmfUENgapID uint64          `json:"amfUeNgapId"`
	NASPDU      json.RawMessage `json:"nasPdu"`
}

// UEContextSetupRequestBody carries the security context AMF installs on
// the RAN side once authentication completes.
type UEContextSetupRequestBody struct {
	RanUENgapID            uint32   `json:"ranUeNgapId"`
	SecurityKey            string   `json:"securityKey"`
	UESecurityCapabilities []string `json:"ueSecurityCapabilities"`
}

// PDUSessionResourceSetupItem is one session AMF asks the RAN to set up.
type PDUSessionResourceSetupItem struct {
	PDUSessionID uint8 `json:"pduSessionId"`
}

// PDUSessionResourceSetupRequestBody is the PDU Session Resource Setup
// Request from AMF.
type PDUSessionResourceSetupRequestBody struct {
	RanUENgapID                  uint32                        `json:"ranUeNgapId"`
	PDUSessionResourceSetupItems []PDUSessionResourceSetupItem `json:"pduSessionResourceSetupItems"`
}

// HandoverRequestBody is the target-side Handover Request from AMF.
type HandoverRequestBody struct {
	SourceAmfUENgapID uint64 `json:"sourceAmfUeNgapId"`
	TargetCellID      uint64 `json:"targetCellId"`
}

// NGAPService implements the NGAP procedures gNB exposes over HTTP.
type NGAPService struct {
	cfg       *config.Config
	amfClient *client.AMFClient
	contexts  *gnbcontext.Manager
	logger    *zap.Logger
	tracer    trace.Tracer

	amfConnectionEstablished atomic.Bool
	mu                       sync.Mutex
}

// NewNGAPService wires a fresh NGAP service.
func NewNGAPService(cfg *config.Config, amfClient *client.AMFClient, contexts *gnbcontext.Manager, logger *zap.Logger) *NGAPService {
	return &NGAPService{
		cfg:       cfg,
		amfClient: amfClient,
		contexts:  contexts,
		logger:    logger,
		tracer:    otel.Tracer("gnb"),
	}
}

// HandleInitialUEMessage allocates a fresh ran-ue-ngap-id, builds the
// InitialUEMessage envelope, and forwards the NAS-PDU to AMF.
func (s *NGAPService) HandleInitialUEMessage(ctx context.Context, req *InitialUEMessageRequest) (*InitialUEMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "NGAPService.HandleInitialUEMessage")
	defer span.End()

	if len(req.NASPDU) == 0 {
		return nil, apierror.InvalidArgumentf("nasPdu is required")
	}

	cause := req.EstablishmentCause
	if cause == "" {
		cause = "mo-Data"
	}

	ueCtx := s.contexts.CreateContext()
	metrics.SetGNBConnectedUEs(s.contexts.Count())

	envelope := initiating(ProcedureCodeInitialUEMessage, map[string]interface{}{
		"ranUeNgapId":           ueCtx.RanUENgapID,
		"nasPdu":                json.RawMessage(req.NASPDU),
		"userLocationInfo":      map[string]interface{}{"tac": s.cfg.PLMN.TAC, "nrCellId": s.cfg.Cell.NRCellID},
		"rrcEstablishmentCause": cause,
		"ueContextRequest":      "requested",
	})

	span.SetAttributes(attribute.Int("ran_ue_ngap_id", int(ueCtx.RanUENgapID)))

	amfResp, err := s.amfClient.ForwardRegistrationRequest(ctx, req.NASPDU)
	if err != nil {
		s.logger.Warn("forwarding initial UE message to AMF failed", zap.Error(err), zap.Uint32("ran_ue_ngap_id", ueCtx.RanUENgapID))
		metrics.RecordGNBNGAPProcedure("initial-ue-message", "forward_failed")
		return &InitialUEMessageResponse{RanUENgapID: ueCtx.RanUENgapID, NGAPMessage: envelope}, nil
	}

	s.logger.Info("initial UE message forwarded to AMF", zap.Uint32("ran_ue_ngap_id", ueCtx.RanUENgapID))
	metrics.RecordGNBNGAPProcedure("initial-ue-message", "success")

	return &InitialUEMessageResponse{
		RanUENgapID: ueCtx.RanUENgapID,
		NGAPMessage: envelope,
		AMFResponse: amfResp,
	}, nil
}

// HandleDownlinkNASTransport binds the AMF-UE-NGAP-ID on first receipt and
// logs the delivered NAS payload.
func (s *NGAPService) HandleDownlinkNASTransport(ctx context.Context, req *DownlinkNASTransportRequest) error {
	_, span := s.tracer.Start(ctx, "NGAPService.HandleDownlinkNASTransport")
	defer span.End()

	ueCtx, ok := s.contexts.GetContext(req.RanUENgapID)
	if !ok {
		return apierror.NotFoundf("unknown ran-ue-ngap-id: %d", req.RanUENgapID)
	}

	ueCtx.BindAmfUENgapID(req.AmfUENgapID)
	ueCtx.Touch()

	s.logger.Info("downlink NAS transport received",
		zap.Uint32("ran_ue_ngap_id", req.RanUENgapID),
		zap.Uint64("amf_ue_ngap_id", req.AmfUENgapID),
		zap.ByteString("nas_pdu", req.NASPDU),
	)

	span.SetAttributes(attribute.Int("ran_ue_ngap_id", int(req.RanUENgapID)))
	return nil
}

// HandleUEContextSetupRequest installs the security context and transitions
// the association to CONNECTED, or returns an unsuccessful outcome when the
// ran-ue-ngap-id is unknown.
func (s *NGAPService) HandleUEContextSetupRequest(ctx context.Context, req *UEContextSetupRequestBody) (Envelope, error) {
	_, span := s.tracer.Start(ctx, "NGAPService.HandleUEContextSetupRequest")
	defer span.End()

	ueCtx, ok := s.contexts.GetContext(req.RanUENgapID)
	if !ok {
		span.SetAttributes(attribute.Bool("success", false))
		return unsuccessful(ProcedureCodeInitialContextSetup, "Unknown-local-UE-NGAP-ID"), nil
	}

	ueCtx.SetSecurityContext(req.SecurityKey, req.UESecurityCapabilities)

	s.logger.Info("UE context setup completed", zap.Uint32("ran_ue_ngap_id", req.RanUENgapID))
	span.SetAttributes(attribute.Bool("success", true))

	return successful(ProcedureCodeInitialContextSetup, map[string]interface{}{
		"ranUeNgapId": req.RanUENgapID,
	}), nil
}

// PDUSessionResourceSetupResponse reports per-item outcomes.
type PDUSessionResourceSetupResponse struct {
	RanUENgapID                             uint32                          `json:"ranUeNgapId"`
	PDUSessionResourceSetupListSURes        []PDUSessionResourceSetupItem  `json:"pduSessionResourceSetupListSuRes"`
	PDUSessionResourceFailedToSetupListSURes []PDUSessionResourceSetupItem `json:"pduSessionResourceFailedToSetupListSuRes"`
}

// HandlePDUSessionResourceSetupRequest records each session as ACTIVE on the
// RAN UE context.
func (s *NGAPService) HandlePDUSessionResourceSetupRequest(ctx context.Context, req *PDUSessionResourceSetupRequestBody) (*PDUSessionResourceSetupResponse, error) {
	_, span := s.tracer.Start(ctx, "NGAPService.HandlePDUSessionResourceSetupRequest")
	defer span.End()

	ueCtx, ok := s.contexts.GetContext(req.RanUENgapID)
	if !ok {
		return nil, apierror.NotFoundf("unknown ran-ue-ngap-id: %d", req.RanUENgapID)
	}

	resp := &PDUSessionResourceSetupResponse{
		RanUENgapID:                       req.RanUENgapID,
		PDUSessionResourceSetupListSURes:  make([]PDUSessionResourceSetupItem, 0, len(req.PDUSessionResourceSetupItems)),
		PDUSessionResourceFailedToSetupListSURes: []PDUSessionResourceSetupItem{},
	}

	for _, item := range req.PDUSessionResourceSetupItems {
		ueCtx.AddPDUSession(item.PDUSessionID)
		resp.PDUSessionResourceSetupListSURes = append(resp.PDUSessionResourceSetupListSURes, item)
	}

	span.SetAttributes(attribute.Int("sessions_setup", len(resp.PDUSessionResourceSetupListSURes)))
	return resp, nil
}

// HandoverRequestAcknowledge is returned to AMF on handover success.
type HandoverRequestAcknowledge struct {
	TargetRanUENgapID                 uint32 `json:"targetRanUeNgapId"`
	TargetToSourceTransparentContainer string `json:"targetToSourceTransparentContainer"`
}

// HandleHandoverRequest allocates a fresh target-side ran-ue-ngap-id and
// binds it to the original AMF-UE-NGAP-ID.
func (s *NGAPService) HandleHandoverRequest(ctx context.Context, req *HandoverRequestBody) (*HandoverRequestAcknowledge, error) {
	_, span := s.tracer.Start(ctx, "NGAPService.HandleHandoverRequest")
	defer span.End()

	if req.SourceAmfUENgapID == 0 {
		return nil, apierror.InvalidArgumentf("sourceAmfUeNgapId is required")
	}

	ueCtx := s.contexts.CreateContext()
	ueCtx.BindAmfUENgapID(req.SourceAmfUENgapID)
	ueCtx.SetSecurityContext("", nil)

	s.logger.Info("handover request accepted",
		zap.Uint32("target_ran_ue_ngap_id", ueCtx.RanUENgapID),
		zap.Uint64("amf_ue_ngap_id", req.SourceAmfUENgapID),
	)

	span.SetAttributes(attribute.Int("target_ran_ue_ngap_id", int(ueCtx.RanUENgapID)))

	return &HandoverRequestAcknowledge{
		TargetRanUENgapID:                  ueCtx.RanUENgapID,
		TargetToSourceTransparentContainer: "placeholder-transparent-container",
	}, nil
}

// Heartbeat pings AMF and flips amfConnectionEstablished on failure.
func (s *NGAPService) Heartbeat(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.amfClient.Heartbeat(ctx); err != nil {
		if s.amfConnectionEstablished.Load() {
			s.logger.Warn("AMF heartbeat failed, clearing connection flag", zap.Error(err))
		}
		s.amfConnectionEstablished.Store(false)
		metrics.SetGNBAMFConnectionUp(false)
		return
	}
	s.amfConnectionEstablished.Store(true)
	metrics.SetGNBAMFConnectionUp(true)
}

// AMFConnectionEstablished reports the latest heartbeat outcome.
func (s *NGAPService) AMFConnectionEstablished() bool {
	return s.amfConnectionEstablished.Load()
}

// Contexts exposes the UE context manager for status reporting.
func (s *NGAPService) Contexts() *gnbcontext.Manager {
	return s.contexts
}
