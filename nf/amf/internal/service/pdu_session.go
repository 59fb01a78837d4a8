package service

import (
	"context"
	"fmt"

	"github.com/fivegcore/emulator/nf/amf/internal/client"
	"github.com/fivegcore/emulator/nf/amf/internal/config"
	amfcontext "github.com/fivegcore/emulator/nf/amf/internal/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// PDUSessionService forwards PDU session establishment and release
// requests to SMF on behalf of a registered UE.
// 3GPP TS 23.502, Clause 4.3.2 - PDU Session Establishment.
type PDUSessionService struct {
	config         *config.Config
	smfClient      *client.SMFClient
	contextManager *amfcontext.UEContextManager
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewPDUSessionService creates a new PDU session service.
func NewPDUSessionService(
	cfg *config.Config,
	smfClient *client.SMFClient,
	contextManager *amfcontext.UEContextManager,
	logger *zap.Logger,
) *PDUSessionService {
	return &PDUSessionService{
		config:         cfg,
		smfClient:      smfClient,
		contextManager: contextManager,
		tracer:         otel.Tracer("amf-pdu-session"),
		logger:         logger,
	}
}

// EstablishmentRequest is the body of POST
// /nas/pdu-session-establishment-request.
type EstablishmentRequest struct {
	SUPI         string            `json:"supi"`
	PDUSessionID uint8             `json:"pduSessionId"`
	DNN          string            `json:"dnn"`
	SNSSAI       amfcontext.SNSSAI `json:"sNssai"`
}

// EstablishmentResponse is the body returned on successful establishment,
// flattening SMF's CreateSessionResponse for the NAS PDU Session
// Establishment Accept message.
type EstablishmentResponse struct {
	Status       string                       `json:"status"`
	PDUSessionID uint8                        `json:"pduSessionId"`
	UEIPAddress  string                       `json:"ueIpAddress"`
	N2SMInfo     client.N2SMInfo              `json:"n2SmInfo"`
}

// Establish forwards a PDU session establishment request to SMF and records
// the resulting session against the UE's context.
func (s *PDUSessionService) Establish(ctx context.Context, req *EstablishmentRequest) (*EstablishmentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PDUSessionService.Establish")
	defer span.End()
	span.SetAttributes(
		attribute.String("supi", req.SUPI),
		attribute.Int("pdu_session_id", int(req.PDUSessionID)),
	)

	ueCtx, exists := s.contextManager.GetContext(req.SUPI)
	if !exists || ueCtx.RegistrationState != amfcontext.RegistrationStateRegistered {
		return nil, fmt.Errorf("UE %s is not registered", req.SUPI)
	}

	smfResp, err := s.smfClient.CreateSession(ctx, &client.CreateSessionRequest{
		SUPI:         req.SUPI,
		PDUSessionID: req.PDUSessionID,
		DNN:          req.DNN,
		SNSSAI:       client.SNSSAI{SST: req.SNSSAI.SST, SD: req.SNSSAI.SD},
		AnType:       "3GPP_ACCESS",
	})
	if err != nil {
		s.logger.Error("SMF session creation failed",
			zap.String("supi", req.SUPI),
			zap.Uint8("pdu_session_id", req.PDUSessionID),
			zap.Error(err),
		)
		return nil, err
	}

	ueCtx.AddPDUSession(&amfcontext.PDUSessionInfo{
		SessionID: req.PDUSessionID,
		DNN:       req.DNN,
		SNSSAI:    req.SNSSAI,
		State:     amfcontext.PDUSessionStateActive,
	})

	s.logger.Info("PDU session established",
		zap.String("supi", req.SUPI),
		zap.Uint8("pdu_session_id", req.PDUSessionID),
		zap.String("ue_ip", smfResp.UEIPAddress),
	)

	return &EstablishmentResponse{
		Status:       "PDU_SESSION_ESTABLISHMENT_ACCEPT",
		PDUSessionID: smfResp.PDUSessionID,
		UEIPAddress:  smfResp.UEIPAddress,
		N2SMInfo:     smfResp.N2SMInfo,
	}, nil
}

// Release forwards a PDU session release request to SMF and removes the
// session from the UE's context.
func (s *PDUSessionService) Release(ctx context.Context, supi string, pduSessionID uint8) error {
	ctx, span := s.tracer.Start(ctx, "PDUSessionService.Release")
	defer span.End()

	if _, err := s.smfClient.ReleaseSession(ctx, &client.ReleaseSessionRequest{
		SUPI:         supi,
		PDUSessionID: pduSessionID,
	}); err != nil {
		return err
	}

	if ueCtx, exists := s.contextManager.GetContext(supi); exists {
		ueCtx.RemovePDUSession(pduSessionID)
	}
	return nil
}
