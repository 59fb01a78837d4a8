package service

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/nf/amf/internal/client"
	"github.com/fivegcore/emulator/nf/amf/internal/config"
	amfcontext "github.com/fivegcore/emulator/nf/amf/internal/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RegistrationService drives the UE registration state machine:
// DEREGISTERED -> AUTH_PENDING -> SEC_PENDING -> REGISTERED, one HTTP call
// per transition, matching the NAS procedure split across three requests
// (registration request, authentication response, security mode complete).
type RegistrationService struct {
	config         *config.Config
	ausfClient     *client.AUSFClient
	udmClient      *client.UDMClient
	smfClient      *client.SMFClient
	contextManager *amfcontext.UEContextManager
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	cfg *config.Config,
	ausfClient *client.AUSFClient,
	udmClient *client.UDMClient,
	smfClient *client.SMFClient,
	contextManager *amfcontext.UEContextManager,
	logger *zap.Logger,
) *RegistrationService {
	return &RegistrationService{
		config:         cfg,
		ausfClient:     ausfClient,
		udmClient:      udmClient,
		smfClient:      smfClient,
		contextManager: contextManager,
		tracer:         otel.Tracer("amf-registration"),
		logger:         logger,
	}
}

// RegistrationRequest is the body of POST /nas/registration-request.
type RegistrationRequest struct {
	SUCI             string              `json:"suci"`
	RegistrationType string              `json:"registrationType"` // "INITIAL", "MOBILITY", "PERIODIC"
	RequestedNSSAI   []amfcontext.SNSSAI `json:"requestedNssai,omitempty"`
}

// RegistrationResponse is the body returned from a registration request.
// Status is always AUTHENTICATION_REQUIRED on success - the NAS message
// carries the AUSF challenge through to security-mode-complete.
type RegistrationResponse struct {
	Status    string `json:"status"`
	AuthType  string `json:"authType,omitempty"`
	AuthCtxID string `json:"authCtxId,omitempty"`
	RAND      string `json:"rand,omitempty"`
	AUTN      string `json:"autn,omitempty"`
	// HXRESStar is disclosed only because this emulator has no SIM to
	// compute a real RES* - it lets a test harness drive the confirmation
	// step deterministically. A real AMF never sees this value.
	HXRESStar string `json:"hxresStar,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// AuthenticationResponseRequest is the body of POST
// /nas/authentication-response.
type AuthenticationResponseRequest struct {
	AuthCtxID string `json:"authCtxId"`
	ResStar   string `json:"resStar"`
}

// AuthenticationResponseResult is the body returned from an authentication
// response. Per this emulator's design, authentication failure is conveyed
// as HTTP 200 with status AUTHENTICATION_FAILURE, never as an error status -
// it is a normal NAS outcome, not an API fault.
type AuthenticationResponseResult struct {
	Status string `json:"status"` // "AUTHENTICATION_SUCCESS" or "AUTHENTICATION_FAILURE"
	SUPI   string `json:"supi,omitempty"`
	Cause  string `json:"cause,omitempty"`
}

// SecurityModeCompleteRequest is the body of POST
// /nas/security-mode-complete.
type SecurityModeCompleteRequest struct {
	SUPI string `json:"supi"`
}

// SecurityModeCompleteResponse is the body returned on successful
// registration completion.
type SecurityModeCompleteResponse struct {
	Status          string              `json:"status"`
	SUPI            string              `json:"supi"`
	GUTI            string              `json:"guti"`
	GUAMI           string              `json:"guami"`
	AllowedNSSAI    []amfcontext.SNSSAI `json:"allowedNssai,omitempty"`
	ConfiguredNSSAI []amfcontext.SNSSAI `json:"configuredNssai,omitempty"`
	TAI             amfcontext.TrackingAreaIdentity `json:"tai"`
	T3512           int                 `json:"t3512"`
}

// RegisterUE starts a registration attempt: it stores the requested NSSAI
// for later negotiation, asks AUSF for a 5G-AKA challenge, and moves the UE
// into AUTH_PENDING.
// 3GPP TS 23.502, Clause 4.2.2.2 - Registration procedure.
func (s *RegistrationService) RegisterUE(ctx context.Context, req *RegistrationRequest) (*RegistrationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.RegisterUE")
	defer span.End()

	supi := suciToSUPI(req.SUCI)
	span.SetAttributes(attribute.String("supi", supi))

	s.logger.Info("processing registration request",
		zap.String("supi", supi),
		zap.String("type", req.RegistrationType),
	)

	ueCtx := s.contextManager.GetOrCreateContext(supi)
	ueCtx.SUCI = req.SUCI
	ueCtx.RequestedNSSAI = req.RequestedNSSAI
	ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateAuthPending)

	servingNetworkName := fmt.Sprintf("5G:mnc%s.mcc%s.3gppnetwork.org", s.config.PLMN.MNC, s.config.PLMN.MCC)

	ausfResp, err := s.ausfClient.InitiateAuthentication(ctx, &client.UEAuthenticationRequest{
		SUPI:               supi,
		ServingNetworkName: servingNetworkName,
	})
	if err != nil {
		s.logger.Error("AUSF authentication initiation failed", zap.String("supi", supi), zap.Error(err))
		ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateDeregistered)
		metrics.RecordRegistrationAttempt("failure")
		return nil, err
	}

	ueCtx.AuthCtxID = ausfResp.AuthCtxID
	s.contextManager.BindAuthCtxID(ausfResp.AuthCtxID, supi)

	resp := &RegistrationResponse{
		Status:    "AUTHENTICATION_REQUIRED",
		AuthType:  ausfResp.AuthType,
		AuthCtxID: ausfResp.AuthCtxID,
	}
	if ausfResp.AuthenticationVector != nil {
		resp.RAND = ausfResp.AuthenticationVector.RAND
		resp.AUTN = ausfResp.AuthenticationVector.AUTN
		resp.HXRESStar = ausfResp.AuthenticationVector.HXRES
	}

	s.logger.Info("authentication required",
		zap.String("supi", supi),
		zap.String("auth_ctx_id", ausfResp.AuthCtxID),
	)
	return resp, nil
}

// ConfirmAuthenticationResponse handles POST /nas/authentication-response:
// it forwards the UE's RES* to AUSF and transitions AUTH_PENDING to
// SEC_PENDING on success, or back to DEREGISTERED on failure.
func (s *RegistrationService) ConfirmAuthenticationResponse(ctx context.Context, req *AuthenticationResponseRequest) (*AuthenticationResponseResult, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.ConfirmAuthenticationResponse")
	defer span.End()
	span.SetAttributes(attribute.String("auth_ctx_id", req.AuthCtxID))

	supi, found := s.contextManager.ResolveAuthCtxID(req.AuthCtxID)
	if !found {
		metrics.RecordAuthenticationRequest("failure")
		return &AuthenticationResponseResult{
			Status: "AUTHENTICATION_FAILURE",
			Cause:  "unknown authentication context",
		}, nil
	}

	ueCtx, exists := s.contextManager.GetContext(supi)
	if !exists {
		metrics.RecordAuthenticationRequest("failure")
		return &AuthenticationResponseResult{
			Status: "AUTHENTICATION_FAILURE",
			Cause:  "UE context not found",
		}, nil
	}

	ausfResp, err := s.ausfClient.ConfirmAuthentication(ctx, req.AuthCtxID, req.ResStar)
	if err != nil {
		s.logger.Error("AUSF confirmation request failed", zap.String("auth_ctx_id", req.AuthCtxID), zap.Error(err))
		ueCtx.AuthCtxID = ""
		ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateDeregistered)
		s.contextManager.UnbindAuthCtxID(req.AuthCtxID)
		return nil, err
	}

	s.contextManager.UnbindAuthCtxID(req.AuthCtxID)

	if ausfResp.AuthResult != "AUTHENTICATION_SUCCESS" {
		s.logger.Warn("authentication failed", zap.String("supi", supi), zap.String("auth_ctx_id", req.AuthCtxID))
		ueCtx.AuthCtxID = ""
		ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateDeregistered)
		metrics.RecordAuthenticationRequest("failure")
		return &AuthenticationResponseResult{
			Status: "AUTHENTICATION_FAILURE",
			Cause:  "RES* mismatch",
		}, nil
	}

	ueCtx.SetSecurityContext(&amfcontext.SecurityContext{
		KSEAF:                  ausfResp.KSEAF,
		NASSecurityEstablished: true,
		IntegrityAlgorithm:     s.config.Security.IntegrityOrder[0],
		CipheringAlgorithm:     s.config.Security.CipheringOrder[0],
	})
	ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateSecPending)
	metrics.RecordAuthenticationRequest("success")

	s.logger.Info("authentication successful, awaiting security mode complete",
		zap.String("supi", supi),
		zap.String("auth_ctx_id", req.AuthCtxID),
	)

	return &AuthenticationResponseResult{
		Status: "AUTHENTICATION_SUCCESS",
		SUPI:   supi,
	}, nil
}

// CompleteSecurityMode handles POST /nas/security-mode-complete: it
// negotiates the allowed NSSAI, allocates a 5G-GUTI, registers the UE with
// UDM as the serving AMF, and transitions SEC_PENDING to REGISTERED.
// 3GPP TS 23.502, Clause 4.2.2.2.2, steps 14-22.
func (s *RegistrationService) CompleteSecurityMode(ctx context.Context, req *SecurityModeCompleteRequest) (*SecurityModeCompleteResponse, error) {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.CompleteSecurityMode")
	defer span.End()
	span.SetAttributes(attribute.String("supi", req.SUPI))

	ueCtx, exists := s.contextManager.GetContext(req.SUPI)
	if !exists {
		metrics.RecordRegistrationAttempt("failure")
		return nil, fmt.Errorf("UE context not found for SUPI: %s", req.SUPI)
	}
	if ueCtx.SecurityContext == nil || !ueCtx.SecurityContext.NASSecurityEstablished {
		metrics.RecordRegistrationAttempt("failure")
		return nil, fmt.Errorf("security context not established for SUPI: %s", req.SUPI)
	}

	allowedNSSAI := s.negotiateNSSAI(ueCtx.RequestedNSSAI)

	ueCtx.AllowedNSSAI = allowedNSSAI
	ueCtx.ConfiguredNSSAI = allowedNSSAI
	ueCtx.GUAMI = s.config.GetGUAMI()
	ueCtx.AMFRegionID = s.config.AMF.RegionID
	ueCtx.AMFSetID = s.config.AMF.SetID
	ueCtx.AMFPointer = s.config.AMF.Pointer
	ueCtx.TAI = amfcontext.TrackingAreaIdentity{
		PLMNID: amfcontext.PLMNID{MCC: s.config.PLMN.MCC, MNC: s.config.PLMN.MNC},
		TAC:    s.config.PLMN.TAC,
	}
	ueCtx.GUTI = buildGUTI(s.config.AMF.RegionID, s.config.AMF.SetID, s.config.AMF.Pointer, s.config.PLMN.MCC, s.config.PLMN.MNC, req.SUPI)
	ueCtx.AuthCtxID = ""
	ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateRegistered)

	guamiWire := &client.GUAMIWire{
		PlmnID:      client.PLMNID{MCC: s.config.PLMN.MCC, MNC: s.config.PLMN.MNC},
		AMFRegionID: fmt.Sprintf("%02X", s.config.AMF.RegionID),
		AMFSetID:    fmt.Sprintf("%03X", s.config.AMF.SetID),
		AMFPointer:  fmt.Sprintf("%02X", s.config.AMF.Pointer),
	}
	if err := s.udmClient.RegisterAMF3GPPAccess(ctx, req.SUPI, &client.AMF3GPPAccessRegistration{
		AMFInstanceID:          s.config.NF.InstanceID,
		GUAMI:                  guamiWire,
		RATType:                "NR",
		InitialRegistrationInd: true,
	}); err != nil {
		s.logger.Warn("failed to register AMF context with UDM, continuing", zap.String("supi", req.SUPI), zap.Error(err))
	}

	metrics.RecordRegistrationAttempt("success")
	metrics.SetRegisteredUEs(s.contextManager.GetRegisteredCount())

	s.logger.Info("UE registered successfully",
		zap.String("supi", req.SUPI),
		zap.String("guti", ueCtx.GUTI),
		zap.String("guami", ueCtx.GUAMI),
	)

	return &SecurityModeCompleteResponse{
		Status:          "REGISTRATION_COMPLETE",
		SUPI:            req.SUPI,
		GUTI:            ueCtx.GUTI,
		GUAMI:           ueCtx.GUAMI,
		AllowedNSSAI:    allowedNSSAI,
		ConfiguredNSSAI: allowedNSSAI,
		TAI:             ueCtx.TAI,
		T3512:           s.config.Timers.T3512,
	}, nil
}

// negotiateNSSAI accepts each requested slice with a matching SST among the
// slices this AMF serves; with no requested slices (or none matching), it
// falls back to the single default slice {sst:1, sd:"010203"}.
func (s *RegistrationService) negotiateNSSAI(requested []amfcontext.SNSSAI) []amfcontext.SNSSAI {
	served := make(map[uint8]bool, len(s.config.AMF.SupportedSNSSAI))
	for _, snssai := range s.config.AMF.SupportedSNSSAI {
		served[snssai.SST] = true
	}

	var allowed []amfcontext.SNSSAI
	for _, req := range requested {
		if served[req.SST] {
			allowed = append(allowed, req)
		}
	}

	if len(allowed) == 0 {
		allowed = []amfcontext.SNSSAI{{SST: 1, SD: "010203"}}
	}
	return allowed
}

// DeregisterUE handles UE deregistration, removing its UDM AMF registration
// and local context.
func (s *RegistrationService) DeregisterUE(ctx context.Context, supi string) error {
	ctx, span := s.tracer.Start(ctx, "RegistrationService.DeregisterUE")
	defer span.End()
	span.SetAttributes(attribute.String("supi", supi))

	ueCtx, exists := s.contextManager.GetContext(supi)
	if !exists {
		return fmt.Errorf("UE context not found")
	}

	if ueCtx.RegistrationState == amfcontext.RegistrationStateRegistered {
		if err := s.udmClient.DeregisterAMF3GPPAccess(ctx, supi); err != nil {
			s.logger.Warn("failed to deregister AMF context with UDM, continuing", zap.String("supi", supi), zap.Error(err))
		}
	}

	ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateDeregistered)
	ueCtx.UpdateConnectionState(amfcontext.ConnectionStateIdle)
	s.contextManager.RemoveContext(supi)
	metrics.SetRegisteredUEs(s.contextManager.GetRegisteredCount())

	s.logger.Info("UE deregistered", zap.String("supi", supi))
	return nil
}

// GetRegistrationStats returns registration statistics
func (s *RegistrationService) GetRegistrationStats() map[string]interface{} {
	return map[string]interface{}{
		"total_contexts": len(s.contextManager.GetAllContexts()),
		"registered_ues": s.contextManager.GetRegisteredCount(),
		"connected_ues":  s.contextManager.GetConnectedCount(),
	}
}

// suciToSUPI strips this emulator's flat SUCI scheme down to a SUPI. Real
// de-concealment happens at AUSF (akahash.DeconcealSUCI); AMF only needs a
// stable key to index its own UE context map before AUSF has resolved one.
func suciToSUPI(suci string) string {
	return suci
}

// buildGUTI constructs a 5G-GUTI as "4" followed by 12 hex digits
// identifying the GUAMI and 8 hex digits of a 5G-TMSI, giving the fixed
// 21-character uppercase-hex shape 3GPP TS 23.003 Clause 2.10 describes.
func buildGUTI(regionID uint8, setID uint16, pointer uint8, mcc, mnc, supi string) string {
	plmnHash := fnv32([]byte(mcc+mnc)) & 0xFFFFF
	guamiHex := fmt.Sprintf("%02X%03X%02X%05X", regionID, setID&0xFFF, pointer, plmnHash)
	tmsiHex := fmt.Sprintf("%08X", fnv32([]byte(supi)))
	return "4" + guamiHex + tmsiHex
}

func fnv32(data []byte) uint32 {
	h := fnv.New32a()
	h.Write(data)
	return h.Sum32()
}
