package server

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/amf/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleRegistrationRequest handles POST /nas/registration-request.
func (s *AMFServer) handleRegistrationRequest(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	s.logger.Info("received registration request",
		zap.String("suci", req.SUCI),
		zap.String("type", req.RegistrationType),
	)

	resp, err := s.registrationService.RegisterUE(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleAuthenticationResponse handles POST /nas/authentication-response.
// Authentication failure is a normal NAS outcome, conveyed as HTTP 200 with
// status AUTHENTICATION_FAILURE in the body - never as a non-2xx status.
func (s *AMFServer) handleAuthenticationResponse(w http.ResponseWriter, r *http.Request) {
	var req service.AuthenticationResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	s.logger.Info("received authentication response", zap.String("auth_ctx_id", req.AuthCtxID))

	resp, err := s.registrationService.ConfirmAuthenticationResponse(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleSecurityModeComplete handles POST /nas/security-mode-complete.
func (s *AMFServer) handleSecurityModeComplete(w http.ResponseWriter, r *http.Request) {
	var req service.SecurityModeCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.registrationService.CompleteSecurityMode(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("%v", err))
		return
	}

	s.logger.Info("UE registered successfully",
		zap.String("supi", req.SUPI),
		zap.String("guti", resp.GUTI),
	)

	respond.JSON(w, http.StatusCreated, resp)
}

// handleDeregistration handles DELETE /nas/ue-contexts/{supi}.
func (s *AMFServer) handleDeregistration(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	if err := s.registrationService.DeregisterUE(r.Context(), supi); err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("%v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handlePDUSessionEstablishment handles POST
// /nas/pdu-session-establishment-request.
func (s *AMFServer) handlePDUSessionEstablishment(w http.ResponseWriter, r *http.Request) {
	var req service.EstablishmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.pduSessionService.Establish(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("%v", err))
		return
	}

	respond.JSON(w, http.StatusCreated, resp)
}

// handleGetUEContext handles GET /nas/ue-contexts/{supi}.
func (s *AMFServer) handleGetUEContext(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	ueCtx, exists := s.contextManager.GetContext(supi)
	if !exists {
		respond.Error(w, s.logger, apierror.NotFoundf("UE context not found: %s", supi))
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"supi":              ueCtx.SUPI,
		"registrationState": ueCtx.RegistrationState,
		"connectionState":   ueCtx.ConnectionState,
		"guti":              ueCtx.GUTI,
		"guami":             ueCtx.GUAMI,
		"tai":               ueCtx.TAI,
		"allowedNssai":      ueCtx.AllowedNSSAI,
	})
}

// handleReleaseUEContext handles POST /nas/ue-contexts/{supi}/release.
func (s *AMFServer) handleReleaseUEContext(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	if err := s.registrationService.DeregisterUE(r.Context(), supi); err != nil {
		respond.Error(w, s.logger, apierror.NotFoundf("%v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListUEContexts handles GET /nas/ue-contexts.
func (s *AMFServer) handleListUEContexts(w http.ResponseWriter, r *http.Request) {
	contexts := s.contextManager.GetAllContexts()

	ueList := make([]map[string]interface{}, 0, len(contexts))
	for _, ctx := range contexts {
		ueList = append(ueList, map[string]interface{}{
			"supi":              ctx.SUPI,
			"registrationState": ctx.RegistrationState,
			"connectionState":   ctx.ConnectionState,
			"guti":              ctx.GUTI,
			"guami":             ctx.GUAMI,
			"registeredAt":      ctx.RegisteredAt,
			"lastActivityAt":    ctx.LastActivityAt,
		})
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"total": len(ueList),
		"ues":   ueList,
	})
}

// handleGetStats handles GET /admin/stats.
func (s *AMFServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.registrationService.GetRegistrationStats()

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service": "AMF",
		"version": "1.0.0",
		"guami":   s.config.GetGUAMI(),
		"plmn": map[string]string{
			"mcc": s.config.PLMN.MCC,
			"mnc": s.config.PLMN.MNC,
			"tac": s.config.PLMN.TAC,
		},
		"registration_stats": stats,
	})
}
