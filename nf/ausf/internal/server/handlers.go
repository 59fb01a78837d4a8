package server

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/ausf/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleUEAuthenticationRequest handles POST request to initiate UE authentication
func (s *AUSFServer) handleUEAuthenticationRequest(w http.ResponseWriter, r *http.Request) {
	var req service.UEAuthenticationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	s.logger.Info("received UE authentication request",
		zap.String("supi", req.SUPI),
		zap.String("serving_network", req.ServingNetworkName),
	)

	response, err := s.authService.UEAuthenticationCtx(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, response)
}

// handleConfirm5gAkaAuth handles PUT request to confirm 5G-AKA authentication
func (s *AUSFServer) handleConfirm5gAkaAuth(w http.ResponseWriter, r *http.Request) {
	authCtxID := chi.URLParam(r, "authCtxId")

	var confirmData service.ConfirmationData
	if err := json.NewDecoder(r.Body).Decode(&confirmData); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	response, err := s.authService.Confirm5gAkaAuth(r.Context(), authCtxID, &confirmData)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, response)
}

// handleGetStats handles GET request for statistics
func (s *AUSFServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.authService.GetStats()

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service":    "AUSF",
		"version":    "1.0.0",
		"auth_stats": stats,
	})
}

// handleGetAuthContext handles GET request for auth context (test only — not
// a 3GPP interface, exposes hxres for driving the confirmation step without a
// real UE).
func (s *AUSFServer) handleGetAuthContext(w http.ResponseWriter, r *http.Request) {
	authCtxID := chi.URLParam(r, "authCtxId")

	authCtx, err := s.authService.GetAuthContext(authCtxID)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"authCtxId":          authCtx.AuthCtxID,
		"supi":               authCtx.SUPI,
		"authType":           authCtx.AuthType,
		"status":             authCtx.Status,
		"rand":               authCtx.RAND,
		"autn":               authCtx.AUTN,
		"hxres":              authCtx.HXRES,
		"servingNetworkName": authCtx.ServingNetworkName,
	})
}
