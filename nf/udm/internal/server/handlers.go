package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/udm/internal/client"
	"github.com/fivegcore/emulator/nf/udm/internal/service"
	"go.uber.org/zap"
)

// Authentication Service Handlers (Nudm_UEAuthentication)

func (s *UDMServer) handleGenerateAuthData(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	var authInfo service.AuthenticationInfo
	if err := json.NewDecoder(r.Body).Decode(&authInfo); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}
	authInfo.SUPI = supi

	result, err := s.authService.GenerateAuthData(r.Context(), &authInfo)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Info("generated authentication data", zap.String("supi", supi))
	respond.JSON(w, http.StatusOK, result)
}

func (s *UDMServer) handleConfirmAuth(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	var authEvent struct {
		AuthResult string `json:"authResult"`
	}
	if err := json.NewDecoder(r.Body).Decode(&authEvent); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	success := authEvent.AuthResult == "" || authEvent.AuthResult == "AUTHENTICATION_SUCCESS"
	if err := s.authService.ConfirmAuth(r.Context(), supi, success, s.config.PLMN.MCC+s.config.PLMN.MNC); err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]string{"status": "confirmed"})
}

// Subscriber Data Management Handlers (Nudm_SDM)

func (s *UDMServer) handleGetAMData(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	plmnID := &client.PLMNID{MCC: s.config.PLMN.MCC, MNC: s.config.PLMN.MNC}

	amData, err := s.sdmService.GetAMData(r.Context(), supi, plmnID)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Debug("retrieved AM data", zap.String("supi", supi))
	respond.JSON(w, http.StatusOK, amData)
}

func (s *UDMServer) handleGetSMData(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")
	dnn := r.URL.Query().Get("dnn")

	plmnID := &client.PLMNID{MCC: s.config.PLMN.MCC, MNC: s.config.PLMN.MNC}

	smData, err := s.sdmService.GetSMData(r.Context(), supi, plmnID, dnn)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Debug("retrieved SM data", zap.String("supi", supi), zap.String("dnn", dnn))
	respond.JSON(w, http.StatusOK, smData)
}

func (s *UDMServer) handleSubscribeSDM(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	var subscription struct {
		CallbackReference     string   `json:"callbackReference"`
		MonitoredResourceUris []string `json:"monitoredResourceUris"`
	}
	if err := json.NewDecoder(r.Body).Decode(&subscription); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	subscriptionID, err := s.sdmService.SubscribeToDataChanges(r.Context(), supi, subscription.CallbackReference)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, map[string]string{
		"subscriptionId":    subscriptionID,
		"callbackReference": subscription.CallbackReference,
	})
}

func (s *UDMServer) handleUnsubscribeSDM(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")
	subscriptionID := chi.URLParam(r, "subscriptionId")

	if err := s.sdmService.UnsubscribeFromDataChanges(r.Context(), subscriptionID); err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Info("SDM subscription deleted", zap.String("supi", supi), zap.String("subscription_id", subscriptionID))
	w.WriteHeader(http.StatusNoContent)
}

// UE Context Management Handlers (Nudm_UECM)

func (s *UDMServer) handleRegisterAMF3GPP(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	var registration service.AMF3GPPAccessRegistration
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	if err := s.uecmService.RegisterAMF3GPPAccess(r.Context(), supi, &registration); err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Info("AMF registered", zap.String("supi", supi), zap.String("amf_instance_id", registration.AMFInstanceID))
	respond.JSON(w, http.StatusCreated, &registration)
}

func (s *UDMServer) handleUpdateAMF3GPP(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	if err := s.uecmService.UpdateAMF3GPPAccess(r.Context(), supi, updates); err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Info("AMF registration updated", zap.String("supi", supi))
	w.WriteHeader(http.StatusNoContent)
}

func (s *UDMServer) handleGetAMF3GPP(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	registration, err := s.uecmService.Get3GPPRegistration(r.Context(), supi)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Debug("retrieved AMF registration", zap.String("supi", supi))
	respond.JSON(w, http.StatusOK, registration)
}

func (s *UDMServer) handleDeregisterAMF3GPP(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	if err := s.uecmService.DeregisterAMF3GPPAccess(r.Context(), supi); err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Info("AMF deregistered", zap.String("supi", supi))
	w.WriteHeader(http.StatusNoContent)
}

func (s *UDMServer) handleGetUEContext(w http.ResponseWriter, r *http.Request) {
	supi := chi.URLParam(r, "supi")

	ueContext, err := s.uecmService.GetUEContext(r.Context(), supi)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Debug("retrieved UE context", zap.String("supi", supi))
	respond.JSON(w, http.StatusOK, ueContext)
}

// Admin Handlers

func (s *UDMServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.uecmService.GetStats()

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service":    "UDM",
		"version":    "1.0.0",
		"uecm_stats": stats,
	})
}
