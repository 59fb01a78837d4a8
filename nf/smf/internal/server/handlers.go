package server

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/smf/internal/service"
	"go.uber.org/zap"
)

// handleHealthCheck handles GET /health
func (s *SMFServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleReadinessCheck handles GET /ready
func (s *SMFServer) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleStatus handles GET /status
func (s *SMFServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"service": "SMF",
		"name":    s.config.SMF.Name,
		"stats":   s.sessionService.GetSessionStatistics(),
	})
}

// handleCreateSMContext handles POST /nsmf-pdusession/v1/sm-contexts
// TS 29.502, Clause 5.2.2.2.1
func (s *SMFServer) handleCreateSMContext(w http.ResponseWriter, r *http.Request) {
	var req service.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.sessionService.CreateSession(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		metrics.RecordPDUSessionEstablishment("initial", "failed")
		return
	}

	metrics.RecordPDUSessionEstablishment("initial", "success")
	stats := s.sessionService.GetSessionStatistics()
	if activeSessions, ok := stats["active_sessions"].(int); ok {
		metrics.SetActivePDUSessions(activeSessions)
	}

	s.logger.Info("PDU session created via API",
		zap.Uint8("pdu_session_id", resp.PDUSessionID),
		zap.String("ue_ip", resp.UEIPAddress),
	)

	respond.JSON(w, http.StatusCreated, resp)
}

// handleUpdateSMContext handles PUT /nsmf-pdusession/v1/sm-contexts/{smContextRef}/modify
// TS 29.502, Clause 5.2.2.3.1
func (s *SMFServer) handleUpdateSMContext(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	s.logger.Info("PDU session update requested",
		zap.String("supi", req.SUPI),
		zap.Uint8("pdu_session_id", req.PDUSessionID),
	)

	respond.JSON(w, http.StatusOK, service.UpdateSessionResponse{
		Result:       "SUCCESS",
		SUPI:         req.SUPI,
		PDUSessionID: req.PDUSessionID,
	})
}

// handleReleaseSMContext handles POST /nsmf-pdusession/v1/sm-contexts/{smContextRef}/release
// TS 29.502, Clause 5.2.2.4.1
func (s *SMFServer) handleReleaseSMContext(w http.ResponseWriter, r *http.Request) {
	var req service.ReleaseSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.sessionService.ReleaseSession(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	s.logger.Info("PDU session released via API",
		zap.String("supi", resp.SUPI),
		zap.Uint8("pdu_session_id", resp.PDUSessionID),
	)

	respond.JSON(w, http.StatusOK, resp)
}

// handleListSessions handles GET /smf/sessions - debug introspection.
func (s *SMFServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	keys := s.sessionService.ListSessionKeys()
	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"activeSessions": len(keys),
		"sessions":       keys,
	})
}

// handleGetStats handles GET /admin/stats
func (s *SMFServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, s.sessionService.GetSessionStatistics())
}
