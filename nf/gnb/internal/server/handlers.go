package server

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/gnb/internal/service"
)

// handleInitialUEMessage handles POST /ngap/initial-ue-message.
func (s *GNBServer) handleInitialUEMessage(w http.ResponseWriter, r *http.Request) {
	var req service.InitialUEMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.ngapService.HandleInitialUEMessage(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleDownlinkNASTransport handles POST /ngap/downlink-nas-transport.
func (s *GNBServer) handleDownlinkNASTransport(w http.ResponseWriter, r *http.Request) {
	var req service.DownlinkNASTransportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	if err := s.ngapService.HandleDownlinkNASTransport(r.Context(), &req); err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "SUCCESS"})
}

// handleUEContextSetupRequest handles POST /ngap/ue-context-setup-request.
// An unknown ran-ue-ngap-id is a normal NGAP outcome, conveyed as HTTP 200
// with an unsuccessfulOutcome envelope rather than a non-2xx status.
func (s *GNBServer) handleUEContextSetupRequest(w http.ResponseWriter, r *http.Request) {
	var req service.UEContextSetupRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.ngapService.HandleUEContextSetupRequest(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handlePDUSessionResourceSetupRequest handles POST
// /ngap/pdu-session-resource-setup-request.
func (s *GNBServer) handlePDUSessionResourceSetupRequest(w http.ResponseWriter, r *http.Request) {
	var req service.PDUSessionResourceSetupRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.ngapService.HandlePDUSessionResourceSetupRequest(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleHandoverRequest handles POST /ngap/handover-request.
func (s *GNBServer) handleHandoverRequest(w http.ResponseWriter, r *http.Request) {
	var req service.HandoverRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.ngapService.HandleHandoverRequest(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleListUEContexts handles GET /ngap/ue-contexts.
func (s *GNBServer) handleListUEContexts(w http.ResponseWriter, r *http.Request) {
	contexts := s.ngapService.Contexts().GetAll()

	views := make([]interface{}, 0, len(contexts))
	for _, ctx := range contexts {
		views = append(views, ctx.Snapshot())
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"total": len(views),
		"ues":   views,
	})
}
