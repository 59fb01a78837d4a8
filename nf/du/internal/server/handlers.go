package server

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/du/internal/service"
)

// handleProcessPRACH handles POST /phy/process-prach.
func (s *DUServer) handleProcessPRACH(w http.ResponseWriter, r *http.Request) {
	var req service.PRACHRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.stack.ProcessPRACH(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleInitialULRRCMessageTransfer handles POST /f1ap/initial-ul-rrc-message.
func (s *DUServer) handleInitialULRRCMessageTransfer(w http.ResponseWriter, r *http.Request) {
	var req service.InitialULRRCTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.stack.ForwardInitialULRRCMessage(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleScheduleUplink handles GET /mac/schedule-uplink.
func (s *DUServer) handleScheduleUplink(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, s.stack.ScheduleUplink())
}

// handleScheduleDownlink handles GET /mac/schedule-downlink.
func (s *DUServer) handleScheduleDownlink(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, s.stack.ScheduleDownlink())
}

// handleHARQFeedback handles POST /mac/harq-feedback.
func (s *DUServer) handleHARQFeedback(w http.ResponseWriter, r *http.Request) {
	var req service.HARQFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	s.stack.ProcessHARQFeedback(&req)
	respond.JSON(w, http.StatusOK, map[string]string{"status": "SUCCESS"})
}

// handleRLCProcessSDU handles POST /rlc/process-sdu.
func (s *DUServer) handleRLCProcessSDU(w http.ResponseWriter, r *http.Request) {
	var req service.RLCSDURequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.stack.TransmitRLCSDU(&req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handlePDCPProcessSDU handles POST /pdcp/process-sdu.
func (s *DUServer) handlePDCPProcessSDU(w http.ResponseWriter, r *http.Request) {
	var req service.PDCPSDURequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.stack.TransmitPDCPSDU(&req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleListUEContexts handles GET /du/ue-contexts.
func (s *DUServer) handleListUEContexts(w http.ResponseWriter, r *http.Request) {
	contexts := s.stack.Contexts().GetAll()

	views := make([]interface{}, 0, len(contexts))
	for _, ctx := range contexts {
		views = append(views, ctx.Snapshot())
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"total":      len(views),
		"ueContexts": views,
	})
}
