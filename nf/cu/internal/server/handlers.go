package server

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/f1"
	"github.com/fivegcore/emulator/common/respond"
)

// handleF1SetupRequest handles POST /f1ap/f1-setup-request.
func (s *CUServer) handleF1SetupRequest(w http.ResponseWriter, r *http.Request) {
	var req f1.F1SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.f1apService.HandleF1SetupRequest(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleInitialULRRCMessageTransfer handles POST /f1ap/initial-ul-rrc-message.
func (s *CUServer) handleInitialULRRCMessageTransfer(w http.ResponseWriter, r *http.Request) {
	var req f1.InitialULRRCMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.f1apService.HandleInitialULRRCMessageTransfer(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleUEContextSetupResponse handles POST /f1ap/ue-context-setup-response.
func (s *CUServer) handleUEContextSetupResponse(w http.ResponseWriter, r *http.Request) {
	var resp f1.UEContextSetupResponse
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	if err := s.f1apService.HandleUEContextSetupResponse(r.Context(), &resp); err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "SUCCESS"})
}

// handleListUEContexts handles GET /cu/ue-contexts.
func (s *CUServer) handleListUEContexts(w http.ResponseWriter, r *http.Request) {
	contexts := s.f1apService.Contexts().GetAll()

	views := make([]interface{}, 0, len(contexts))
	for _, ctx := range contexts {
		views = append(views, ctx.Snapshot())
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"total": len(views),
		"ueContexts": views,
	})
}
