package server

import (
	"encoding/json"
	"net/http"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/pcf/internal/service"
	"github.com/go-chi/chi/v5"
)

// handleCreatePolicy handles POST /npcf-smpolicycontrol/v1/sm-policies
func (s *PCFServer) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	assoc, err := s.service.Create(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, associationToWire(assoc))
}

// handleGetPolicy handles GET /npcf-smpolicycontrol/v1/sm-policies/{assocId}
func (s *PCFServer) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	assocID := chi.URLParam(r, "assocId")

	assoc, err := s.service.Get(assocID)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, associationToWire(assoc))
}

// handleUpdatePolicy handles PATCH /npcf-smpolicycontrol/v1/sm-policies/{assocId}
func (s *PCFServer) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	assocID := chi.URLParam(r, "assocId")

	var req service.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	assoc, err := s.service.Update(r.Context(), assocID, &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, associationToWire(assoc))
}

func associationToWire(assoc *service.PolicyAssociation) map[string]interface{} {
	return map[string]interface{}{
		"assocId":      assoc.AssocID,
		"supi":         assoc.SUPI,
		"pduSessionId": assoc.PduSessionID,
		"dnn":          assoc.DNN,
		"smPolicyDecision": assoc.Decision,
	}
}
