package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/respond"
	"github.com/fivegcore/emulator/nf/upf/internal/service"
	"github.com/go-chi/chi/v5"
)

// handleEstablishSession handles POST /pfcp/v1/sessions
func (s *Server) handleEstablishSession(w http.ResponseWriter, r *http.Request) {
	var req service.SessionEstablishmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.pfcpService.Establish(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusCreated, resp)
}

// handleModifySession handles PATCH /pfcp/v1/sessions/{seid}
func (s *Server) handleModifySession(w http.ResponseWriter, r *http.Request) {
	seid, err := parseSEID(r)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	var req service.SessionModificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.pfcpService.Modify(r.Context(), seid, &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleDeleteSession handles DELETE /pfcp/v1/sessions/{seid}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	seid, err := parseSEID(r)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	resp, err := s.pfcpService.Delete(r.Context(), seid)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

// handleProcessPacket handles POST /gtp-u/process-packet
func (s *Server) handleProcessPacket(w http.ResponseWriter, r *http.Request) {
	var req service.ProcessPacketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, s.logger, apierror.InvalidArgumentf("invalid request body: %v", err))
		return
	}

	resp, err := s.gtpuService.ProcessPacket(r.Context(), &req)
	if err != nil {
		respond.Error(w, s.logger, err)
		return
	}

	respond.JSON(w, http.StatusOK, resp)
}

func parseSEID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "seid")
	seid, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, apierror.InvalidArgumentf("invalid seid %q", raw)
	}
	return seid, nil
}
