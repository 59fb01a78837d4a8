// Package service implements the CU's F1AP procedures: F1 Setup (DU
// registers its served cells with the CU), Initial UL RRC Message Transfer
// (DU delivers the UE's RRC Setup Request, CU replies synchronously with
// the DL RRC Message Transfer carrying RRC Setup), and UE Context Setup
// Response (DU confirms the bearers the CU asked it to configure).
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/f1"
	"github.com/fivegcore/emulator/common/metrics"
	cucontext "github.com/fivegcore/emulator/nf/cu/internal/context"
	"github.com/fivegcore/emulator/nf/cu/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ServedCell is the one cell this CU advertises on F1 Setup Response,
// mirroring cu.py's hard-coded served_cells entry for PLMN 001/01.
type ServedCell struct {
	NRCellID uint64
	PCI      uint16
	TAC      string
}

// F1APService implements the F1AP procedures terminated at the CU.
type F1APService struct {
	cfg      *config.Config
	contexts *cucontext.Manager
	logger   *zap.Logger

	servedCell ServedCell
}

// NewF1APService creates the F1AP service.
func NewF1APService(cfg *config.Config, contexts *cucontext.Manager, logger *zap.Logger) *F1APService {
	return &F1APService{
		cfg:      cfg,
		contexts: contexts,
		logger:   logger,
		servedCell: ServedCell{
			NRCellID: 1,
			PCI:      1,
			TAC:      "000001",
		},
	}
}

// Contexts exposes the UE context table for read-only reporting endpoints.
func (s *F1APService) Contexts() *cucontext.Manager {
	return s.contexts
}

// HandleF1SetupRequest processes a DU's F1 Setup Request per TS 38.463
// § 9.2.1.1 and returns the F1 Setup Response activating the DU's served
// cell, grounded on cu.py's create_f1_setup_request (there played back to
// itself as a stub; here answered in the standard DU->CU direction).
func (s *F1APService) HandleF1SetupRequest(ctx context.Context, req *f1.F1SetupRequest) (*f1.F1SetupResponse, error) {
	tracer := otel.Tracer("gnb-cu")
	_, span := tracer.Start(ctx, "F1APService.HandleF1SetupRequest")
	defer span.End()
	span.SetAttributes(attribute.Int64("gnbDuId", int64(req.GNBDUID)))

	s.logger.Info("F1 Setup Request received",
		zap.Uint64("gnb_du_id", req.GNBDUID),
		zap.String("gnb_du_name", req.GNBDUName),
	)

	resp := &f1.F1SetupResponse{
		TransactionID: req.TransactionID,
		GNBCUNAME:     "CU-001",
		CellsToActivate: []*f1.CellToActivate{
			{
				NRCGI: &f1.NRCGI{
					PLMNID:   &f1.PLMNID{MCC: s.cfg.PLMN.MCC, MNC: s.cfg.PLMN.MNC},
					NRCellID: s.servedCell.NRCellID,
				},
			},
		},
		GNBCURRCVersion: &f1.RRCVersion{Latest: []byte(s.cfg.RRC.Version)},
	}

	span.SetAttributes(attribute.Bool("success", true))
	metrics.RecordCUF1APProcedure("f1-setup", "success")
	return resp, nil
}

// HandleInitialULRRCMessageTransfer processes the Initial UL RRC Message
// Transfer per TS 38.463 § 9.2.3.3: it allocates a gNB-CU-UE-F1AP-ID,
// creates the UE context, builds the RRC Setup the UE requested, and
// returns it as a DL RRC Message Transfer. Grounded on
// cu.py's handle_initial_ul_rrc_message / create_rrc_setup.
func (s *F1APService) HandleInitialULRRCMessageTransfer(ctx context.Context, req *f1.InitialULRRCMessage) (*f1.DLRRCMessage, error) {
	tracer := otel.Tracer("gnb-cu")
	_, span := tracer.Start(ctx, "F1APService.HandleInitialULRRCMessageTransfer")
	defer span.End()
	span.SetAttributes(attribute.Int64("gnbDuUeF1apId", int64(req.GNBDUUEF1APID)))

	ueCtx := s.contexts.CreateContext()
	ueCtx.BindGNBDUUEF1APID(req.GNBDUUEF1APID)
	ueCtx.SetConnected(req.CRNTI)
	metrics.SetCUConnectedUEs(s.contexts.Count())

	rrcSetup := s.buildRRCSetup(1, req.GNBDUUEF1APID)
	rrcContainer, err := json.Marshal(rrcSetup)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		metrics.RecordCUF1APProcedure("initial-ul-rrc-message", "encode_failed")
		return nil, apierror.Internal("failed to encode RRC Setup", err)
	}

	s.logger.Info("Initial UL RRC Message Transfer processed",
		zap.Uint32("gnb_cu_ue_f1ap_id", ueCtx.GNBCUUEF1APID),
		zap.Uint32("gnb_du_ue_f1ap_id", req.GNBDUUEF1APID),
	)

	span.SetAttributes(attribute.Bool("success", true))
	metrics.RecordCUF1APProcedure("initial-ul-rrc-message", "success")
	return &f1.DLRRCMessage{
		GNBCUUEF1APID: ueCtx.GNBCUUEF1APID,
		GNBDUUEF1APID: req.GNBDUUEF1APID,
		SRBID:         1,
		RRCContainer:  rrcContainer,
	}, nil
}

// HandleUEContextSetupResponse processes the DU's confirmation of the
// bearers the CU requested, binding the DU-side id (a no-op if already
// bound from Initial UL RRC Message Transfer) and re-confirming CONNECTED.
// Grounded on cu.py's handle_ue_context_setup_response.
func (s *F1APService) HandleUEContextSetupResponse(ctx context.Context, resp *f1.UEContextSetupResponse) error {
	tracer := otel.Tracer("gnb-cu")
	_, span := tracer.Start(ctx, "F1APService.HandleUEContextSetupResponse")
	defer span.End()
	span.SetAttributes(attribute.Int64("gnbCuUeF1apId", int64(resp.GNBCUUEF1APID)))

	ueCtx, ok := s.contexts.GetContext(resp.GNBCUUEF1APID)
	if !ok {
		span.SetAttributes(attribute.Bool("success", false))
		metrics.RecordCUF1APProcedure("ue-context-setup-response", "unknown_ue")
		return apierror.NotFoundf("unknown gNB-CU-UE-F1AP-ID %d", resp.GNBCUUEF1APID)
	}

	ueCtx.BindGNBDUUEF1APID(resp.GNBDUUEF1APID)
	ueCtx.SetConnected(ueCtx.Snapshot().CRNTI)

	s.logger.Info("UE Context Setup Response processed",
		zap.Uint32("gnb_cu_ue_f1ap_id", resp.GNBCUUEF1APID),
		zap.Uint32("gnb_du_ue_f1ap_id", resp.GNBDUUEF1APID),
	)

	span.SetAttributes(attribute.Bool("success", true))
	metrics.RecordCUF1APProcedure("ue-context-setup-response", "success")
	return nil
}

// buildRRCSetup constructs the RRC Setup message per TS 38.331 § 6.2.2:
// SRB1 over RLC-AM with the poll/reassembly timers from config, and a
// master cell group naming the UE's new identity. Mirrors the structure of
// cu.py's create_rrc_setup without carrying over its field names verbatim.
func (s *F1APService) buildRRCSetup(transactionID uint8, newUEIdentity uint32) map[string]interface{} {
	return map[string]interface{}{
		"messageType": "DL-CCCH-Message",
		"message": map[string]interface{}{
			"rrcTransactionIdentifier": transactionID,
			"criticalExtensions": map[string]interface{}{
				"rrcSetup": map[string]interface{}{
					"radioBearerConfig": map[string]interface{}{
						"srbToAddModList": []map[string]interface{}{
							{
								"srbIdentity": 1,
								"rlcConfig": map[string]interface{}{
									"am": map[string]interface{}{
										"ulAmRlc": map[string]interface{}{
											"snFieldLength":    fmt.Sprintf("size%d", s.cfg.RRC.SNFieldLengthBits),
											"tPollRetransmit":  fmt.Sprintf("ms%d", s.cfg.RRC.TPollRetransmitMS),
											"pollPdu":          "p4",
											"pollByte":         "kB25",
											"maxRetxThreshold": "t4",
										},
										"dlAmRlc": map[string]interface{}{
											"snFieldLength": fmt.Sprintf("size%d", s.cfg.RRC.SNFieldLengthBits),
											"tReassembly":   fmt.Sprintf("ms%d", s.cfg.RRC.TReassemblyMS),
										},
									},
								},
							},
						},
					},
					"masterCellGroup": map[string]interface{}{
						"cellGroupId": 0,
						"spCellConfig": map[string]interface{}{
							"servCellIndex": 0,
							"reconfigurationWithSync": map[string]interface{}{
								"spCellConfigCommon": map[string]interface{}{
									"physCellId": s.servedCell.PCI,
								},
								"newUeIdentity": newUEIdentity,
								"t304":          "ms1000",
							},
						},
					},
				},
			},
		},
	}
}
