// Package service implements the UPF's N4 (PFCP) and GTP-U processing logic
// behind the HTTP/JSON surface: session establishment, modification and
// deletion, backed by the per-session rule bookkeeping in internal/context
// and the rate/priority enforcement in internal/qos.
package service

import (
	"context"
	"fmt"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/fivegcore/emulator/common/metrics"
	upfcontext "github.com/fivegcore/emulator/nf/upf/internal/context"
	"github.com/fivegcore/emulator/nf/upf/internal/qos"
	"go.uber.org/zap"
)

// PFCPService implements PFCP session CRUD over HTTP/JSON.
type PFCPService struct {
	ctx      *upfcontext.UPFContext
	enforcer *qos.Enforcer
	logger   *zap.Logger
}

// NewPFCPService builds a PFCPService over a shared UPF context and enforcer.
func NewPFCPService(ctx *upfcontext.UPFContext, enforcer *qos.Enforcer, logger *zap.Logger) *PFCPService {
	return &PFCPService{ctx: ctx, enforcer: enforcer, logger: logger}
}

// FTEIDWire is the wire shape of a Fully Qualified TEID.
type FTEIDWire struct {
	TEID        uint32 `json:"teid"`
	IPv4Address string `json:"ipv4Address,omitempty"`
}

// UEIPWire is the wire shape of a UE IP address constraint on a PDI.
type UEIPWire struct {
	IPv4 string `json:"ipv4,omitempty"`
	IPv6 string `json:"ipv6,omitempty"`
}

// PDIWire is the wire shape of Packet Detection Information.
type PDIWire struct {
	SourceInterface string     `json:"sourceInterface"`
	NetworkInstance string     `json:"networkInstance,omitempty"`
	LocalFTEID      *FTEIDWire `json:"localFteid,omitempty"`
	UEIPAddress     *UEIPWire  `json:"ueIpAddress,omitempty"`
}

// PDRWire is the wire shape of a Packet Detection Rule.
type PDRWire struct {
	PDRID              uint16   `json:"pdrId"`
	Precedence         uint32   `json:"precedence"`
	PDI                PDIWire  `json:"pdi"`
	OuterHeaderRemoval bool     `json:"outerHeaderRemoval,omitempty"`
	FARID              uint32   `json:"farId"`
	QERID              []uint32 `json:"qerId,omitempty"`
}

// ForwardingParamsWire is the wire shape of a FAR's forwarding parameters.
type ForwardingParamsWire struct {
	DestinationInterface string     `json:"destinationInterface"`
	OuterHeaderCreation  *FTEIDWire `json:"outerHeaderCreation,omitempty"`
}

// FARWire is the wire shape of a Forwarding Action Rule.
type FARWire struct {
	FARID                uint32                `json:"farId"`
	ApplyAction          string                `json:"applyAction"` // FORWARD, DROP, BUFFER
	ForwardingParameters *ForwardingParamsWire `json:"forwardingParameters,omitempty"`
}

// BitRateWire is the wire shape of an MBR or GBR pair.
type BitRateWire struct {
	Uplink   int64 `json:"uplink"`
	Downlink int64 `json:"downlink"`
}

// QERWire is the wire shape of a QoS Enforcement Rule.
type QERWire struct {
	QERID      uint32       `json:"qerId"`
	QFI        uint8        `json:"qfi"`
	Var5QI     int          `json:"var5qi"`
	GateStatus string       `json:"gateStatus,omitempty"` // OPEN, CLOSED
	MBR        *BitRateWire `json:"mbr,omitempty"`
	GBR        *BitRateWire `json:"gbr,omitempty"`
}

// URRWire is the wire shape of a Usage Reporting Rule.
type URRWire struct {
	URRID             uint32 `json:"urrId"`
	MeasurementMethod string `json:"measurementMethod,omitempty"`
}

// SessionEstablishmentRequest is the body of POST /pfcp/v1/sessions.
type SessionEstablishmentRequest struct {
	MessageType string    `json:"messageType,omitempty"`
	NodeID      string    `json:"nodeId,omitempty"`
	CPFSEID     uint64    `json:"cpfSeid,omitempty"`
	DNN         string    `json:"dnn,omitempty"`
	CreatePDR   []PDRWire `json:"createPDR,omitempty"`
	CreateFAR   []FARWire `json:"createFAR,omitempty"`
	CreateQER   []QERWire `json:"createQER,omitempty"`
	CreateURR   []URRWire `json:"createURR,omitempty"`
}

// SessionEstablishmentResponse is the body returned from session establishment.
type SessionEstablishmentResponse struct {
	UPFSEID       uint64   `json:"upfSeid"`
	UEIPv4Address string   `json:"ueIpv4Address,omitempty"`
	UEIPv6Address string   `json:"ueIpv6Address,omitempty"`
	CreatedPDRIDs []uint16 `json:"createdPdrIds"`
	TunnelIDs     []string `json:"tunnelIds,omitempty"`
}

// SessionModificationRequest is the body of PATCH /pfcp/v1/sessions/{seid}.
type SessionModificationRequest struct {
	UpdatePDR []PDRWire `json:"updatePdr,omitempty"`
	UpdateFAR []FARWire `json:"updateFar,omitempty"`
	UpdateQER []QERWire `json:"updateQer,omitempty"`
}

// SessionModificationResponse acknowledges a modification.
type SessionModificationResponse struct {
	UPFSEID     uint64 `json:"upfSeid"`
	UpdatedPDRs int    `json:"updatedPdrCount"`
	UpdatedFARs int    `json:"updatedFarCount"`
	UpdatedQERs int    `json:"updatedQerCount"`
}

// TrafficStatsWire is the wire shape of a session's traffic counters.
type TrafficStatsWire struct {
	UplinkBytes     uint64 `json:"uplinkBytes"`
	DownlinkBytes   uint64 `json:"downlinkBytes"`
	UplinkPackets   uint64 `json:"uplinkPackets"`
	DownlinkPackets uint64 `json:"downlinkPackets"`
	DroppedPackets  uint64 `json:"droppedPackets"`
}

// SessionDeletionResponse is the body returned from session deletion,
// carrying a final snapshot of the session's traffic statistics.
type SessionDeletionResponse struct {
	UPFSEID         uint64           `json:"upfSeid"`
	FinalStatistics TrafficStatsWire `json:"finalStatistics"`
}

func tunnelIDFor(seid uint64, pdrID uint16) string {
	return fmt.Sprintf("tun-%d-%d", seid, pdrID)
}

// Establish creates a new PFCP session: allocates a UE address, records
// PDR/FAR/QER, and creates a GTP tunnel for every F-TEID-carrying PDR.
// createURR entries are accepted in the request but not stored.
func (s *PFCPService) Establish(ctx context.Context, req *SessionEstablishmentRequest) (*SessionEstablishmentResponse, error) {
	metrics.RecordUPFPFCPMessage("session-establishment-request")

	seid := s.ctx.NextSEID()
	session := s.ctx.CreateSession(seid)
	session.DNN = req.DNN

	ip, err := s.ctx.AllocateUEIPv4()
	if err != nil {
		s.ctx.DeleteSession(seid)
		metrics.RecordUPFPFCPSessionEstablishment("failure")
		return nil, apierror.ResourceExhaustedf("IPv4 address pool exhausted: %v", err)
	}
	session.UEAddress = ip

	qerByID := make(map[uint32]QERWire, len(req.CreateQER))
	for _, qer := range req.CreateQER {
		qerByID[qer.QERID] = qer
		session.QERs = append(session.QERs, upfcontext.QER{
			QERID:      qer.QERID,
			QFI:        qer.QFI,
			GateStatus: gateStatusValue(qer.GateStatus),
			MBR:        bitRateToMBR(qer.MBR),
			GBR:        bitRateToGBR(qer.GBR),
		})
	}

	for _, far := range req.CreateFAR {
		session.FARs = append(session.FARs, upfcontext.FAR{
			FARID:       far.FARID,
			ApplyAction: applyActionValue(far.ApplyAction),
		})
	}

	resp := &SessionEstablishmentResponse{
		UPFSEID:       seid,
		UEIPv4Address: ip.String(),
	}

	for _, pdr := range req.CreatePDR {
		var qerID uint32
		if len(pdr.QERID) > 0 {
			qerID = pdr.QERID[0]
		}
		session.PDRs = append(session.PDRs, upfcontext.PDR{
			PDRID:      pdr.PDRID,
			Precedence: pdr.Precedence,
			FARID:      pdr.FARID,
			QERID:      qerID,
		})
		resp.CreatedPDRIDs = append(resp.CreatedPDRIDs, pdr.PDRID)

		if pdr.PDI.LocalFTEID == nil {
			continue
		}

		var5qi, mbrUL, mbrDL := 9, int64(0), int64(0)
		if len(pdr.QERID) > 0 {
			if qer, ok := qerByID[pdr.QERID[0]]; ok {
				var5qi = qer.Var5QI
				if qer.MBR != nil {
					mbrUL, mbrDL = qer.MBR.Uplink, qer.MBR.Downlink
				}
			}
		}

		tunnelID := tunnelIDFor(seid, pdr.PDRID)
		s.ctx.RegisterTunnel(&upfcontext.GTPTunnel{
			TunnelID: tunnelID,
			SEID:     seid,
			TEID:     pdr.PDI.LocalFTEID.TEID,
			Var5QI:   var5qi,
			MBRUL:    mbrUL,
			MBRDL:    mbrDL,
		})
		s.enforcer.Configure(tunnelID, "uplink", mbrUL)
		s.enforcer.Configure(tunnelID, "downlink", mbrDL)
		resp.TunnelIDs = append(resp.TunnelIDs, tunnelID)
	}

	metrics.RecordUPFPFCPSessionEstablishment("success")
	s.logger.Info("PFCP session established",
		zap.Uint64("seid", seid),
		zap.String("ue_ipv4", ip.String()),
		zap.Int("tunnels", len(resp.TunnelIDs)),
	)

	return resp, nil
}

// Modify applies updatePdr/updateFar/updateQer arrays to an existing
// session, live-reflecting MBR changes into the token bucket enforcer. GBR
// values are stored on the session's QER and do not affect enforcement.
func (s *PFCPService) Modify(ctx context.Context, seid uint64, req *SessionModificationRequest) (*SessionModificationResponse, error) {
	metrics.RecordUPFPFCPMessage("session-modification-request")

	session, ok := s.ctx.GetSession(seid)
	if !ok {
		return nil, apierror.NotFoundf("PFCP session %d not found", seid)
	}

	for _, qer := range req.UpdateQER {
		for i := range session.QERs {
			if session.QERs[i].QERID == qer.QERID {
				session.QERs[i].MBR = bitRateToMBR(qer.MBR)
				session.QERs[i].GBR = bitRateToGBR(qer.GBR)
				session.QERs[i].GateStatus = gateStatusValue(qer.GateStatus)
			}
		}

		for _, tunnel := range s.ctx.TunnelsForSession(seid) {
			if referencesQER(session, tunnel, qer.QERID) {
				mbrUL, mbrDL := int64(0), int64(0)
				if qer.MBR != nil {
					mbrUL, mbrDL = qer.MBR.Uplink, qer.MBR.Downlink
				}
				s.enforcer.Configure(tunnel.TunnelID, "uplink", mbrUL)
				s.enforcer.Configure(tunnel.TunnelID, "downlink", mbrDL)
			}
		}
	}

	for _, far := range req.UpdateFAR {
		for i := range session.FARs {
			if session.FARs[i].FARID == far.FARID {
				session.FARs[i].ApplyAction = applyActionValue(far.ApplyAction)
			}
		}
	}

	for _, pdr := range req.UpdatePDR {
		for i := range session.PDRs {
			if session.PDRs[i].PDRID == pdr.PDRID {
				session.PDRs[i].Precedence = pdr.Precedence
				session.PDRs[i].FARID = pdr.FARID
				if len(pdr.QERID) > 0 {
					session.PDRs[i].QERID = pdr.QERID[0]
				}
			}
		}
	}

	s.ctx.UpdateActivity(seid)

	return &SessionModificationResponse{
		UPFSEID:     seid,
		UpdatedPDRs: len(req.UpdatePDR),
		UpdatedFARs: len(req.UpdateFAR),
		UpdatedQERs: len(req.UpdateQER),
	}, nil
}

// referencesQER reports whether the PDR backing this tunnel references qerID.
func referencesQER(session *upfcontext.UPFSession, tunnel *upfcontext.GTPTunnel, qerID uint32) bool {
	for _, pdr := range session.PDRs {
		if tunnelIDFor(tunnel.SEID, pdr.PDRID) == tunnel.TunnelID && pdr.QERID == qerID {
			return true
		}
	}
	return false
}

// Delete removes a session, releasing its IP, tunnels, QoS state and
// returning a final snapshot of its traffic statistics.
func (s *PFCPService) Delete(ctx context.Context, seid uint64) (*SessionDeletionResponse, error) {
	metrics.RecordUPFPFCPMessage("session-deletion-request")

	if _, ok := s.ctx.GetSession(seid); !ok {
		return nil, apierror.NotFoundf("PFCP session %d not found", seid)
	}

	for _, tunnelID := range s.ctx.RemoveTunnelsForSession(seid) {
		s.enforcer.RemoveTunnel(tunnelID)
	}
	final := s.ctx.RemoveTrafficStats(seid)
	s.ctx.DeleteSession(seid)

	s.logger.Info("PFCP session deleted", zap.Uint64("seid", seid))

	return &SessionDeletionResponse{
		UPFSEID: seid,
		FinalStatistics: TrafficStatsWire{
			UplinkBytes:     final.UplinkBytes,
			DownlinkBytes:   final.DownlinkBytes,
			UplinkPackets:   final.UplinkPackets,
			DownlinkPackets: final.DownlinkPackets,
			DroppedPackets:  final.DroppedPackets,
		},
	}, nil
}

func gateStatusValue(s string) uint8 {
	if s == "CLOSED" {
		return 1
	}
	return 0
}

func applyActionValue(s string) uint8 {
	switch s {
	case "DROP":
		return 0x01
	case "BUFFER":
		return 0x04
	default:
		return 0x02 // FORWARD
	}
}

func bitRateToMBR(b *BitRateWire) *upfcontext.MBR {
	if b == nil {
		return nil
	}
	return &upfcontext.MBR{Uplink: uint64(b.Uplink), Downlink: uint64(b.Downlink)}
}

func bitRateToGBR(b *BitRateWire) *upfcontext.GBR {
	if b == nil {
		return nil
	}
	return &upfcontext.GBR{Uplink: uint64(b.Uplink), Downlink: uint64(b.Downlink)}
}
