// Package n4 implements the SMF's PFCP (N4) client toward the UPF.
// 3GPP TS 29.244 - Interface between Control Plane and User Plane nodes.
//
// The wire shapes here mirror the UPF's HTTP/JSON N4 surface
// (internal/service/pfcp_service.go on the UPF side), which additionally
// accepts a QER gateStatus and createURR that this client does not send.
// PFCP is modeled as
// JSON over HTTP/1.1 rather than the binary GTP'-based encoding TS 29.244
// specifies, consistent with every other NF-to-NF interface in this
// emulator.
package n4

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/apierror"
	"go.uber.org/zap"
)

// PFCPClient manages PFCP communication with a single UPF over N4.
type PFCPClient struct {
	upfNodeID    string
	upfN4Address string
	httpClient   *http.Client
	logger       *zap.Logger
}

// NewPFCPClient creates a new PFCP client bound to one UPF.
func NewPFCPClient(upfNodeID, upfN4Address string, logger *zap.Logger) *PFCPClient {
	return &PFCPClient{
		upfNodeID:    upfNodeID,
		upfN4Address: upfN4Address,
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		logger:       logger,
	}
}

// FTEID is a Fully Qualified Tunnel Endpoint Identifier.
type FTEID struct {
	TEID uint32 `json:"teid"`
	IPv4 string `json:"ipv4Address,omitempty"`
}

// UEIP constrains a PDI to a UE address.
type UEIP struct {
	IPv4 string `json:"ipv4,omitempty"`
	IPv6 string `json:"ipv6,omitempty"`
}

// PDI is Packet Detection Information.
type PDI struct {
	SourceInterface string `json:"sourceInterface"` // ACCESS, CORE
	NetworkInstance string `json:"networkInstance,omitempty"`
	LocalFTEID      *FTEID `json:"localFteid,omitempty"`
	UEIPAddress     *UEIP  `json:"ueIpAddress,omitempty"`
}

// PDR is a Packet Detection Rule.
type PDR struct {
	PDRID              uint16   `json:"pdrId"`
	Precedence         uint32   `json:"precedence"`
	PDI                PDI      `json:"pdi"`
	OuterHeaderRemoval bool     `json:"outerHeaderRemoval,omitempty"`
	FARID              uint32   `json:"farId"`
	QERID              []uint32 `json:"qerId,omitempty"`
}

// ForwardingParameters describes how a FAR forwards matched traffic.
type ForwardingParameters struct {
	DestinationInterface string `json:"destinationInterface"` // ACCESS, CORE
	OuterHeaderCreation  *FTEID `json:"outerHeaderCreation,omitempty"`
}

// FAR is a Forwarding Action Rule.
type FAR struct {
	FARID                uint32                 `json:"farId"`
	ApplyAction          string                 `json:"applyAction"` // FORWARD, DROP, BUFFER
	ForwardingParameters *ForwardingParameters `json:"forwardingParameters,omitempty"`
}

// BitRate is an uplink/downlink MBR or GBR pair, in bits per second.
type BitRate struct {
	Uplink   int64 `json:"uplink"`
	Downlink int64 `json:"downlink"`
}

// QER is a QoS Enforcement Rule.
type QER struct {
	QERID  uint32   `json:"qerId"`
	QFI    uint8    `json:"qfi"`
	Var5QI int      `json:"var5qi"`
	MBR    *BitRate `json:"mbr,omitempty"`
	GBR    *BitRate `json:"gbr,omitempty"`
}

// SessionEstablishmentRequest is the body posted to POST /pfcp/v1/sessions.
type SessionEstablishmentRequest struct {
	MessageType string `json:"messageType,omitempty"`
	NodeID      string `json:"nodeId,omitempty"`
	CPFSEID     uint64 `json:"cpfSeid,omitempty"`
	DNN         string `json:"dnn,omitempty"`
	CreatePDR   []PDR  `json:"createPDR,omitempty"`
	CreateFAR   []FAR  `json:"createFAR,omitempty"`
	CreateQER   []QER  `json:"createQER,omitempty"`
}

// SessionEstablishmentResponse is the UPF's response to a successful
// establishment.
type SessionEstablishmentResponse struct {
	UPFSEID       uint64   `json:"upfSeid"`
	UEIPv4Address string   `json:"ueIpv4Address,omitempty"`
	UEIPv6Address string   `json:"ueIpv6Address,omitempty"`
	CreatedPDRIDs []uint16 `json:"createdPdrIds"`
	TunnelIDs     []string `json:"tunnelIds,omitempty"`
}

// SessionModificationRequest is the body of PATCH /pfcp/v1/sessions/{seid}.
type SessionModificationRequest struct {
	UpdatePDR []PDR `json:"updatePdr,omitempty"`
	UpdateFAR []FAR `json:"updateFar,omitempty"`
	UpdateQER []QER `json:"updateQer,omitempty"`
}

// SessionModificationResponse acknowledges a modification.
type SessionModificationResponse struct {
	UPFSEID     uint64 `json:"upfSeid"`
	UpdatedPDRs int    `json:"updatedPdrCount"`
	UpdatedFARs int    `json:"updatedFarCount"`
	UpdatedQERs int    `json:"updatedQerCount"`
}

// TrafficStats is a session's final traffic counters, returned on deletion.
type TrafficStats struct {
	UplinkBytes     uint64 `json:"uplinkBytes"`
	DownlinkBytes   uint64 `json:"downlinkBytes"`
	UplinkPackets   uint64 `json:"uplinkPackets"`
	DownlinkPackets uint64 `json:"downlinkPackets"`
	DroppedPackets  uint64 `json:"droppedPackets"`
}

// SessionDeletionResponse is the body returned from session deletion.
type SessionDeletionResponse struct {
	UPFSEID         uint64       `json:"upfSeid"`
	FinalStatistics TrafficStats `json:"finalStatistics"`
}

// EstablishSession sends a PFCP Session Establishment Request to the UPF.
func (c *PFCPClient) EstablishSession(ctx context.Context, req *SessionEstablishmentRequest) (*SessionEstablishmentResponse, error) {
	var resp SessionEstablishmentResponse
	if err := c.do(ctx, http.MethodPost, "/pfcp/v1/sessions", req, &resp); err != nil {
		return nil, err
	}

	c.logger.Info("PFCP session established",
		zap.Uint64("seid", resp.UPFSEID),
		zap.String("ue_ipv4", resp.UEIPv4Address),
		zap.Strings("tunnel_ids", resp.TunnelIDs),
	)
	return &resp, nil
}

// ModifySession sends a PFCP Session Modification Request to the UPF.
func (c *PFCPClient) ModifySession(ctx context.Context, seid uint64, req *SessionModificationRequest) (*SessionModificationResponse, error) {
	var resp SessionModificationResponse
	path := fmt.Sprintf("/pfcp/v1/sessions/%d", seid)
	if err := c.do(ctx, http.MethodPatch, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSession sends a PFCP Session Deletion Request to the UPF.
func (c *PFCPClient) DeleteSession(ctx context.Context, seid uint64) (*SessionDeletionResponse, error) {
	var resp SessionDeletionResponse
	path := fmt.Sprintf("/pfcp/v1/sessions/%d", seid)
	if err := c.do(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do issues an HTTP request against the UPF's N4 surface, decoding the JSON
// body into out on success. A UPF 503 surfaces as apierror.ResourceExhausted;
// every other transport, timeout or non-2xx failure surfaces as
// apierror.BackendUnavailable; encoding, request-building and decoding
// failures surface as apierror.Internal.
func (c *PFCPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.upfN4Address + path

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apierror.Internal("failed to encode N4 request", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return apierror.Internal("failed to build N4 request", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apierror.BackendUnavailable(fmt.Sprintf("N4 request to %s failed", c.upfNodeID), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return apierror.ResourceExhaustedf("UPF %s reports resource exhaustion", c.upfNodeID)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return apierror.BackendUnavailable(
			fmt.Sprintf("N4 request to %s returned status %d: %s", c.upfNodeID, resp.StatusCode, string(detail)),
			nil,
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apierror.Internal("failed to decode N4 response", err)
	}
	return nil
}

// AssociatePFCPSession establishes the PFCP association with the UPF. The
// association itself carries no session state in this emulator - it is a
// reachability probe performed once at SMF startup.
func (c *PFCPClient) AssociatePFCPSession(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.upfN4Address+"/health", nil)
	if err != nil {
		return apierror.Internal("failed to build association probe", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apierror.BackendUnavailable(fmt.Sprintf("UPF %s unreachable", c.upfNodeID), err)
	}
	defer resp.Body.Close()

	c.logger.Info("PFCP association established", zap.String("upf_node_id", c.upfNodeID))
	return nil
}

// GenerateSEID derives a Session Endpoint Identifier from a SUPI and PDU
// session ID. Not cryptographic - just enough spread to avoid collisions
// across the small session counts this emulator handles.
func GenerateSEID(supi string, pduSessionID uint8) uint64 {
	hash := uint64(0)
	for i := 0; i < len(supi); i++ {
		hash = hash*31 + uint64(supi[i])
	}
	return (hash << 8) | uint64(pduSessionID)
}
