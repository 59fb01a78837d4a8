package client

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

// SMFClient handles communication with SMF's Nsmf_PDUSession service.
type SMFClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewSMFClient creates a new SMF client
func NewSMFClient(baseURL string, timeout time.Duration, logger *zap.Logger) *SMFClient {
	return &SMFClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SNSSAI mirrors the slice selector carried on a session create request.
type SNSSAI struct {
	SST uint8  `json:"sst"`
	SD  string `json:"sd,omitempty"`
}

// CreateSessionRequest is the body of POST /nsmf-pdusession/v1/sm-contexts,
// matching SMF's service.CreateSessionRequest exactly.
type CreateSessionRequest struct {
	SUPI          string `json:"supi"`
	PDUSessionID  uint8  `json:"pduSessionId"`
	DNN           string `json:"dnn"`
	SNSSAI        SNSSAI `json:"sNssai"`
	AnType        string `json:"anType"`
	GNBN3Address  string `json:"gnbN3Address,omitempty"`
	GNBTEIDUplink uint32 `json:"gnbTeidUplink,omitempty"`
}

// QoSFlowSetupRequest mirrors service.QoSFlowSetupRequest.
type QoSFlowSetupRequest struct {
	QFI      uint8 `json:"qfi"`
	FiveQI   uint8 `json:"5qi"`
	Priority uint8 `json:"priority"`
}

// N2SMInfo mirrors service.N2SMInfo.
type N2SMInfo struct {
	QoSFlowSetupRequestList []QoSFlowSetupRequest `json:"qosFlowSetupRequestList"`
}

// SMContextWire mirrors service.SMContextWire.
type SMContextWire struct {
	ContextID   string `json:"contextId"`
	UEIPAddress string `json:"ueIpAddress"`
}

// CreateSessionResponse mirrors SMF's service.CreateSessionResponse exactly.
type CreateSessionResponse struct {
	Status       string        `json:"status"`
	PDUSessionID uint8         `json:"pduSessionId"`
	UEIPAddress  string        `json:"ueIpAddress"`
	N2SMInfo     N2SMInfo      `json:"n2SmInfo"`
	SMContext    SMContextWire `json:"smContext"`
}

// ReleaseSessionRequest is the body of a PDU session release request.
type ReleaseSessionRequest struct {
	SUPI         string `json:"supi"`
	PDUSessionID uint8  `json:"pduSessionId"`
	Cause        string `json:"cause,omitempty"`
}

// ReleaseSessionResponse acknowledges a release request.
type ReleaseSessionResponse struct {
	Result       string `json:"result"`
	SUPI         string `json:"supi"`
	PDUSessionID uint8  `json:"pduSessionId"`
}

// CreateSession forwards a PDU session establishment request to SMF.
func (c *SMFClient) CreateSession(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	url := fmt.Sprintf("%s/nsmf-pdusession/v1/sm-contexts", c.baseURL)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apierror.Internal("failed to marshal SMF request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.Internal("failed to build SMF request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apierror.BackendUnavailable("SMF unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return nil, apierror.BackendUnavailable(fmt.Sprintf("SMF returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	var result CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierror.Internal("failed to decode SMF response", err)
	}

	c.logger.Debug("PDU session created via SMF",
		zap.String("supi", req.SUPI),
		zap.Uint8("pdu_session_id", req.PDUSessionID),
		zap.String("ue_ip", result.UEIPAddress),
	)
	return &result, nil
}

// ReleaseSession forwards a PDU session release request to SMF.
func (c *SMFClient) ReleaseSession(ctx context.Context, req *ReleaseSessionRequest) (*ReleaseSessionResponse, error) {
	url := fmt.Sprintf("%s/nsmf-pdusession/v1/sm-contexts/%s:%d/release", c.baseURL, req.SUPI, req.PDUSessionID)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apierror.Internal("failed to marshal SMF release request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.Internal("failed to build SMF release request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apierror.BackendUnavailable("SMF unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(resp.Body)
		return nil, apierror.BackendUnavailable(fmt.Sprintf("SMF returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	var result ReleaseSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierror.Internal("failed to decode SMF release response", err)
	}
	return &result, nil
}
