// Package client holds the gNB's outbound peers: the AMF it forwards
// extracted NAS payloads to, and the shared NRF registration client.
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

// AMFClient forwards NAS payloads extracted from NGAP messages to the AMF's
// NAS surface, and polls AMF health for the heartbeat worker.
type AMFClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewAMFClient creates a client bound to one AMF.
func NewAMFClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AMFClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AMFClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ForwardRegistrationRequest posts the NAS payload carried by an Initial UE
// Message to AMF's registration-request endpoint and returns the decoded
// response body.
func (c *AMFClient) ForwardRegistrationRequest(ctx context.Context, nasPDU json.RawMessage) (json.RawMessage, error) {
	return c.post(ctx, "/nas/registration-request", nasPDU)
}

// ForwardUplinkNAS posts a NAS payload carried by Uplink NAS Transport (an
// authentication response or security mode complete) to the matching AMF
// endpoint, selected by the caller.
func (c *AMFClient) ForwardUplinkNAS(ctx context.Context, path string, nasPDU json.RawMessage) (json.RawMessage, error) {
	return c.post(ctx, path, nasPDU)
}

func (c *AMFClient) post(ctx context.Context, path string, body json.RawMessage) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.Internal("failed to build AMF request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apierror.BackendUnavailable("AMF unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierror.BackendUnavailable("failed to read AMF response", err)
	}

	if resp.StatusCode >= 400 {
		return nil, apierror.BackendUnavailable(fmt.Sprintf("AMF returned status %d", resp.StatusCode), nil)
	}

	return respBody, nil
}

// Heartbeat checks AMF reachability for the 60s background worker.
func (c *AMFClient) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return apierror.Internal("failed to build AMF health request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apierror.BackendUnavailable("AMF unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apierror.BackendUnavailable(fmt.Sprintf("AMF health returned status %d", resp.StatusCode), nil)
	}
	return nil
}
