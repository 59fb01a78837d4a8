package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fivegcore/emulator/common/f1"
	"go.uber.org/zap"
)

// CUClient is the DU's F1AP client toward its statically configured CU
// peer, exercising the two F1 procedures the DU originates: F1 Setup
// Request and Initial UL RRC Message Transfer.
type CUClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewCUClient creates a CU client bound to baseURL with the given timeout.
func NewCUClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CUClient {
	return &CUClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SendF1SetupRequest sends the DU's F1 Setup Request and returns the CU's
// response, per du.py's perform_f1_setup.
func (c *CUClient) SendF1SetupRequest(ctx context.Context, req *f1.F1SetupRequest) (*f1.F1SetupResponse, error) {
	var resp f1.F1SetupResponse
	if err := c.post(ctx, "/f1ap/f1-setup-request", req, &resp); err != nil {
		return nil, fmt.Errorf("f1 setup request failed: %w", err)
	}
	return &resp, nil
}

// SendInitialULRRCMessageTransfer forwards an Initial UL RRC Message to the
// CU and returns the synchronous DL RRC Message Transfer (RRC Setup) the CU
// replies with, per du.py's handle_initial_ul_rrc_message forwarding logic.
func (c *CUClient) SendInitialULRRCMessageTransfer(ctx context.Context, msg *f1.InitialULRRCMessage) (*f1.DLRRCMessage, error) {
	var resp f1.DLRRCMessage
	if err := c.post(ctx, "/f1ap/initial-ul-rrc-message", msg, &resp); err != nil {
		return nil, fmt.Errorf("initial ul rrc message transfer failed: %w", err)
	}
	return &resp, nil
}

// SendUEContextSetupResponse confirms bearer setup back to the CU, per
// du.py's handle_ue_context_setup_request response path.
func (c *CUClient) SendUEContextSetupResponse(ctx context.Context, resp *f1.UEContextSetupResponse) error {
	if err := c.post(ctx, "/f1ap/ue-context-setup-response", resp, nil); err != nil {
		return fmt.Errorf("ue context setup response failed: %w", err)
	}
	return nil
}

func (c *CUClient) post(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode >= 300 {
		return fmt.Errorf("CU returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
