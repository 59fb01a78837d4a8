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

// UDMClient handles communication with UDM's Nudm_UECM service.
type UDMClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewUDMClient creates a new UDM client
func NewUDMClient(baseURL string, timeout time.Duration, logger *zap.Logger) *UDMClient {
	return &UDMClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// GUAMIWire mirrors UDM's GUAMI shape.
type GUAMIWire struct {
	PlmnID      PLMNID `json:"plmnId"`
	AMFRegionID string `json:"amfRegionId"`
	AMFSetID    string `json:"amfSetId"`
	AMFPointer  string `json:"amfPointer"`
}

// AMF3GPPAccessRegistration is the body of PUT
// /nudm-uecm/v1/{supi}/registrations/amf-3gpp-access.
type AMF3GPPAccessRegistration struct {
	AMFInstanceID          string     `json:"amfInstanceId"`
	GUAMI                  *GUAMIWire `json:"guami,omitempty"`
	RATType                string     `json:"ratType"` // NR, EUTRA
	InitialRegistrationInd bool       `json:"initialRegistrationInd,omitempty"`
}

// RegisterAMF3GPPAccess registers this AMF as the UE's serving AMF for
// 3GPP access. A failure here does not roll back registration - it is
// logged and the UE stays REGISTERED, matching this emulator's best-effort
// approach to cross-NF side effects.
func (c *UDMClient) RegisterAMF3GPPAccess(ctx context.Context, supi string, reg *AMF3GPPAccessRegistration) error {
	url := fmt.Sprintf("%s/nudm-uecm/v1/%s/registrations/amf-3gpp-access", c.baseURL, supi)

	body, err := json.Marshal(reg)
	if err != nil {
		return apierror.Internal("failed to marshal UDM registration", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return apierror.Internal("failed to build UDM registration request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apierror.BackendUnavailable("UDM unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		detail, _ := io.ReadAll(resp.Body)
		return apierror.BackendUnavailable(fmt.Sprintf("UDM returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	c.logger.Info("registered AMF context with UDM",
		zap.String("supi", supi),
		zap.String("amf_instance_id", reg.AMFInstanceID),
	)
	return nil
}

// DeregisterAMF3GPPAccess removes this AMF's 3GPP-access registration for
// the UE from UDM.
func (c *UDMClient) DeregisterAMF3GPPAccess(ctx context.Context, supi string) error {
	url := fmt.Sprintf("%s/nudm-uecm/v1/%s/registrations/amf-3gpp-access", c.baseURL, supi)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return apierror.Internal("failed to build UDM deregistration request", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apierror.BackendUnavailable("UDM unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		detail, _ := io.ReadAll(resp.Body)
		return apierror.BackendUnavailable(fmt.Sprintf("UDM returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	c.logger.Info("deregistered AMF context with UDM", zap.String("supi", supi))
	return nil
}
