package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fivegcore/emulator/common/apierror"
	"go.uber.org/zap"
)

// AUSFClient handles communication with AUSF's Nausf_UEAuthentication
// service.
type AUSFClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewAUSFClient creates a new AUSF client
func NewAUSFClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AUSFClient {
	return &AUSFClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// UEAuthenticationRequest represents authentication request to AUSF
type UEAuthenticationRequest struct {
	SUPI               string `json:"supiOrSuci"`
	ServingNetworkName string `json:"servingNetworkName"`
}

// UEAuthenticationResponse mirrors AUSF's UEAuthenticationResponse exactly:
// the authentication vector and an authCtxId conveyed only via the
// "5g-aka" confirmation link, not as a top-level field.
type UEAuthenticationResponse struct {
	AuthType             string                 `json:"authType"`
	AuthenticationVector *Var5gAuthData         `json:"authenticationVector,omitempty"`
	Links                map[string]interface{} `json:"_links"`

	// AuthCtxID is parsed out of Links["5g-aka"]["href"] by
	// InitiateAuthentication; it is not part of AUSF's wire response.
	AuthCtxID string `json:"-"`
}

// Var5gAuthData represents 5G authentication data. HXRES is the hash of
// XRES* - in a real network it never leaves AUSF, but this emulator has no
// SIM to compute a real RES* against it, so AUSF discloses it to let a
// test harness drive the confirmation step.
type Var5gAuthData struct {
	RAND  string `json:"rand"`
	AUTN  string `json:"autn"`
	HXRES string `json:"hxresStar,omitempty"`
}

// AuthConfirmationRequest represents authentication confirmation
type AuthConfirmationRequest struct {
	ResStar string `json:"resStar"`
}

// AuthConfirmationResponse represents confirmation response
type AuthConfirmationResponse struct {
	AuthResult string `json:"authResult"` // "AUTHENTICATION_SUCCESS" or "AUTHENTICATION_FAILURE"
	SUPI       string `json:"supi,omitempty"`
	KSEAF      string `json:"kseaf,omitempty"`
}

// InitiateAuthentication initiates UE authentication with AUSF.
func (c *AUSFClient) InitiateAuthentication(ctx context.Context, req *UEAuthenticationRequest) (*UEAuthenticationResponse, error) {
	url := fmt.Sprintf("%s/nausf-auth/v1/ue-authentications", c.baseURL)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apierror.Internal("failed to marshal AUSF request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.Internal("failed to build AUSF request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("initiating authentication with AUSF",
		zap.String("supi", req.SUPI),
		zap.String("url", url),
	)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apierror.BackendUnavailable("AUSF unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(resp.Body)
		return nil, apierror.BackendUnavailable(fmt.Sprintf("AUSF returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	var result UEAuthenticationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierror.Internal("failed to decode AUSF response", err)
	}

	result.AuthCtxID, err = authCtxIDFromLinks(result.Links)
	if err != nil {
		return nil, apierror.Internal("failed to parse AUSF confirmation link", err)
	}

	c.logger.Debug("authentication initiated with AUSF",
		zap.String("supi", req.SUPI),
		zap.String("auth_ctx_id", result.AuthCtxID),
	)

	return &result, nil
}

// ConfirmAuthentication confirms authentication with AUSF.
func (c *AUSFClient) ConfirmAuthentication(ctx context.Context, authCtxID string, resStar string) (*AuthConfirmationResponse, error) {
	url := fmt.Sprintf("%s/nausf-auth/v1/ue-authentications/%s/5g-aka-confirmation", c.baseURL, authCtxID)

	req := &AuthConfirmationRequest{ResStar: resStar}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, apierror.Internal("failed to marshal AUSF confirmation", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, apierror.Internal("failed to build AUSF confirmation request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, apierror.BackendUnavailable("AUSF unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return nil, apierror.BackendUnavailable(fmt.Sprintf("AUSF returned status %d: %s", resp.StatusCode, string(detail)), nil)
	}

	var result AuthConfirmationResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apierror.Internal("failed to decode AUSF confirmation response", err)
	}

	c.logger.Debug("authentication confirmed with AUSF",
		zap.String("auth_ctx_id", authCtxID),
		zap.String("result", result.AuthResult),
	)

	return &result, nil
}

// authCtxIDFromLinks extracts the authCtxId path segment out of
// Links["5g-aka"]["href"], the only place AUSF conveys it.
func authCtxIDFromLinks(links map[string]interface{}) (string, error) {
	aka, ok := links["5g-aka"]
	if !ok {
		return "", fmt.Errorf("response has no _links[5g-aka]")
	}
	akaMap, ok := aka.(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("_links[5g-aka] has unexpected shape")
	}
	href, ok := akaMap["href"].(string)
	if !ok {
		return "", fmt.Errorf("_links[5g-aka][href] missing or not a string")
	}

	segments := strings.Split(strings.TrimSuffix(href, "/5g-aka-confirmation"), "/")
	if len(segments) == 0 || segments[len(segments)-1] == "" {
		return "", fmt.Errorf("could not parse authCtxId from href %q", href)
	}
	return segments[len(segments)-1], nil
}
