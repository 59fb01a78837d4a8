package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/fivegcore/emulator/nf/amf/internal/client"
	"github.com/fivegcore/emulator/nf/amf/internal/config"
	amfcontext "github.com/fivegcore/emulator/nf/amf/internal/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var gutiPattern = regexp.MustCompile(`^4[0-9A-F]{20}$`)

// newTestRegistrationService wires a RegistrationService against mock
// AUSF/UDM servers so the registration state machine can be driven without a
// real peer NF.
func newTestRegistrationService(t *testing.T, ausfURL, udmURL string) *RegistrationService {
	t.Helper()
	cfg := config.DefaultConfig()
	if ausfURL != "" {
		cfg.AUSF.URL = ausfURL
	}
	if udmURL != "" {
		cfg.UDM.URL = udmURL
	}

	ausfClient := client.NewAUSFClient(cfg.AUSF.URL, 0, zap.NewNop())
	udmClient := client.NewUDMClient(cfg.UDM.URL, 0, zap.NewNop())
	smfClient := client.NewSMFClient(cfg.SMF.URL, 0, zap.NewNop())
	contextManager := amfcontext.NewUEContextManager()

	return NewRegistrationService(cfg, ausfClient, udmClient, smfClient, contextManager, zap.NewNop())
}

func newMockAUSF(t *testing.T, hxres string, authResult string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/nausf-auth/v1/ue-authentications":
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(client.UEAuthenticationResponse{
				AuthType: "5G_AKA",
				AuthenticationVector: &client.Var5gAuthData{
					RAND:  "rand-1",
					AUTN:  "autn-1",
					HXRES: hxres,
				},
				Links: map[string]interface{}{
					"5g-aka": map[string]interface{}{
						"href": "/nausf-auth/v1/ue-authentications/ctx-1/5g-aka-confirmation",
					},
				},
			})
		case r.Method == http.MethodPut:
			json.NewEncoder(w).Encode(client.AuthConfirmationResponse{
				AuthResult: authResult,
				SUPI:       "imsi-001010000000001",
				KSEAF:      "kseaf-1",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newMockUDM(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestRegisterUE_MovesToAuthPending(t *testing.T) {
	ausf := newMockAUSF(t, "hxres-1", "AUTHENTICATION_SUCCESS")
	defer ausf.Close()

	svc := newTestRegistrationService(t, ausf.URL, "")

	resp, err := svc.RegisterUE(context.Background(), &RegistrationRequest{
		SUCI:             "imsi-001010000000001",
		RegistrationType: "INITIAL",
	})
	require.NoError(t, err)
	assert.Equal(t, "AUTHENTICATION_REQUIRED", resp.Status)
	assert.Equal(t, "hxres-1", resp.HXRESStar)
	assert.NotEmpty(t, resp.AuthCtxID)

	ueCtx, exists := svc.contextManager.GetContext("imsi-001010000000001")
	require.True(t, exists)
	assert.Equal(t, amfcontext.RegistrationStateAuthPending, ueCtx.RegistrationState)
}

func TestFullRegistrationFlow_SucceedsThroughSecurityModeComplete(t *testing.T) {
	ausf := newMockAUSF(t, "hxres-1", "AUTHENTICATION_SUCCESS")
	defer ausf.Close()
	udm := newMockUDM(t)
	defer udm.Close()

	svc := newTestRegistrationService(t, ausf.URL, udm.URL)
	supi := "imsi-001010000000001"

	regResp, err := svc.RegisterUE(context.Background(), &RegistrationRequest{
		SUCI:             supi,
		RegistrationType: "INITIAL",
		RequestedNSSAI:   []amfcontext.SNSSAI{{SST: 1, SD: "010203"}},
	})
	require.NoError(t, err)

	authResp, err := svc.ConfirmAuthenticationResponse(context.Background(), &AuthenticationResponseRequest{
		AuthCtxID: regResp.AuthCtxID,
		ResStar:   regResp.HXRESStar,
	})
	require.NoError(t, err)
	assert.Equal(t, "AUTHENTICATION_SUCCESS", authResp.Status)
	assert.Equal(t, supi, authResp.SUPI)

	ueCtx, exists := svc.contextManager.GetContext(supi)
	require.True(t, exists)
	assert.Equal(t, amfcontext.RegistrationStateSecPending, ueCtx.RegistrationState)

	secResp, err := svc.CompleteSecurityMode(context.Background(), &SecurityModeCompleteRequest{SUPI: supi})
	require.NoError(t, err)
	assert.Equal(t, "REGISTRATION_COMPLETE", secResp.Status)
	assert.Regexp(t, gutiPattern, secResp.GUTI)
	require.Len(t, secResp.AllowedNSSAI, 1)
	assert.Equal(t, uint8(1), secResp.AllowedNSSAI[0].SST)

	assert.True(t, ueCtx.IsRegistered())
}

func TestConfirmAuthenticationResponse_UnknownAuthCtxIDReturnsFailureNotError(t *testing.T) {
	svc := newTestRegistrationService(t, "", "")

	resp, err := svc.ConfirmAuthenticationResponse(context.Background(), &AuthenticationResponseRequest{
		AuthCtxID: "does-not-exist",
		ResStar:   "whatever",
	})
	require.NoError(t, err)
	assert.Equal(t, "AUTHENTICATION_FAILURE", resp.Status)
}

func TestConfirmAuthenticationResponse_AUSFRejectionReturnsFailureAndDeregisters(t *testing.T) {
	ausf := newMockAUSF(t, "hxres-1", "AUTHENTICATION_FAILURE")
	defer ausf.Close()

	svc := newTestRegistrationService(t, ausf.URL, "")
	supi := "imsi-001010000000002"

	regResp, err := svc.RegisterUE(context.Background(), &RegistrationRequest{
		SUCI:             supi,
		RegistrationType: "INITIAL",
	})
	require.NoError(t, err)

	authResp, err := svc.ConfirmAuthenticationResponse(context.Background(), &AuthenticationResponseRequest{
		AuthCtxID: regResp.AuthCtxID,
		ResStar:   "wrong-res",
	})
	require.NoError(t, err)
	assert.Equal(t, "AUTHENTICATION_FAILURE", authResp.Status)

	ueCtx, exists := svc.contextManager.GetContext(supi)
	require.True(t, exists)
	assert.Equal(t, amfcontext.RegistrationStateDeregistered, ueCtx.RegistrationState)

	_, found := svc.contextManager.ResolveAuthCtxID(regResp.AuthCtxID)
	assert.False(t, found)
}

func TestNegotiateNSSAI_FallsBackToDefaultWhenNoneMatch(t *testing.T) {
	svc := newTestRegistrationService(t, "", "")

	allowed := svc.negotiateNSSAI([]amfcontext.SNSSAI{{SST: 99}})
	require.Len(t, allowed, 1)
	assert.Equal(t, uint8(1), allowed[0].SST)
	assert.Equal(t, "010203", allowed[0].SD)
}

func TestNegotiateNSSAI_AcceptsMatchingRequestedSlices(t *testing.T) {
	svc := newTestRegistrationService(t, "", "")

	allowed := svc.negotiateNSSAI([]amfcontext.SNSSAI{{SST: 2, SD: "020304"}})
	require.Len(t, allowed, 1)
	assert.Equal(t, uint8(2), allowed[0].SST)
}

func TestDeregisterUE_RemovesContext(t *testing.T) {
	udm := newMockUDM(t)
	defer udm.Close()

	svc := newTestRegistrationService(t, "", udm.URL)
	supi := "imsi-001010000000003"
	svc.contextManager.GetOrCreateContext(supi).UpdateRegistrationState(amfcontext.RegistrationStateRegistered)

	err := svc.DeregisterUE(context.Background(), supi)
	require.NoError(t, err)

	_, exists := svc.contextManager.GetContext(supi)
	assert.False(t, exists)
}

func TestDeregisterUE_UnknownSUPIReturnsError(t *testing.T) {
	svc := newTestRegistrationService(t, "", "")

	err := svc.DeregisterUE(context.Background(), "imsi-does-not-exist")
	assert.Error(t, err)
}

func TestBuildGUTI_MatchesExpectedShape(t *testing.T) {
	guti := buildGUTI(1, 1, 1, "001", "01", "imsi-001010000000001")
	assert.Regexp(t, gutiPattern, guti)
	assert.Len(t, guti, 21)
}

func TestBuildGUTI_DeterministicPerSUPI(t *testing.T) {
	a := buildGUTI(1, 1, 1, "001", "01", "imsi-001010000000001")
	b := buildGUTI(1, 1, 1, "001", "01", "imsi-001010000000001")
	c := buildGUTI(1, 1, 1, "001", "01", "imsi-001010000000002")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
