package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fivegcore/emulator/nf/amf/internal/client"
	"github.com/fivegcore/emulator/nf/amf/internal/config"
	amfcontext "github.com/fivegcore/emulator/nf/amf/internal/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPDUSessionService(t *testing.T, smfURL string) (*PDUSessionService, *amfcontext.UEContextManager) {
	t.Helper()
	cfg := config.DefaultConfig()
	if smfURL != "" {
		cfg.SMF.URL = smfURL
	}

	smfClient := client.NewSMFClient(cfg.SMF.URL, 0, zap.NewNop())
	contextManager := amfcontext.NewUEContextManager()

	return NewPDUSessionService(cfg, smfClient, contextManager, zap.NewNop()), contextManager
}

func newMockSMF(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if r.URL.Path == "/nsmf-pdusession/v1/sm-contexts" {
				w.WriteHeader(http.StatusCreated)
				json.NewEncoder(w).Encode(client.CreateSessionResponse{
					Status:       "CREATED",
					PDUSessionID: 1,
					UEIPAddress:  "10.2.0.1",
					N2SMInfo: client.N2SMInfo{
						QoSFlowSetupRequestList: []client.QoSFlowSetupRequest{
							{QFI: 9, FiveQI: 9, Priority: 1},
						},
					},
				})
				return
			}
			json.NewEncoder(w).Encode(client.ReleaseSessionResponse{Result: "SUCCESS"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestEstablish_RejectsUnregisteredUE(t *testing.T) {
	svc, _ := newTestPDUSessionService(t, "")

	_, err := svc.Establish(context.Background(), &EstablishmentRequest{
		SUPI:         "imsi-not-registered",
		PDUSessionID: 1,
		DNN:          "internet",
		SNSSAI:       amfcontext.SNSSAI{SST: 1, SD: "010203"},
	})
	require.Error(t, err)
}

func TestEstablish_SucceedsForRegisteredUEAndRecordsSession(t *testing.T) {
	smf := newMockSMF(t)
	defer smf.Close()

	svc, contextManager := newTestPDUSessionService(t, smf.URL)
	supi := "imsi-001010000000001"
	contextManager.GetOrCreateContext(supi).UpdateRegistrationState(amfcontext.RegistrationStateRegistered)

	resp, err := svc.Establish(context.Background(), &EstablishmentRequest{
		SUPI:         supi,
		PDUSessionID: 1,
		DNN:          "internet",
		SNSSAI:       amfcontext.SNSSAI{SST: 1, SD: "010203"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PDU_SESSION_ESTABLISHMENT_ACCEPT", resp.Status)
	assert.Equal(t, "10.2.0.1", resp.UEIPAddress)
	require.Len(t, resp.N2SMInfo.QoSFlowSetupRequestList, 1)

	ueCtx, _ := contextManager.GetContext(supi)
	session, exists := ueCtx.GetPDUSession(1)
	require.True(t, exists)
	assert.Equal(t, amfcontext.PDUSessionStateActive, session.State)
}

func TestRelease_RemovesSessionFromContext(t *testing.T) {
	smf := newMockSMF(t)
	defer smf.Close()

	svc, contextManager := newTestPDUSessionService(t, smf.URL)
	supi := "imsi-001010000000002"
	ueCtx := contextManager.GetOrCreateContext(supi)
	ueCtx.UpdateRegistrationState(amfcontext.RegistrationStateRegistered)

	_, err := svc.Establish(context.Background(), &EstablishmentRequest{
		SUPI:         supi,
		PDUSessionID: 1,
		DNN:          "internet",
		SNSSAI:       amfcontext.SNSSAI{SST: 1, SD: "010203"},
	})
	require.NoError(t, err)

	err = svc.Release(context.Background(), supi, 1)
	require.NoError(t, err)

	_, exists := ueCtx.GetPDUSession(1)
	assert.False(t, exists)
}

func TestEstablish_SMFFailurePropagatesError(t *testing.T) {
	smf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer smf.Close()

	svc, contextManager := newTestPDUSessionService(t, smf.URL)
	supi := "imsi-001010000000003"
	contextManager.GetOrCreateContext(supi).UpdateRegistrationState(amfcontext.RegistrationStateRegistered)

	_, err := svc.Establish(context.Background(), &EstablishmentRequest{
		SUPI:         supi,
		PDUSessionID: 1,
		DNN:          "internet",
		SNSSAI:       amfcontext.SNSSAI{SST: 1, SD: "010203"},
	})
	require.Error(t, err)
}
