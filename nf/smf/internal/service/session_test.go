package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	smfconfig "github.com/fivegcore/emulator/nf/smf/internal/config"
	smfcontext "github.com/fivegcore/emulator/nf/smf/internal/context"
	"github.com/fivegcore/emulator/nf/smf/internal/n4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSessionService(t *testing.T, upfURL string) *SessionService {
	t.Helper()
	smfCtx := smfcontext.NewSMFContext("upf-1", upfURL)
	pfcpClient := n4.NewPFCPClient("upf-1", upfURL, zap.NewNop())
	svc, err := NewSessionService(&smfconfig.Config{}, smfCtx, pfcpClient, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestCreateSession_AssignsDeterministicUEIPv4(t *testing.T) {
	upf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req n4.SessionEstablishmentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.Len(t, req.CreatePDR, 1)
		assert.Equal(t, "ACCESS", req.CreatePDR[0].PDI.SourceInterface)
		require.Len(t, req.CreateFAR, 1)
		assert.Equal(t, "CORE", req.CreateFAR[0].ForwardingParameters.DestinationInterface)
		require.Len(t, req.CreateQER, 1)
		assert.Equal(t, uint8(9), req.CreateQER[0].QFI)

		json.NewEncoder(w).Encode(n4.SessionEstablishmentResponse{UPFSEID: 99})
	}))
	defer upf.Close()

	svc := newTestSessionService(t, upf.URL)
	resp, err := svc.CreateSession(context.Background(), &CreateSessionRequest{
		SUPI:         "imsi-001010000000001",
		PDUSessionID: 1,
		DNN:          "internet",
		SNSSAI:       smfcontext.SNSSAI{SST: 1, SD: "010203"},
		AnType:       "3GPP_ACCESS",
	})

	require.NoError(t, err)
	assert.Equal(t, "CREATED", resp.Status)
	assert.Equal(t, "10.2.0.1", resp.UEIPAddress)
	require.Len(t, resp.N2SMInfo.QoSFlowSetupRequestList, 1)
	assert.Equal(t, uint8(9), resp.N2SMInfo.QoSFlowSetupRequestList[0].QFI)
	assert.Equal(t, uint8(9), resp.N2SMInfo.QoSFlowSetupRequestList[0].FiveQI)
}

func TestCreateSession_MissingMandatoryFieldRejected(t *testing.T) {
	svc := newTestSessionService(t, "http://127.0.0.1:0")

	_, err := svc.CreateSession(context.Background(), &CreateSessionRequest{
		SUPI: "imsi-001010000000001",
		// PDUSessionID intentionally zero, DNN/SNSSAI/AnType intentionally absent
	})
	require.Error(t, err)
}

func TestCreateSession_UPFFailurePropagatesAsBackendUnavailable(t *testing.T) {
	upf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer upf.Close()

	svc := newTestSessionService(t, upf.URL)
	_, err := svc.CreateSession(context.Background(), &CreateSessionRequest{
		SUPI:         "imsi-001010000000001",
		PDUSessionID: 1,
		DNN:          "internet",
		SNSSAI:       smfcontext.SNSSAI{SST: 1},
		AnType:       "3GPP_ACCESS",
	})
	require.Error(t, err)
}

func TestReleaseSession_RemovesFromContext(t *testing.T) {
	upf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(n4.SessionEstablishmentResponse{UPFSEID: 1})
	}))
	defer upf.Close()

	svc := newTestSessionService(t, upf.URL)
	_, err := svc.CreateSession(context.Background(), &CreateSessionRequest{
		SUPI:         "imsi-001010000000001",
		PDUSessionID: 1,
		DNN:          "internet",
		SNSSAI:       smfcontext.SNSSAI{SST: 1},
		AnType:       "3GPP_ACCESS",
	})
	require.NoError(t, err)

	resp, err := svc.ReleaseSession(context.Background(), &ReleaseSessionRequest{
		SUPI:         "imsi-001010000000001",
		PDUSessionID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", resp.Result)

	_, err = svc.ReleaseSession(context.Background(), &ReleaseSessionRequest{
		SUPI:         "imsi-001010000000001",
		PDUSessionID: 1,
	})
	assert.Error(t, err)
}
