package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fivegcore/emulator/nf/gnb/internal/client"
	"github.com/fivegcore/emulator/nf/gnb/internal/config"
	gnbcontext "github.com/fivegcore/emulator/nf/gnb/internal/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNGAPService(t *testing.T, amfURL string) *NGAPService {
	t.Helper()
	cfg := config.DefaultConfig()
	if amfURL != "" {
		cfg.AMF.URL = amfURL
	}

	amfClient := client.NewAMFClient(cfg.AMF.URL, 0, zap.NewNop())
	contexts := gnbcontext.NewManager()

	return NewNGAPService(cfg, amfClient, contexts, zap.NewNop())
}

func TestHandleInitialUEMessage_AllocatesRanUeNgapIDAndForwardsToAMF(t *testing.T) {
	var gotPath string
	amf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]string{"status": "AUTHENTICATION_REQUIRED"})
	}))
	defer amf.Close()

	svc := newTestNGAPService(t, amf.URL)

	resp, err := svc.HandleInitialUEMessage(context.Background(), &InitialUEMessageRequest{
		NASPDU: json.RawMessage(`{"suci":"imsi-001010000000001","registrationType":"INITIAL"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), resp.RanUENgapID)
	assert.Equal(t, "/nas/registration-request", gotPath)
	require.NotNil(t, resp.NGAPMessage.InitiatingMessage)
	assert.Equal(t, ProcedureCodeInitialUEMessage, resp.NGAPMessage.InitiatingMessage.ProcedureCode)
	assert.NotEmpty(t, resp.AMFResponse)
}

func TestHandleInitialUEMessage_AllocatesDistinctIDsPerCall(t *testing.T) {
	amf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
	}))
	defer amf.Close()

	svc := newTestNGAPService(t, amf.URL)

	first, err := svc.HandleInitialUEMessage(context.Background(), &InitialUEMessageRequest{NASPDU: json.RawMessage(`{}`)})
	require.NoError(t, err)
	second, err := svc.HandleInitialUEMessage(context.Background(), &InitialUEMessageRequest{NASPDU: json.RawMessage(`{}`)})
	require.NoError(t, err)

	assert.NotEqual(t, first.RanUENgapID, second.RanUENgapID)
}

func TestHandleDownlinkNASTransport_BindsAmfUeNgapIDOnFirstReceipt(t *testing.T) {
	svc := newTestNGAPService(t, "")
	ueCtx := svc.Contexts().CreateContext()

	err := svc.HandleDownlinkNASTransport(context.Background(), &DownlinkNASTransportRequest{
		RanUENgapID: ueCtx.RanUENgapID,
		AmfUENgapID: 42,
		NASPDU:      json.RawMessage(`{"type":"authentication-request"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ueCtx.AmfUENgapID)

	// A second delivery with a different id does not rebind.
	err = svc.HandleDownlinkNASTransport(context.Background(), &DownlinkNASTransportRequest{
		RanUENgapID: ueCtx.RanUENgapID,
		AmfUENgapID: 99,
		NASPDU:      json.RawMessage(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ueCtx.AmfUENgapID)
}

func TestHandleDownlinkNASTransport_UnknownRanUeNgapIDReturnsError(t *testing.T) {
	svc := newTestNGAPService(t, "")

	err := svc.HandleDownlinkNASTransport(context.Background(), &DownlinkNASTransportRequest{RanUENgapID: 999})
	assert.Error(t, err)
}

func TestHandleUEContextSetupRequest_TransitionsToConnected(t *testing.T) {
	svc := newTestNGAPService(t, "")
	ueCtx := svc.Contexts().CreateContext()

	envelope, err := svc.HandleUEContextSetupRequest(context.Background(), &UEContextSetupRequestBody{
		RanUENgapID:            ueCtx.RanUENgapID,
		SecurityKey:            "k-seaf-derived",
		UESecurityCapabilities: []string{"128-NEA2", "128-NIA2"},
	})
	require.NoError(t, err)
	require.NotNil(t, envelope.SuccessfulOutcome)
	assert.Equal(t, gnbcontext.ConnectionStateConnected, ueCtx.ConnectionState)
	assert.Equal(t, "k-seaf-derived", ueCtx.SecurityKey)
}

func TestHandleUEContextSetupRequest_UnknownRanUeNgapIDReturnsUnsuccessfulOutcome(t *testing.T) {
	svc := newTestNGAPService(t, "")

	envelope, err := svc.HandleUEContextSetupRequest(context.Background(), &UEContextSetupRequestBody{RanUENgapID: 999})
	require.NoError(t, err)
	require.NotNil(t, envelope.UnsuccessfulOutcome)
	assert.Equal(t, "Unknown-local-UE-NGAP-ID", envelope.UnsuccessfulOutcome.Value["protocolIEs"].(map[string]interface{})["cause"])
}

func TestHandlePDUSessionResourceSetupRequest_RecordsActiveSessions(t *testing.T) {
	svc := newTestNGAPService(t, "")
	ueCtx := svc.Contexts().CreateContext()

	resp, err := svc.HandlePDUSessionResourceSetupRequest(context.Background(), &PDUSessionResourceSetupRequestBody{
		RanUENgapID: ueCtx.RanUENgapID,
		PDUSessionResourceSetupItems: []PDUSessionResourceSetupItem{
			{PDUSessionID: 1},
			{PDUSessionID: 2},
		},
	})
	require.NoError(t, err)
	assert.Len(t, resp.PDUSessionResourceSetupListSURes, 2)
	assert.Empty(t, resp.PDUSessionResourceFailedToSetupListSURes)

	_, exists := ueCtx.PDUSessions[1]
	assert.True(t, exists)
}

func TestHandleHandoverRequest_AllocatesTargetContextBoundToSourceAmfUeNgapID(t *testing.T) {
	svc := newTestNGAPService(t, "")

	ack, err := svc.HandleHandoverRequest(context.Background(), &HandoverRequestBody{SourceAmfUENgapID: 555})
	require.NoError(t, err)
	assert.NotZero(t, ack.TargetRanUENgapID)
	assert.NotEmpty(t, ack.TargetToSourceTransparentContainer)

	ueCtx, ok := svc.Contexts().GetContext(ack.TargetRanUENgapID)
	require.True(t, ok)
	assert.Equal(t, uint64(555), ueCtx.AmfUENgapID)
	assert.Equal(t, gnbcontext.ConnectionStateConnected, ueCtx.ConnectionState)
}

func TestHandleHandoverRequest_RejectsMissingSourceID(t *testing.T) {
	svc := newTestNGAPService(t, "")

	_, err := svc.HandleHandoverRequest(context.Background(), &HandoverRequestBody{})
	assert.Error(t, err)
}

func TestHeartbeat_TracksAMFConnectionEstablished(t *testing.T) {
	amf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer amf.Close()

	svc := newTestNGAPService(t, amf.URL)
	assert.False(t, svc.AMFConnectionEstablished())

	svc.Heartbeat(context.Background())
	assert.True(t, svc.AMFConnectionEstablished())

	amf.Close()
	svc.Heartbeat(context.Background())
	assert.False(t, svc.AMFConnectionEstablished())
}
