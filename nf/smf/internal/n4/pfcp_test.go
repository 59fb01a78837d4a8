package n4

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fivegcore/emulator/common/apierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPFCPClient_EstablishSessionDecodesUPFResponse(t *testing.T) {
	var gotReq SessionEstablishmentRequest
	upf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pfcp/v1/sessions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SessionEstablishmentResponse{
			UPFSEID:       7,
			UEIPv4Address: "10.2.0.1",
			CreatedPDRIDs: []uint16{1},
			TunnelIDs:     []string{"tun-7-1"},
		})
	}))
	defer upf.Close()

	client := NewPFCPClient("upf-1", upf.URL, zap.NewNop())
	resp, err := client.EstablishSession(context.Background(), &SessionEstablishmentRequest{
		DNN:       "internet",
		CreatePDR: []PDR{{PDRID: 1, FARID: 1}},
	})

	require.NoError(t, err)
	assert.Equal(t, uint64(7), resp.UPFSEID)
	assert.Equal(t, "10.2.0.1", resp.UEIPv4Address)
	assert.Equal(t, "internet", gotReq.DNN)
}

func TestPFCPClient_EstablishSessionMapsTransportFailureToBackendUnavailable(t *testing.T) {
	client := NewPFCPClient("upf-1", "http://127.0.0.1:1", zap.NewNop())

	_, err := client.EstablishSession(context.Background(), &SessionEstablishmentRequest{})
	require.Error(t, err)
	assert.Equal(t, apierror.BackendUnavailable, apierror.As(err).Kind)
}

func TestPFCPClient_EstablishSessionMapsResourceExhaustedStatus(t *testing.T) {
	upf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upf.Close()

	client := NewPFCPClient("upf-1", upf.URL, zap.NewNop())
	_, err := client.EstablishSession(context.Background(), &SessionEstablishmentRequest{})

	require.Error(t, err)
	assert.Equal(t, apierror.ResourceExhausted, apierror.As(err).Kind)
}

func TestPFCPClient_DeleteSessionUsesSEIDInPath(t *testing.T) {
	var gotPath string
	upf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodDelete, r.Method)
		json.NewEncoder(w).Encode(SessionDeletionResponse{UPFSEID: 42})
	}))
	defer upf.Close()

	client := NewPFCPClient("upf-1", upf.URL, zap.NewNop())
	resp, err := client.DeleteSession(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, "/pfcp/v1/sessions/42", gotPath)
	assert.Equal(t, uint64(42), resp.UPFSEID)
}

func TestGenerateSEID_DeterministicPerSUPIAndSession(t *testing.T) {
	a := GenerateSEID("imsi-001010000000001", 1)
	b := GenerateSEID("imsi-001010000000001", 1)
	c := GenerateSEID("imsi-001010000000001", 2)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
