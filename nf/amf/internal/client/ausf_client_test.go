package client

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

func TestAUSFClient_InitiateAuthenticationParsesAuthCtxIDFromLinks(t *testing.T) {
	var gotReq UEAuthenticationRequest
	ausf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/nausf-auth/v1/ue-authentications", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(UEAuthenticationResponse{
			AuthType: "5G_AKA",
			AuthenticationVector: &Var5gAuthData{
				RAND:  "rand-1",
				AUTN:  "autn-1",
				HXRES: "hxres-1",
			},
			Links: map[string]interface{}{
				"5g-aka": map[string]interface{}{
					"href": "/nausf-auth/v1/ue-authentications/ctx-42/5g-aka-confirmation",
				},
			},
		})
	}))
	defer ausf.Close()

	client := NewAUSFClient(ausf.URL, 0, zap.NewNop())
	resp, err := client.InitiateAuthentication(context.Background(), &UEAuthenticationRequest{
		SUPI:               "imsi-001010000000001",
		ServingNetworkName: "5G:mnc01.mcc001.3gppnetwork.org",
	})

	require.NoError(t, err)
	assert.Equal(t, "ctx-42", resp.AuthCtxID)
	assert.Equal(t, "rand-1", resp.AuthenticationVector.RAND)
	assert.Equal(t, "hxres-1", resp.AuthenticationVector.HXRES)
	assert.Equal(t, "imsi-001010000000001", gotReq.SUPI)
}

func TestAUSFClient_InitiateAuthenticationMapsTransportFailureToBackendUnavailable(t *testing.T) {
	client := NewAUSFClient("http://127.0.0.1:1", 0, zap.NewNop())

	_, err := client.InitiateAuthentication(context.Background(), &UEAuthenticationRequest{SUPI: "imsi-1"})
	require.Error(t, err)
	assert.Equal(t, apierror.BackendUnavailable, apierror.As(err).Kind)
}

func TestAUSFClient_ConfirmAuthenticationUsesAuthCtxIDInPath(t *testing.T) {
	var gotPath string
	var gotBody AuthConfirmationRequest
	ausf := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(AuthConfirmationResponse{
			AuthResult: "AUTHENTICATION_SUCCESS",
			SUPI:       "imsi-001010000000001",
			KSEAF:      "kseaf-1",
		})
	}))
	defer ausf.Close()

	client := NewAUSFClient(ausf.URL, 0, zap.NewNop())
	resp, err := client.ConfirmAuthentication(context.Background(), "ctx-42", "res-star-1")

	require.NoError(t, err)
	assert.Equal(t, "/nausf-auth/v1/ue-authentications/ctx-42/5g-aka-confirmation", gotPath)
	assert.Equal(t, "res-star-1", gotBody.ResStar)
	assert.Equal(t, "AUTHENTICATION_SUCCESS", resp.AuthResult)
	assert.Equal(t, "kseaf-1", resp.KSEAF)
}

func TestAuthCtxIDFromLinks(t *testing.T) {
	tests := []struct {
		name    string
		links   map[string]interface{}
		want    string
		wantErr bool
	}{
		{
			name: "valid href",
			links: map[string]interface{}{
				"5g-aka": map[string]interface{}{
					"href": "/nausf-auth/v1/ue-authentications/abc-123/5g-aka-confirmation",
				},
			},
			want: "abc-123",
		},
		{
			name:    "missing 5g-aka link",
			links:   map[string]interface{}{},
			wantErr: true,
		},
		{
			name: "missing href",
			links: map[string]interface{}{
				"5g-aka": map[string]interface{}{},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := authCtxIDFromLinks(tt.links)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
