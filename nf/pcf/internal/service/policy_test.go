package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(zap.NewNop())
}

func TestCreate_DefaultInternetRule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assoc, err := svc.Create(ctx, &CreateRequest{SUPI: "imsi-001010000000001", DNN: "internet"})
	require.NoError(t, err)

	assert.Contains(t, assoc.Decision.PccRules, "rule_internet")
	assert.Contains(t, assoc.Decision.QosDecs, "qos_internet")
	assert.Len(t, assoc.Decision.PolicyCtrlReqTriggers, len(AllTriggers))
}

func TestCreate_VideoDNNAddsVideoRule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assoc, err := svc.Create(ctx, &CreateRequest{SUPI: "imsi-001010000000002", DNN: "video-streaming"})
	require.NoError(t, err)

	assert.Contains(t, assoc.Decision.PccRules, "rule_video_streaming")
	qosID := assoc.Decision.PccRules["rule_video_streaming"].RefQosData
	assert.Contains(t, assoc.Decision.QosDecs, qosID)
	assert.Equal(t, 2, assoc.Decision.QosDecs[qosID].Var5QI)
}

func TestUpdate_AppStartAddsRule(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assoc, err := svc.Create(ctx, &CreateRequest{SUPI: "imsi-001010000000003", DNN: "internet"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, assoc.AssocID, &UpdateRequest{
		Triggers:       []string{"APP_STA"},
		ContextUpdates: map[string]interface{}{"app_id": "video_streaming_app"},
	})
	require.NoError(t, err)

	assert.Contains(t, updated.Decision.PccRules, "rule_video_streaming")
	assert.Equal(t, "qos_video", updated.Decision.PccRules["rule_video_streaming"].RefQosData)
}

func TestUpdate_QosNotificationHighCongestionThrottlesBestEffort(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assoc, err := svc.Create(ctx, &CreateRequest{SUPI: "imsi-001010000000004", DNN: "internet"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, assoc.AssocID, &UpdateRequest{
		Triggers:       []string{"QOS_NOTIF"},
		ContextUpdates: map[string]interface{}{"congestion_level": "high"},
	})
	require.NoError(t, err)

	qos := updated.Decision.QosDecs["qos_internet"]
	assert.Equal(t, int64(500000), qos.MaxBitRateUL)
	assert.Equal(t, int64(1000000), qos.MaxBitRateDL)
}

func TestUpdate_UnknownTriggerIsInvalidArgument(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assoc, err := svc.Create(ctx, &CreateRequest{SUPI: "imsi-001010000000005", DNN: "internet"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, assoc.AssocID, &UpdateRequest{Triggers: []string{"NOT_A_TRIGGER"}})
	assert.Error(t, err)
}

func TestGet_UnknownAssociationIsNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Get("does-not-exist")
	assert.Error(t, err)
}
