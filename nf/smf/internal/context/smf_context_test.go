package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMFContext_AddGetRemoveSession(t *testing.T) {
	ctx := NewSMFContext("upf-1", "http://127.0.0.1:9002")

	session := NewPDUSession("imsi-001010000000001", 1, "internet", SNSSAI{SST: 1})
	require.NoError(t, ctx.AddSession(session))

	got, err := ctx.GetSession("imsi-001010000000001", 1)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, ctx.RemoveSession("imsi-001010000000001", 1))
	_, err = ctx.GetSession("imsi-001010000000001", 1)
	assert.Error(t, err)
}

func TestSMFContext_AddSessionRejectsDuplicateKey(t *testing.T) {
	ctx := NewSMFContext("upf-1", "http://127.0.0.1:9002")

	require.NoError(t, ctx.AddSession(NewPDUSession("imsi-1", 1, "internet", SNSSAI{SST: 1})))
	err := ctx.AddSession(NewPDUSession("imsi-1", 1, "internet", SNSSAI{SST: 1}))
	assert.Error(t, err)
}

func TestSMFContext_GetStatisticsCountsActiveSessions(t *testing.T) {
	ctx := NewSMFContext("upf-1", "http://127.0.0.1:9002")

	active := NewPDUSession("imsi-1", 1, "internet", SNSSAI{SST: 1})
	active.UpdateState(PDUSessionStateActive)
	require.NoError(t, ctx.AddSession(active))

	pending := NewPDUSession("imsi-2", 1, "internet", SNSSAI{SST: 1})
	require.NoError(t, ctx.AddSession(pending))

	stats := ctx.GetStatistics()
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.ActiveSessions)
}

func TestSMFContext_AllSessionKeysUsesCanonicalFormat(t *testing.T) {
	ctx := NewSMFContext("upf-1", "http://127.0.0.1:9002")
	require.NoError(t, ctx.AddSession(NewPDUSession("imsi-001010000000001", 1, "internet", SNSSAI{SST: 1})))

	keys := ctx.AllSessionKeys()
	require.Len(t, keys, 1)
	assert.Equal(t, "imsi-001010000000001:1", keys[0])
}

func TestSMFContext_GetUPFInfo(t *testing.T) {
	ctx := NewSMFContext("upf-1", "http://127.0.0.1:9002")
	nodeID, addr := ctx.GetUPFInfo()
	assert.Equal(t, "upf-1", nodeID)
	assert.Equal(t, "http://127.0.0.1:9002", addr)
}
