package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPDUSession_DefaultsToInactiveIPv4(t *testing.T) {
	s := NewPDUSession("imsi-1", 3, "internet", SNSSAI{SST: 1, SD: "010203"})

	assert.Equal(t, PDUSessionStateInactive, s.GetState())
	assert.Equal(t, PDUSessionTypeIPv4, s.PDUSessionType)
	assert.Equal(t, SSCMode1, s.SSCMode)
	assert.Empty(t, s.QoSFlows)
}

func TestPDUSession_UpdateStateIsObservable(t *testing.T) {
	s := NewPDUSession("imsi-1", 1, "internet", SNSSAI{SST: 1})
	s.UpdateState(PDUSessionStateActive)
	assert.Equal(t, PDUSessionStateActive, s.GetState())
}

func TestPDUSession_AddAndRemoveQoSFlow(t *testing.T) {
	s := NewPDUSession("imsi-1", 1, "internet", SNSSAI{SST: 1})
	flow := &QoSFlow{QFI: 9, FiveQI: 9, Priority: 80}

	s.AddQoSFlow(flow)
	assert.Len(t, s.QoSFlows, 1)
	assert.Equal(t, flow, s.QoSFlows[9])

	s.RemoveQoSFlow(9)
	assert.Empty(t, s.QoSFlows)
}

func TestPDUSession_SetUPFInfoAndGNBInfo(t *testing.T) {
	s := NewPDUSession("imsi-1", 1, "internet", SNSSAI{SST: 1})

	s.SetGNBInfo(42, "10.0.0.5")
	assert.Equal(t, uint32(42), s.GNBTEIDUplink)
	assert.Equal(t, "10.0.0.5", s.GNBN3Address)

	s.SetUPFInfo("upf-1", "http://127.0.0.1:9002", 1001, 1001)
	assert.Equal(t, "upf-1", s.UPFNodeID)
	assert.Equal(t, uint32(1001), s.UPFTEIDUplink)
	assert.Equal(t, uint32(1001), s.UPFTEIDDownlink)
}
