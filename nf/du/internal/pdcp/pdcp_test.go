package pdcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntity_TransmitSDU_AppliesCompressionAndCipherMarkers(t *testing.T) {
	e := NewEntity(1, 5, BearerTypeDRB)

	sn, pdu := e.TransmitSDU("hello")

	assert.Equal(t, uint32(0), sn)
	assert.Equal(t, cipheredPrefix+compressedPrefix+"hello", pdu)
}

func TestEntity_TransmitSDU_IncrementsSNModuloBearerSize(t *testing.T) {
	e := NewEntity(1, 1, BearerTypeSRB)

	var last uint32
	for i := 0; i < (1 << snSizeSRB); i++ {
		sn, _ := e.TransmitSDU("x")
		last = sn
	}
	assert.Equal(t, uint32((1<<snSizeSRB)-1), last)

	wrapped, _ := e.TransmitSDU("x")
	assert.Equal(t, uint32(0), wrapped)
}

func TestEntity_ReceivePDU_ReversesTransmitSDU(t *testing.T) {
	e := NewEntity(1, 5, BearerTypeDRB)

	sn, pdu := e.TransmitSDU("hello")

	sdu, err := e.ReceivePDU(sn, pdu)
	require.NoError(t, err)
	assert.Equal(t, "hello", sdu)
}

func TestEntity_ReceivePDU_RejectsMalformedPDU(t *testing.T) {
	e := NewEntity(1, 5, BearerTypeDRB)

	_, err := e.ReceivePDU(0, "not-a-real-pdu")
	assert.Error(t, err)
}

func TestManager_CreateAndGetEntity(t *testing.T) {
	m := NewManager()
	m.CreateEntity(3, 1, BearerTypeSRB)

	e, ok := m.GetEntity(3, 1)
	require.True(t, ok)
	assert.Equal(t, BearerTypeSRB, e.BearerType)

	_, ok = m.GetEntity(3, 2)
	assert.False(t, ok)
}
