package rlc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAMEntity_TransmitSDU_AssignsIncrementingSN(t *testing.T) {
	e := NewAMEntity(1, 1)

	first := e.TransmitSDU([]byte("a"))
	second := e.TransmitSDU([]byte("b"))

	assert.Equal(t, uint16(0), first.SN)
	assert.Equal(t, uint16(1), second.SN)
}

func TestAMEntity_TransmitSDU_SetsPollBitEveryFourthPDU(t *testing.T) {
	e := NewAMEntity(1, 1)

	var polls []bool
	for i := 0; i < 4; i++ {
		pdu := e.TransmitSDU([]byte("x"))
		polls = append(polls, pdu.Poll)
	}

	assert.Equal(t, []bool{false, false, false, true}, polls)
}

func TestAMEntity_ReceivePDU_AdvancesReceiveStateOnContiguousRun(t *testing.T) {
	e := NewAMEntity(1, 1)

	require.NoError(t, e.ReceivePDU(&PDU{SN: 0, Payload: []byte("a")}))
	require.NoError(t, e.ReceivePDU(&PDU{SN: 1, Payload: []byte("b")}))

	_, _, vrR := e.State()
	assert.Equal(t, uint16(2), vrR)
}

func TestAMEntity_ReceivePDU_OutOfOrderDoesNotAdvanceUntilGapFilled(t *testing.T) {
	e := NewAMEntity(1, 1)

	require.NoError(t, e.ReceivePDU(&PDU{SN: 1, Payload: []byte("b")}))
	_, _, vrR := e.State()
	assert.Equal(t, uint16(0), vrR, "vr_R should not advance until SN 0 arrives")

	require.NoError(t, e.ReceivePDU(&PDU{SN: 0, Payload: []byte("a")}))
	_, _, vrR = e.State()
	assert.Equal(t, uint16(2), vrR)
}

func TestAMEntity_ReceivePDU_RejectsSNOutsideReceiveWindow(t *testing.T) {
	e := NewAMEntity(1, 1)

	err := e.ReceivePDU(&PDU{SN: vrMR, Payload: []byte("x")})
	assert.Error(t, err)
}

func TestAMEntity_AckUpTo_DiscardsAcknowledgedPDUs(t *testing.T) {
	e := NewAMEntity(1, 1)
	e.TransmitSDU([]byte("a"))
	e.TransmitSDU([]byte("b"))

	e.AckUpTo(2)

	vtS, vtA, _ := e.State()
	assert.Equal(t, uint16(2), vtS)
	assert.Equal(t, uint16(2), vtA)
}

func TestManager_CreateAndGetAMEntity(t *testing.T) {
	m := NewManager()
	m.CreateAMEntity(7, 1)

	e, ok := m.GetAMEntity(7, 1)
	require.True(t, ok)
	assert.Equal(t, uint32(7), e.UEID)

	_, ok = m.GetAMEntity(7, 2)
	assert.False(t, ok)
}
