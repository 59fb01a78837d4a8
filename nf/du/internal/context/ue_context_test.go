package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_CreateContext_AllocatesMonotonicIDs(t *testing.T) {
	m := NewManager()

	first := m.CreateContext()
	second := m.CreateContext()

	assert.Equal(t, uint32(1), first.GNBDUUEF1APID)
	assert.Equal(t, uint32(2), second.GNBDUUEF1APID)
}

func TestNewUEContext_DerivesCRNTIFromID(t *testing.T) {
	m := NewManager()

	ctx := m.CreateContext()

	assert.Equal(t, uint16(0x1000+1), ctx.CRNTI)
	assert.Equal(t, MACStateActive, ctx.MACState)
}

func TestManager_GetContext_UnknownIDNotFound(t *testing.T) {
	m := NewManager()

	_, ok := m.GetContext(999)
	assert.False(t, ok)
}

func TestManager_GetAll_ReturnsEveryCreatedContext(t *testing.T) {
	m := NewManager()
	m.CreateContext()
	m.CreateContext()
	m.CreateContext()

	all := m.GetAll()

	assert.Len(t, all, 3)
	assert.Equal(t, 3, m.Count())
}

func TestUEContext_Snapshot_ReflectsCurrentState(t *testing.T) {
	m := NewManager()
	ctx := m.CreateContext()

	view := ctx.Snapshot()

	require.Equal(t, ctx.GNBDUUEF1APID, view.GNBDUUEF1APID)
	assert.Equal(t, MACStateActive, view.MACState)
}
