package phy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestLayer() *Layer {
	return NewLayer(1, 20, 100, 14, 12)
}

func TestGenerateSlot_ReportsConfiguredGridShape(t *testing.T) {
	l := newTestLayer()

	grid := l.GenerateSlot()

	assert.Equal(t, 1, grid.NumerologyMu)
	assert.Equal(t, 100, grid.ResourceBlocks)
	assert.Equal(t, 14, grid.SymbolsPerSlot)
	assert.Equal(t, 12, grid.SubcarriersPerRB)
	assert.Equal(t, "QPSK", grid.Modulation)
}

func TestProcessPRACH_DerivesTempCRNTIFromPreambleIndex(t *testing.T) {
	l := newTestLayer()

	detection := l.ProcessPRACH(5)

	assert.Equal(t, uint16(0x1000+5), detection.TempCRNTI)
	assert.Equal(t, 0, detection.TimingAdvance)
}

func TestTick_AdvancesSlotAndWrapsIntoNextFrame(t *testing.T) {
	l := newTestLayer()

	var last SlotState
	for i := 0; i < 20; i++ {
		last = l.Tick()
	}

	assert.Equal(t, uint32(1), last.SFN)
	assert.Equal(t, 0, last.Slot)
}

func TestCurrentSlot_DoesNotAdvanceCounters(t *testing.T) {
	l := newTestLayer()
	l.Tick()

	first := l.CurrentSlot()
	second := l.CurrentSlot()

	assert.Equal(t, first, second)
}
