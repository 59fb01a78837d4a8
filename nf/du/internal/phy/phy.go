// Package phy implements a simplified NR physical layer: slot/frame
// bookkeeping, a QPSK resource grid placeholder, and PRACH preamble
// detection, grounded on du.py's PhyLayer.
package phy

import (
	"sync"
)

// ResourceGrid is a simplified OFDM resource grid: resourceBlocks carriers
// × symbolsPerSlot OFDM symbols, QPSK-mapped (2 bits/subcarrier/symbol).
type ResourceGrid struct {
	NumerologyMu     int `json:"numerologyMu"`
	ResourceBlocks   int `json:"resourceBlocks"`
	SubcarriersPerRB int `json:"subcarriersPerRb"`
	SymbolsPerSlot   int `json:"symbolsPerSlot"`
	Modulation       string `json:"modulation"`
}

// PRACHDetection is the result of processing one PRACH preamble, per
// du.py's process_prach: a temporary C-RNTI and a default UL grant for
// Msg3.
type PRACHDetection struct {
	PreambleIndex int    `json:"preambleIndex"`
	TempCRNTI     uint16 `json:"tempCRnti"`
	TimingAdvance int    `json:"timingAdvance"`
}

// SlotState is the current frame/slot counters, advanced once per tick by
// the background slot-processing worker, per du.py's slot_processing_task.
type SlotState struct {
	SFN  uint32 `json:"sfn"`
	Slot int    `json:"slot"`
}

// Layer is the PHY layer: slot counters plus the static grid/PRACH config.
type Layer struct {
	mu sync.Mutex

	Numerology       int
	SlotsPerFrame    int
	ResourceBlocks   int
	SymbolsPerSlot   int
	SubcarriersPerRB int

	sfn  uint32
	slot int
}

// NewLayer creates a PHY layer with the given static configuration,
// counters starting at SFN 0 / slot 0.
func NewLayer(numerology, slotsPerFrame, resourceBlocks, symbolsPerSlot, subcarriersPerRB int) *Layer {
	return &Layer{
		Numerology:       numerology,
		SlotsPerFrame:    slotsPerFrame,
		ResourceBlocks:   resourceBlocks,
		SymbolsPerSlot:   symbolsPerSlot,
		SubcarriersPerRB: subcarriersPerRB,
	}
}

// GenerateSlot returns the static resource-grid description for the
// current slot. The grid content itself is not simulated; only its shape
// is reported, matching du.py's simplified generate_slot.
func (l *Layer) GenerateSlot() ResourceGrid {
	return ResourceGrid{
		NumerologyMu:     l.Numerology,
		ResourceBlocks:   l.ResourceBlocks,
		SubcarriersPerRB: l.SubcarriersPerRB,
		SymbolsPerSlot:   l.SymbolsPerSlot,
		Modulation:       "QPSK",
	}
}

// ProcessPRACH detects a PRACH preamble and derives a temporary C-RNTI
// for Msg2 (Random Access Response), per du.py's process_prach: timing
// advance is always reported as 0 in this simulation.
func (l *Layer) ProcessPRACH(preambleIndex int) PRACHDetection {
	return PRACHDetection{
		PreambleIndex: preambleIndex,
		TempCRNTI:     0x1000 + uint16(preambleIndex),
		TimingAdvance: 0,
	}
}

// Tick advances the slot counter by one, wrapping into the next frame at
// SlotsPerFrame, per du.py's slot_processing_task's 1ms tick.
func (l *Layer) Tick() SlotState {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.slot++
	if l.slot >= l.SlotsPerFrame {
		l.slot = 0
		l.sfn++
	}
	return SlotState{SFN: l.sfn, Slot: l.slot}
}

// CurrentSlot reports the current frame/slot counters without advancing them.
func (l *Layer) CurrentSlot() SlotState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return SlotState{SFN: l.sfn, Slot: l.slot}
}
