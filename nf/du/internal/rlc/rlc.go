// Package rlc implements a simplified RLC AM (Acknowledged Mode) entity
// per TS 38.322: sequence-number state machine, transmit/receive windows,
// and poll-bit triggering.
package rlc

import (
	"fmt"
	"sync"
)

const (
	// snModulus is 2^snFieldLength for a 12-bit AM SN field.
	snModulus = 4096
	// vrMR is the receive window size, grounded on du.py's RlcLayer (2048).
	vrMR = 2048
	// pollEveryNPDUs triggers a poll bit once this many PDUs were sent
	// without one, grounded on du.py's poll_pdu threshold.
	pollEveryNPDUs = 4
)

// Mode distinguishes AM (acknowledged) from UM bearers; only AM is modeled.
type Mode string

const (
	ModeAM Mode = "AM"
)

// PDU is one RLC AM PDU in flight, keyed by sequence number.
type PDU struct {
	SN      uint16
	Payload []byte
	Poll    bool
}

// AMEntity is one RLC AM entity (one per logical channel per UE).
type AMEntity struct {
	mu sync.Mutex

	UEID    uint32
	LCID    uint8
	Mode    Mode

	vtS uint16 // next SN to send
	vtA uint16 // oldest SN not yet acknowledged
	vrR uint16 // receive state, lowest SN not yet received

	pduWithoutPoll int
	txBuffer       map[uint16]*PDU
	rxBuffer       map[uint16]*PDU
}

// NewAMEntity creates an RLC AM entity in its initial (empty) state, per
// du.py's RlcLayer.create_am_entity.
func NewAMEntity(ueID uint32, lcid uint8) *AMEntity {
	return &AMEntity{
		UEID:     ueID,
		LCID:     lcid,
		Mode:     ModeAM,
		txBuffer: make(map[uint16]*PDU),
		rxBuffer: make(map[uint16]*PDU),
	}
}

// TransmitSDU segments (here: wraps whole) an SDU into one AM PDU, assigns
// it the next sequence number, and sets the poll bit once pollEveryNPDUs
// PDUs have gone out without one, per du.py's transmit_am_pdu.
func (e *AMEntity) TransmitSDU(payload []byte) *PDU {
	e.mu.Lock()
	defer e.mu.Unlock()

	sn := e.vtS
	e.vtS = (e.vtS + 1) % snModulus

	e.pduWithoutPoll++
	poll := e.pduWithoutPoll >= pollEveryNPDUs
	if poll {
		e.pduWithoutPoll = 0
	}

	pdu := &PDU{SN: sn, Payload: payload, Poll: poll}
	e.txBuffer[sn] = pdu
	return pdu
}

// ReceivePDU delivers an in-window PDU to the receive buffer and advances
// vr_R past any now-contiguous run, per du.py's receive_am_pdu /
// _is_in_receive_window.
func (e *AMEntity) ReceivePDU(pdu *PDU) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isInReceiveWindow(pdu.SN) {
		return fmt.Errorf("rlc: SN %d outside receive window [vr_R=%d, vr_MR=%d)", pdu.SN, e.vrR, vrMR)
	}

	e.rxBuffer[pdu.SN] = pdu
	for {
		if _, ok := e.rxBuffer[e.vrR]; !ok {
			break
		}
		delete(e.rxBuffer, e.vrR)
		e.vrR = (e.vrR + 1) % snModulus
	}
	return nil
}

// isInReceiveWindow reports whether sn falls within [vr_R, vr_R+vr_MR) mod
// snModulus, mirroring du.py's _is_in_receive_window.
func (e *AMEntity) isInReceiveWindow(sn uint16) bool {
	diff := (int(sn) - int(e.vrR) + snModulus) % snModulus
	return diff < vrMR
}

// AckUpTo advances vt_A to the acknowledged SN, discarding acknowledged
// PDUs from the transmit buffer, per an RLC STATUS PDU per TS 38.322 § 5.3.
func (e *AMEntity) AckUpTo(sn uint16) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.vtA != sn {
		delete(e.txBuffer, e.vtA)
		e.vtA = (e.vtA + 1) % snModulus
	}
}

// State reports the current SN state variables, used by tests and status
// reporting.
func (e *AMEntity) State() (vtS, vtA, vrR uint16) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.vtS, e.vtA, e.vrR
}

// Manager owns one AM entity per (UE, logical channel) pair.
type Manager struct {
	mu       sync.RWMutex
	entities map[string]*AMEntity
}

// NewManager creates an empty RLC entity table.
func NewManager() *Manager {
	return &Manager{entities: make(map[string]*AMEntity)}
}

func key(ueID uint32, lcid uint8) string {
	return fmt.Sprintf("%d:%d", ueID, lcid)
}

// CreateAMEntity creates (or replaces) the AM entity for ueID/lcid.
func (m *Manager) CreateAMEntity(ueID uint32, lcid uint8) *AMEntity {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := NewAMEntity(ueID, lcid)
	m.entities[key(ueID, lcid)] = e
	return e
}

// GetAMEntity resolves the AM entity for ueID/lcid, if one was created.
func (m *Manager) GetAMEntity(ueID uint32, lcid uint8) (*AMEntity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[key(ueID, lcid)]
	return e, ok
}
