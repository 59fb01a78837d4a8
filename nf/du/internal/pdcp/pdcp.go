// Package pdcp implements a simplified PDCP entity per TS 38.323: header
// compression and ciphering are simulated with string-prefix markers rather
// than real ROHC/cipher algorithms, exactly as the reference DU does for its
// protocol stack emulation. Integrity protection is not simulated: no
// integrity tag is added on transmit or checked on receive.
package pdcp

import (
	"fmt"
	"strings"
	"sync"
)

// BearerType selects the PDCP SN length: 12 bits for data radio bearers,
// 5 bits for signalling radio bearers, per TS 38.323 § 6.3.
type BearerType string

const (
	BearerTypeSRB BearerType = "SRB"
	BearerTypeDRB BearerType = "DRB"
)

const (
	snSizeSRB = 5
	snSizeDRB = 12
)

const (
	compressedPrefix = "compressed_"
	cipheredPrefix   = "ciphered_"
)

// Entity is one PDCP entity (one per SRB/DRB per UE).
type Entity struct {
	mu sync.Mutex

	UEID       uint32
	BearerID   uint8
	BearerType BearerType
	snModulus  uint32

	txNext uint32
	rxNext uint32
}

// NewEntity creates a PDCP entity with the SN size appropriate to its
// bearer type, per du.py's PdcpLayer.create_entity.
func NewEntity(ueID uint32, bearerID uint8, bearerType BearerType) *Entity {
	snSize := snSizeDRB
	if bearerType == BearerTypeSRB {
		snSize = snSizeSRB
	}
	return &Entity{
		UEID:       ueID,
		BearerID:   bearerID,
		BearerType: bearerType,
		snModulus:  1 << uint(snSize),
	}
}

// TransmitSDU applies (simulated) header compression and ciphering to an
// SDU and assigns it the next PDCP SN, per du.py's transmit_pdcp_sdu.
func (e *Entity) TransmitSDU(sdu string) (sn uint32, pdu string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sn = e.txNext
	e.txNext = (e.txNext + 1) % e.snModulus

	compressed := compressedPrefix + sdu
	pdu = cipheredPrefix + compressed
	return sn, pdu
}

// ReceivePDU reverses the (simulated) ciphering and header decompression
// applied by TransmitSDU, per du.py's receive_pdcp_pdu.
func (e *Entity) ReceivePDU(sn uint32, pdu string) (sdu string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deciphered := strings.TrimPrefix(pdu, cipheredPrefix)
	if deciphered == pdu {
		return "", fmt.Errorf("pdcp: PDU missing cipher marker")
	}
	decompressed := strings.TrimPrefix(deciphered, compressedPrefix)
	if decompressed == deciphered {
		return "", fmt.Errorf("pdcp: PDU missing header-compression marker")
	}

	e.rxNext = (sn + 1) % e.snModulus
	return decompressed, nil
}

// Manager owns one PDCP entity per (UE, bearer) pair.
type Manager struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewManager creates an empty PDCP entity table.
func NewManager() *Manager {
	return &Manager{entities: make(map[string]*Entity)}
}

func key(ueID uint32, bearerID uint8) string {
	return fmt.Sprintf("%d:%d", ueID, bearerID)
}

// CreateEntity creates (or replaces) the PDCP entity for ueID/bearerID.
func (m *Manager) CreateEntity(ueID uint32, bearerID uint8, bearerType BearerType) *Entity {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := NewEntity(ueID, bearerID, bearerType)
	m.entities[key(ueID, bearerID)] = e
	return e
}

// GetEntity resolves the PDCP entity for ueID/bearerID, if one was created.
func (m *Manager) GetEntity(ueID uint32, bearerID uint8) (*Entity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[key(ueID, bearerID)]
	return e, ok
}
