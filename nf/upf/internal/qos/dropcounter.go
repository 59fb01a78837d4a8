package qos

import (
	"fmt"

	"github.com/cilium/ebpf"
)

// DropCounterReader exposes per-tunnel drop counts from whatever backend is
// available: a pinned eBPF map when the host has one loaded, or the
// Enforcer's own in-process counters otherwise.
type DropCounterReader interface {
	DropCounts() (map[string]int64, error)
}

// SoftwareDropCounters adapts an Enforcer to DropCounterReader when no eBPF
// map is pinned on the host, which is the common case for a development or
// CI run of the emulator.
type SoftwareDropCounters struct {
	enforcer *Enforcer
}

// NewSoftwareDropCounters wraps enforcer as a DropCounterReader.
func NewSoftwareDropCounters(enforcer *Enforcer) *SoftwareDropCounters {
	return &SoftwareDropCounters{enforcer: enforcer}
}

// DropCounts returns the enforcer's own drop counters.
func (s *SoftwareDropCounters) DropCounts() (map[string]int64, error) {
	return s.enforcer.DropCounts(), nil
}

// pinnedMapDropCounters reads drop counts from a pinned eBPF hash map keyed
// by a fixed-width tunnel ID, populated by an XDP/TC program this emulator
// does not ship.
type pinnedMapDropCounters struct {
	m *ebpf.Map
}

// DropCounts iterates the pinned map, decoding each entry as a tunnel ID
// string key to a uint64 count.
func (p *pinnedMapDropCounters) DropCounts() (map[string]int64, error) {
	out := make(map[string]int64)
	var key [64]byte
	var value uint64

	it := p.m.Iterate()
	for it.Next(&key, &value) {
		tunnelID := decodeTunnelKey(key[:])
		out[tunnelID] = int64(value)
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("iterating pinned drop-counter map: %w", err)
	}
	return out, nil
}

func decodeTunnelKey(key []byte) string {
	end := len(key)
	for end > 0 && key[end-1] == 0 {
		end--
	}
	return string(key[:end])
}

// LoadPinnedMap opens a pinned eBPF map at pinPath and returns a
// DropCounterReader backed by it. Callers should fall back to
// SoftwareDropCounters when this returns an error, since most deployments of
// this emulator run without a loaded eBPF program.
func LoadPinnedMap(pinPath string) (DropCounterReader, error) {
	m, err := ebpf.LoadPinnedMap(pinPath, nil)
	if err != nil {
		return nil, fmt.Errorf("loading pinned map %s: %w", pinPath, err)
	}
	return &pinnedMapDropCounters{m: m}, nil
}
