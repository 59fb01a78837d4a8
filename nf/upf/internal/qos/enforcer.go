// Package qos implements the UPF's GTP-U enforcement path: per-tunnel token
// bucket rate limiting against a QER's MBR, and 5QI-based priority ordering
// for the packets that pass.
package qos

import (
	"sync"
	"time"
)

// priorityBy5QI is the fixed 5QI -> queue priority table (lower drains first).
var priorityBy5QI = map[int]int{
	1: 20, 2: 40, 3: 30, 4: 50, 5: 10, 6: 60, 7: 70, 8: 80, 9: 90,
	65: 7, 66: 15, 67: 15, 69: 5, 70: 55, 75: 25, 79: 65, 80: 68,
	82: 19, 83: 22, 84: 24, 85: 21,
}

const unknown5QIPriority = 90

// PriorityFor5QI returns the fixed queue priority for a 5QI value.
func PriorityFor5QI(var5qi int) int {
	if p, ok := priorityBy5QI[var5qi]; ok {
		return p
	}
	return unknown5QIPriority
}

// bucketKey identifies a token bucket by tunnel and direction.
type bucketKey struct {
	tunnelID  string
	direction string
}

// tokenBucket holds MBR/8 bytes, refilling at MBR/8 bytes/sec by wall clock.
type tokenBucket struct {
	mu         sync.Mutex
	capacity   float64 // bytes
	tokens     float64
	refillRate float64 // bytes/sec
	lastRefill time.Time
}

func newTokenBucket(mbrBps int64) *tokenBucket {
	rate := float64(mbrBps) / 8
	return &tokenBucket{
		capacity:   rate,
		tokens:     rate,
		refillRate: rate,
		lastRefill: time.Now(),
	}
}

func (b *tokenBucket) allow(size int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}

	if b.tokens < float64(size) {
		return false
	}
	b.tokens -= float64(size)
	return true
}

// Enforcer tracks per-(tunnel,direction) token buckets and per-tunnel drop
// counters used both by the GTP-U HTTP processing endpoint and the real N3/N6
// UDP data path.
type Enforcer struct {
	mu      sync.Mutex
	buckets map[bucketKey]*tokenBucket
	drops   map[string]int64 // tunnelID -> drop count since last reset
}

// NewEnforcer creates an empty enforcer.
func NewEnforcer() *Enforcer {
	return &Enforcer{
		buckets: make(map[bucketKey]*tokenBucket),
		drops:   make(map[string]int64),
	}
}

// Configure installs or replaces the MBR-derived bucket for a tunnel
// direction. A zero mbrBps means no rate limit: Allow always passes.
func (e *Enforcer) Configure(tunnelID, direction string, mbrBps int64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := bucketKey{tunnelID, direction}
	if mbrBps <= 0 {
		delete(e.buckets, key)
		return
	}
	e.buckets[key] = newTokenBucket(mbrBps)
}

// ConfigureIfAbsent installs a bucket only if one isn't already configured
// for (tunnelID, direction), so repeated calls per packet don't reset an
// in-flight bucket's accumulated tokens.
func (e *Enforcer) ConfigureIfAbsent(tunnelID, direction string, mbrBps int64) {
	if mbrBps <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	key := bucketKey{tunnelID, direction}
	if _, ok := e.buckets[key]; ok {
		return
	}
	e.buckets[key] = newTokenBucket(mbrBps)
}

// Allow applies the token bucket for (tunnelID, direction) to a packet of the
// given size. Tunnels with no configured MBR always pass.
func (e *Enforcer) Allow(tunnelID, direction string, size int) bool {
	e.mu.Lock()
	bucket, ok := e.buckets[bucketKey{tunnelID, direction}]
	e.mu.Unlock()
	if !ok {
		return true
	}

	allowed := bucket.allow(size)
	if !allowed {
		e.mu.Lock()
		e.drops[tunnelID]++
		e.mu.Unlock()
	}
	return allowed
}

// RemoveTunnel drops every bucket and drop counter associated with a tunnel,
// called when a PFCP session is deleted.
func (e *Enforcer) RemoveTunnel(tunnelID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.buckets, bucketKey{tunnelID, "uplink"})
	delete(e.buckets, bucketKey{tunnelID, "downlink"})
	delete(e.drops, tunnelID)
}

// DropCounts returns a snapshot of per-tunnel drop counts.
func (e *Enforcer) DropCounts() map[string]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]int64, len(e.drops))
	for k, v := range e.drops {
		out[k] = v
	}
	return out
}

// ResetDropCount zeroes a tunnel's drop counter after the drop monitor has
// logged it, so repeated warnings only fire on fresh drops.
func (e *Enforcer) ResetDropCount(tunnelID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.drops[tunnelID] = 0
}
