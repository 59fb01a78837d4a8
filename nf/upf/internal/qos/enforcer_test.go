package qos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriorityFor5QI_KnownAndUnknown(t *testing.T) {
	assert.Equal(t, 10, PriorityFor5QI(5))
	assert.Equal(t, 20, PriorityFor5QI(1))
	assert.Equal(t, unknown5QIPriority, PriorityFor5QI(999))
}

func TestEnforcer_AllowWithinCapacity(t *testing.T) {
	e := NewEnforcer()
	e.Configure("tun-1", "uplink", 8000) // 1000 bytes/sec capacity

	assert.True(t, e.Allow("tun-1", "uplink", 500))
	assert.True(t, e.Allow("tun-1", "uplink", 500))
}

func TestEnforcer_BlocksOverCapacityThenRecoversAfterRefill(t *testing.T) {
	e := NewEnforcer()
	e.Configure("tun-1", "uplink", 8000) // 1000 bytes/sec capacity

	assert.True(t, e.Allow("tun-1", "uplink", 1000))
	assert.False(t, e.Allow("tun-1", "uplink", 1))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, e.Allow("tun-1", "uplink", 10))
}

func TestEnforcer_NoConfiguredBucketAlwaysAllows(t *testing.T) {
	e := NewEnforcer()
	assert.True(t, e.Allow("tun-unconfigured", "downlink", 1<<20))
}

func TestEnforcer_ConfigureIfAbsentDoesNotResetExistingBucket(t *testing.T) {
	e := NewEnforcer()
	e.Configure("tun-1", "uplink", 8000)
	e.Allow("tun-1", "uplink", 1000) // drains the bucket

	e.ConfigureIfAbsent("tun-1", "uplink", 8000)
	assert.False(t, e.Allow("tun-1", "uplink", 1))
}

func TestEnforcer_DropCountsAndReset(t *testing.T) {
	e := NewEnforcer()
	e.Configure("tun-1", "uplink", 8000)
	e.Allow("tun-1", "uplink", 1000)
	e.Allow("tun-1", "uplink", 1) // dropped

	assert.Equal(t, int64(1), e.DropCounts()["tun-1"])

	e.ResetDropCount("tun-1")
	assert.Equal(t, int64(0), e.DropCounts()["tun-1"])
}

func TestEnforcer_RemoveTunnelClearsBucketsAndDrops(t *testing.T) {
	e := NewEnforcer()
	e.Configure("tun-1", "uplink", 8000)
	e.Allow("tun-1", "uplink", 1000)
	e.Allow("tun-1", "uplink", 1) // dropped

	e.RemoveTunnel("tun-1")

	assert.Equal(t, int64(0), e.DropCounts()["tun-1"])
	assert.True(t, e.Allow("tun-1", "uplink", 1<<20)) // bucket gone, passes freely
}

func TestEnforcer_ConfigureWithZeroMBRRemovesLimit(t *testing.T) {
	e := NewEnforcer()
	e.Configure("tun-1", "uplink", 8000)
	e.Configure("tun-1", "uplink", 0)

	assert.True(t, e.Allow("tun-1", "uplink", 1<<20))
}
