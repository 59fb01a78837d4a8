package context

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPv4Pool_AllocateSkipsNetworkAndBroadcast(t *testing.T) {
	pool, err := NewIPv4Pool("192.168.100.0/30") // usable: .1, .2
	require.NoError(t, err)

	first, err := pool.Allocate()
	require.NoError(t, err)
	second, err := pool.Allocate()
	require.NoError(t, err)

	assert.NotEqual(t, first.String(), second.String())
	assert.NotEqual(t, "192.168.100.0", first.String())
	assert.NotEqual(t, "192.168.100.3", first.String())
	assert.NotEqual(t, "192.168.100.0", second.String())
	assert.NotEqual(t, "192.168.100.3", second.String())
}

func TestIPv4Pool_ExhaustionReturnsError(t *testing.T) {
	pool, err := NewIPv4Pool("192.168.100.0/30") // usable: .1, .2
	require.NoError(t, err)

	_, err = pool.Allocate()
	require.NoError(t, err)
	_, err = pool.Allocate()
	require.NoError(t, err)

	_, err = pool.Allocate()
	assert.Error(t, err)
}

func TestIPv4Pool_ReleaseAllowsReallocation(t *testing.T) {
	pool, err := NewIPv4Pool("192.168.100.0/30")
	require.NoError(t, err)

	a, err := pool.Allocate()
	require.NoError(t, err)
	b, err := pool.Allocate()
	require.NoError(t, err)

	pool.Release(a)

	c, err := pool.Allocate()
	require.NoError(t, err)
	assert.Equal(t, a.String(), c.String())
	assert.NotEqual(t, b.String(), c.String())
}

func TestIPv6Pool_AllocateDistinctSubnets(t *testing.T) {
	pool, err := NewIPv6Pool("2001:db8:5::/48")
	require.NoError(t, err)

	first, err := pool.Allocate()
	require.NoError(t, err)
	second, err := pool.Allocate()
	require.NoError(t, err)

	assert.NotEqual(t, first.String(), second.String())
}

func TestIPv6Pool_RejectsPrefixLongerThanSlash64(t *testing.T) {
	_, err := NewIPv6Pool("2001:db8:5::/96")
	assert.Error(t, err)
}

func TestIPv6Pool_ReleaseAllowsReallocation(t *testing.T) {
	pool, err := NewIPv6Pool("2001:db8:5::/48")
	require.NoError(t, err)

	a, err := pool.Allocate()
	require.NoError(t, err)

	pool.Release(a)

	// Draining a second allocation and confirming no error demonstrates the
	// released subnet index remains usable; exact reuse order isn't a
	// contract, so this only checks continued allocation is possible.
	_, err = pool.Allocate()
	require.NoError(t, err)
}
