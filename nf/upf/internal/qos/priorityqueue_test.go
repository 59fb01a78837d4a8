package qos

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_DrainsLowestPriorityFirst(t *testing.T) {
	var mu sync.Mutex
	var drained []int
	done := make(chan struct{})

	q := NewPriorityQueue(func(p *QueuedPacket) {
		mu.Lock()
		drained = append(drained, p.Priority)
		if len(drained) == 3 {
			close(done)
		}
		mu.Unlock()
	})
	defer q.Stop()

	q.Enqueue(&QueuedPacket{Priority: 90})
	q.Enqueue(&QueuedPacket{Priority: 10})
	q.Enqueue(&QueuedPacket{Priority: 50})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for packets to drain")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, drained, 3)
	assert.Equal(t, []int{10, 50, 90}, drained)
}

func TestPriorityQueue_SamePriorityDrainsFIFO(t *testing.T) {
	var mu sync.Mutex
	var drained []string
	done := make(chan struct{})

	q := NewPriorityQueue(func(p *QueuedPacket) {
		mu.Lock()
		drained = append(drained, p.TunnelID)
		if len(drained) == 3 {
			close(done)
		}
		mu.Unlock()
	})
	defer q.Stop()

	q.Enqueue(&QueuedPacket{Priority: 20, TunnelID: "first"})
	q.Enqueue(&QueuedPacket{Priority: 20, TunnelID: "second"})
	q.Enqueue(&QueuedPacket{Priority: 20, TunnelID: "third"})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for packets to drain")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third"}, drained)
}
