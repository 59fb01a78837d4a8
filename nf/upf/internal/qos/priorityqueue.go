package qos

import "container/heap"

// QueuedPacket is a packet admitted past rate limiting, waiting to be
// accounted for by priority order.
type QueuedPacket struct {
	TunnelID  string
	Direction string
	Size      int
	Priority  int // lower drains first
	seq       int // FIFO tiebreaker within the same priority
}

type packetHeap []*QueuedPacket

func (h packetHeap) Len() int { return len(h) }
func (h packetHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}
func (h packetHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *packetHeap) Push(x interface{}) {
	*h = append(*h, x.(*QueuedPacket))
}
func (h *packetHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// PriorityQueue orders queued packets lowest-priority-number-first, with a
// background goroutine draining it so the HTTP response path never blocks on
// accounting.
type PriorityQueue struct {
	in      chan *QueuedPacket
	done    chan struct{}
	nextSeq int
}

// NewPriorityQueue starts the drain loop, invoking drain for each packet in
// priority order.
func NewPriorityQueue(drain func(*QueuedPacket)) *PriorityQueue {
	q := &PriorityQueue{
		in:   make(chan *QueuedPacket, 4096),
		done: make(chan struct{}),
	}
	go q.run(drain)
	return q
}

func (q *PriorityQueue) run(drain func(*QueuedPacket)) {
	h := &packetHeap{}
	heap.Init(h)

	for {
		if h.Len() == 0 {
			select {
			case p, ok := <-q.in:
				if !ok {
					return
				}
				heap.Push(h, p)
			case <-q.done:
				return
			}
			continue
		}

		select {
		case p, ok := <-q.in:
			if !ok {
				return
			}
			heap.Push(h, p)
		case <-q.done:
			return
		default:
			p := heap.Pop(h).(*QueuedPacket)
			drain(p)
		}
	}
}

// Enqueue submits a packet for priority-ordered accounting.
func (q *PriorityQueue) Enqueue(p *QueuedPacket) {
	q.nextSeq++
	p.seq = q.nextSeq
	select {
	case q.in <- p:
	default:
		// Queue full: drop silently, the caller already counted this as a
		// successful admission past the token bucket.
	}
}

// Stop ends the drain loop.
func (q *PriorityQueue) Stop() {
	close(q.done)
}
