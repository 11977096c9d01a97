// Package queue implements the bounded FIFOs that decouple the protocol
// codec and connection manager: an outbound queue of ready-to-send
// frames, an inbound queue of raw byte chunks read off the socket, and a
// single-slot "hello" holder consumed once per (re)connect.
package queue

import "sync"

// defaultCapacity bounds each FIFO so a stuck peer or a runaway producer
// cannot exhaust memory; see SPEC_FULL.md / the design notes on
// unbounded queues. Oldest entries are dropped on overflow.
const defaultCapacity = 1024

// Packets is a thread-safe FIFO of byte slices. Enqueue never blocks (a
// full queue drops its oldest entry), and DequeueNonBlocking returns
// ok=false instead of waiting when empty.
type Packets struct {
	mu       sync.Mutex
	items    [][]byte
	capacity int
}

// New creates a Packets queue with the default capacity.
func New() *Packets {
	return &Packets{capacity: defaultCapacity}
}

// Enqueue appends a packet, dropping the oldest entry if the queue is at
// capacity.
func (q *Packets) Enqueue(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		q.items = q.items[1:]
	}
	q.items = append(q.items, p)
}

// DequeueNonBlocking removes and returns the oldest packet, or ok=false
// if the queue is empty.
func (q *Packets) DequeueNonBlocking() (p []byte, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	p = q.items[0]
	q.items = q.items[1:]
	return p, true
}

// Clear empties the queue.
func (q *Packets) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Len reports the current queue depth, for metrics.
func (q *Packets) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Hello is the single-slot holder for the handshake frame: it is
// produced by the codec (directly, or via the ping producer's periodic
// refresh) and consumed exactly once per (re)connect by the connection
// manager.
type Hello struct {
	mu  sync.Mutex
	pkt []byte
}

// Set stores the hello frame, replacing any previous one.
func (h *Hello) Set(p []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pkt = p
}

// Take returns the stored hello frame and clears the slot, so it fires
// exactly once unless refreshed in the meantime.
func (h *Hello) Take() (p []byte, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pkt == nil {
		return nil, false
	}
	p, h.pkt = h.pkt, nil
	return p, true
}

// Queues bundles the outbound/inbound FIFOs and the hello slot that a
// session shares between the codec, ping producer, decoder and
// connection manager.
type Queues struct {
	Outbound *Packets
	Inbound  *Packets
	Hello    *Hello
}

// NewQueues constructs a fresh set of queues.
func NewQueues() *Queues {
	return &Queues{
		Outbound: New(),
		Inbound:  New(),
		Hello:    &Hello{},
	}
}

// ClearAll empties both FIFOs; it does not touch the hello slot, which
// is addressed independently (a fresh hello is always wanted right after
// a clear, on reconnect or reconfiguration).
func (q *Queues) ClearAll() {
	q.Outbound.Clear()
	q.Inbound.Clear()
}
