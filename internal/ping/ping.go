// Package ping implements the periodic keep-alive producer: it enqueues
// GetServerStatus requests and periodically refreshes the hello slot so
// Umirs keeps treating the client as alive.
package ping

import (
	"log"
	"sync"
	"time"

	"github.com/cwsl/radescan-driver/internal/protocol"
	"github.com/cwsl/radescan-driver/internal/queue"
)

// Interval is the fixed period between status requests. Per spec.md
// §4.3 this is hard-coded at 3.0s regardless of the configured
// net.ping_time, which instead governs the connection manager's
// inter-iteration sleep.
const Interval = 3 * time.Second

// HelloEveryNPings refreshes the hello slot after this many status
// requests.
const HelloEveryNPings = 5

// Producer runs the ping loop for one session. It is restartable:
// Restart waits for the running loop to exit and starts a fresh one on
// the same Producer.
type Producer struct {
	codec  *protocol.Codec
	queues *queue.Queues
	logger *log.Logger

	mu      sync.Mutex
	live    bool
	pingLive bool
	done    chan struct{}

	OnPing func() // test/watchdog hook, called after each enqueued ping
}

// New builds a Producer bound to the given codec and queues.
func New(codec *protocol.Codec, q *queue.Queues, logger *log.Logger) *Producer {
	return &Producer{codec: codec, queues: q, logger: logger}
}

// Start launches the ping loop in its own goroutine. It refreshes the
// hello slot once before entering the loop, matching the original's
// "set hello before the loop starts" behavior.
func (p *Producer) Start() {
	p.mu.Lock()
	p.live = true
	p.pingLive = true
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	p.codec.Hello()

	go func() {
		defer close(done)
		count := 0
		for p.isLive() && p.isPingLive() {
			pkt := p.codec.GetServerStatus(0)
			p.queues.Outbound.Enqueue(pkt)
			if p.OnPing != nil {
				p.OnPing()
			}
			time.Sleep(Interval)
			count++
			if count >= HelloEveryNPings {
				count = 0
				p.codec.Hello()
			}
		}
	}()
}

// Stop clears the live flag so the loop exits at its next iteration
// head, without waiting for it to finish. Use Restart to wait for join.
func (p *Producer) Stop() {
	p.mu.Lock()
	p.live = false
	p.mu.Unlock()
}

// Restart asks a running producer to exit, waits up to 3s for it to
// join, then starts a fresh one. This mirrors spec.md §4.3's restart
// semantics, triggered either explicitly or defensively by the manager
// after too many empty send slots.
func (p *Producer) Restart() {
	p.mu.Lock()
	done := p.done
	p.pingLive = false
	p.mu.Unlock()

	if done != nil {
		select {
		case <-done:
		case <-time.After(3 * time.Second):
			if p.logger != nil {
				p.logger.Printf("ping producer did not join within 3s")
			}
		}
	}

	p.mu.Lock()
	p.pingLive = true
	p.mu.Unlock()

	p.Start()
}

func (p *Producer) isLive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live
}

func (p *Producer) isPingLive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pingLive
}
