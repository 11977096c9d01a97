// Package connmgr owns the TCP session lifecycle: parameter wait,
// connect, the non-blocking-style send/recv loop, the error-count
// heuristic, orderly teardown, and reconnect back-off. It is the
// component spec.md §2 calls out as "the hard part" — coordinating the
// writer, reader, ping producer and decoder over one socket.
package connmgr

import (
	"context"
	"errors"
	"log"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cwsl/radescan-driver/internal/metrics"
	"github.com/cwsl/radescan-driver/internal/ping"
	"github.com/cwsl/radescan-driver/internal/protocol"
	"github.com/cwsl/radescan-driver/internal/queue"
	"github.com/cwsl/radescan-driver/internal/state"
)

const (
	paramWait        = 3 * time.Second
	reconnectBackoff = 15 * time.Second
	ioDeadline       = 20 * time.Millisecond
	recvBufSize      = 1024
	emptySlotMax     = 100
	joinTimeout      = 3 * time.Second
)

// Endpoint is the (possibly unset) host/port the manager dials.
type Endpoint struct {
	Host string
	Port uint16
}

func (e Endpoint) isSet() bool {
	// Either field missing means idle — not "both missing" (see
	// SPEC_FULL.md §9 / DESIGN.md open-question resolution: the
	// original's "host and port not set" should have been an OR).
	return e.Host != "" && e.Port != 0
}

// Manager owns the socket lifecycle for one logical connection to the
// radar server. Exactly one Manager runs per process.
type Manager struct {
	queues   *queue.Queues
	codec    *protocol.Codec
	decoder  *protocol.Decoder
	pinger   *ping.Producer
	connFlag *state.ConnFlag
	errs     *state.ErrorCounter
	metrics  *metrics.Registry
	pingTime time.Duration
	logger   *log.Logger

	mu        sync.Mutex
	endpoint  Endpoint
	clientCon atomic.Bool
}

// New builds a Manager. pingTime is the configured net.ping_time
// inter-iteration sleep (default 1s, see spec.md §6).
func New(
	queues *queue.Queues,
	codec *protocol.Codec,
	decoder *protocol.Decoder,
	pinger *ping.Producer,
	connFlag *state.ConnFlag,
	errs *state.ErrorCounter,
	reg *metrics.Registry,
	pingTime time.Duration,
	logger *log.Logger,
) *Manager {
	return &Manager{
		queues:   queues,
		codec:    codec,
		decoder:  decoder,
		pinger:   pinger,
		connFlag: connFlag,
		errs:     errs,
		metrics:  reg,
		pingTime: pingTime,
		logger:   logger,
	}
}

// Configure updates the endpoint and causes the current session loop
// (if any) to exit at its next iteration. Queues are emptied
// synchronously, and the next session begins with the hello frame sent
// first, per spec.md §4.4 "Reconfiguration".
func (m *Manager) Configure(host string, port uint16) {
	m.mu.Lock()
	m.endpoint = Endpoint{Host: host, Port: port}
	m.mu.Unlock()
	m.clientCon.Store(false)
	m.queues.ClearAll()
}

func (m *Manager) currentEndpoint() Endpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endpoint
}

// Run drives the manager until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		ep := m.currentEndpoint()
		if !ep.isSet() {
			if !sleepCtx(ctx, paramWait) {
				return
			}
			continue
		}

		conn, err := net.Dial("tcp", net.JoinHostPort(ep.Host, portStr(ep.Port)))
		if err != nil {
			m.logger.Printf("connect to %s:%d failed: %v", ep.Host, ep.Port, err)
			if !sleepCtx(ctx, reconnectBackoff) {
				return
			}
			continue
		}

		m.runSession(ctx, conn)

		if !sleepCtx(ctx, reconnectBackoff) {
			return
		}
	}
}

func (m *Manager) runSession(ctx context.Context, conn net.Conn) {
	sessionID := uuid.NewString()
	m.logger.Printf("session %s established", sessionID)
	m.connFlag.Clear()
	m.errs.Reset()
	m.clientCon.Store(true)

	m.decoder.Start()
	m.pinger.Start()
	m.metrics.Reconnects.Inc()

	firstIteration := true
	emptySlots := 0

	defer func() {
		m.decoder.Stop()
		m.pinger.Stop()
		m.decoder.Join(joinTimeout)
		conn.Close()
		m.connFlag.Clear()
		m.logger.Printf("session %s torn down", sessionID)
	}()

	for m.clientCon.Load() {
		if ctx.Err() != nil {
			return
		}

		var pkt []byte
		var havePkt bool
		if firstIteration {
			// Both queues are cleared on every new session, not just on
			// reconfiguration (spec.md §4.1): otherwise inbound byte
			// chunks left over from the torn-down session's socket would
			// still be sitting in Inbound, and the new session's decoder
			// would reassemble frames from a mix of the old and new TCP
			// streams.
			m.queues.ClearAll()
			pkt, havePkt = m.queues.Hello.Take()
			firstIteration = false
		} else {
			pkt, havePkt = m.queues.Outbound.DequeueNonBlocking()
		}

		m.metrics.OutboundQueueDepth.Set(float64(m.queues.Outbound.Len()))
		m.metrics.InboundQueueDepth.Set(float64(m.queues.Inbound.Len()))

		if havePkt {
			emptySlots = 0
			if err := m.trySend(conn, pkt); err != nil {
				m.errs.Increase()
			}
		} else {
			emptySlots++
		}

		data, recvErr := m.tryRecv(conn)
		switch {
		case recvErr == errOrderlyShutdown:
			m.logger.Printf("peer closed connection")
			return
		case recvErr == errWouldBlock:
			m.errs.Increase()
		case recvErr != nil:
			m.logger.Printf("recv error: %v", recvErr)
			return
		case len(data) == 0:
			m.errs.Increase()
		default:
			m.queues.Inbound.Enqueue(data)
			m.errs.Decrease()
		}

		m.metrics.ErrorCounter.Set(float64(m.errs.Value()))

		if m.decoder.ProtocolFatal() {
			m.logger.Printf("incompatible protocol version, recycling session")
			return
		}

		if emptySlots > emptySlotMax {
			emptySlots = 0
			m.logger.Printf("ping starvation suspected, restarting ping producer")
			m.pinger.Restart()
		}

		if m.errs.IsMax() {
			m.logger.Printf("error counter exceeded threshold, recycling session")
			return
		}

		if !sleepCtx(ctx, m.pingTime) {
			return
		}
	}
}

var (
	errWouldBlock      = errors.New("would block")
	errOrderlyShutdown = errors.New("orderly shutdown")
)

// trySend attempts a short-deadline write, emulating the original's
// non-blocking send: a timeout is treated as "would block" (spec.md §7.3).
func (m *Manager) trySend(conn net.Conn, pkt []byte) error {
	conn.SetWriteDeadline(time.Now().Add(ioDeadline))
	_, err := conn.Write(pkt)
	if err != nil {
		if isTimeout(err) {
			return errWouldBlock
		}
		return err
	}
	return nil
}

// tryRecv attempts a short-deadline read of up to 1024 bytes. A timeout
// with no data is "would block"; zero bytes with no error is an orderly
// shutdown.
func (m *Manager) tryRecv(conn net.Conn) ([]byte, error) {
	buf := make([]byte, recvBufSize)
	conn.SetReadDeadline(time.Now().Add(ioDeadline))
	n, err := conn.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return nil, errWouldBlock
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, err
		}
		// Any other read error (EOF included) ends the session.
		return nil, errOrderlyShutdown
	}
	if n == 0 {
		return nil, errOrderlyShutdown
	}
	return buf[:n], nil
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func portStr(p uint16) string {
	return strconv.Itoa(int(p))
}
