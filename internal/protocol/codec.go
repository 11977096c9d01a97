package protocol

import (
	"sync"

	"github.com/cwsl/radescan-driver/internal/queue"
)

// DefaultServerID is the server id used in outbound headers (byte [5])
// until Codec.SetServerID is called.
const DefaultServerID = 1

// DefaultProtocolVersion is the version byte Hello advertises.
const DefaultProtocolVersion = 1

// Codec builds outbound command packets and tracks the sequence counter
// (not reset between sessions) and server id. One Codec instance belongs to exactly
// one connection manager, matching spec.md's "holds a monotonic 8-bit
// packet counter and a configurable server id".
type Codec struct {
	mu              sync.Mutex
	counter         uint8
	serverID        uint8
	protocolVersion uint8
	queues          *queue.Queues

	OnWrap func() // test/metrics hook, called whenever the counter wraps past 255
}

// NewCodec constructs a Codec bound to the given queues.
func NewCodec(q *queue.Queues) *Codec {
	return &Codec{
		serverID:        DefaultServerID,
		protocolVersion: DefaultProtocolVersion,
		queues:          q,
	}
}

// nextSeq advances the sequence counter exactly once per encode. Go's
// uint8 wraps 255->0 for free; the protocol's observable sequence skips
// the value 0 (1,2,...,255,1,2,...), so a wrap to 0 is immediately
// advanced to 1. This preserves spec.md's documented sequence without
// carrying over the original's two-step defensive branch (see
// SPEC_FULL.md §9 / DESIGN.md open-question resolution).
func (c *Codec) nextSeq() byte {
	c.counter++
	if c.counter == 0 {
		c.counter++
		if c.OnWrap != nil {
			c.OnWrap()
		}
	}
	return c.counter
}

// SetServerID updates the server id used in subsequent packet headers
// and refreshes the hello slot, per spec.md §6's inbound control API.
func (c *Codec) SetServerID(id uint8) {
	c.mu.Lock()
	c.serverID = id
	c.mu.Unlock()
	c.Hello()
}

// Hello builds the handshake frame (command 0x00). It never enqueues:
// the frame is placed directly into the hello slot and returned, so the
// connection manager can send it first on every new session.
func (c *Codec) Hello() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkt := newHeader(10, c.nextSeq(), c.serverID, CmdHello, 1)
	pkt = append(pkt, c.protocolVersion)
	c.queues.Hello.Set(pkt)
	return pkt
}

// GetServerStatus builds the status-request frame (command 0x09).
// Unlike the other encoders it is not enqueued here — the ping producer
// enqueues it explicitly, since this method doubles as the keep-alive
// payload builder.
func (c *Codec) GetServerStatus(formatStatus uint8) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkt := newHeader(10, c.nextSeq(), c.serverID, CmdGetServerStatus, 1)
	pkt = append(pkt, formatStatus)
	return pkt
}

// CaptureAndFollow builds and enqueues command 0x0B.
func (c *Codec) CaptureAndFollow(trackID uint16, captureTarget uint8) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkt := newHeader(12, c.nextSeq(), c.serverID, CmdCaptureAndFollow, 3)
	pkt = append(pkt, byte(trackID>>8), byte(trackID), captureTarget)
	c.queues.Outbound.Enqueue(pkt)
	return pkt
}

// SetAutoCapture builds and enqueues command 0x0C.
func (c *Codec) SetAutoCapture(on bool) []byte {
	return c.encodeOnOff(CmdSetAutoCapture, on)
}

// SetArmRLS builds and enqueues command 0x0E.
func (c *Codec) SetArmRLS(on bool) []byte {
	return c.encodeOnOff(CmdSetArmRLS, on)
}

// SetFilters builds and enqueues command 0x0F.
func (c *Codec) SetFilters(on bool) []byte {
	return c.encodeOnOff(CmdSetFilters, on)
}

// SetMasks builds and enqueues command 0x10.
func (c *Codec) SetMasks(on bool) []byte {
	return c.encodeOnOff(CmdSetMasks, on)
}

func (c *Codec) encodeOnOff(command byte, on bool) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var v byte
	if on {
		v = 1
	}
	pkt := newHeader(10, c.nextSeq(), c.serverID, command, 1)
	pkt = append(pkt, v)
	c.queues.Outbound.Enqueue(pkt)
	return pkt
}

// SetPTZ builds and enqueues command 0x11.
func (c *Codec) SetPTZ(ptzCommand, ptzSpeed uint8) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	pkt := newHeader(11, c.nextSeq(), c.serverID, CmdSetPTZ, 2)
	pkt = append(pkt, ptzCommand, ptzSpeed)
	c.queues.Outbound.Enqueue(pkt)
	return pkt
}

// SetPTZPreset builds and enqueues command 0x12. presetId must be in
// [1, 25]; an out-of-range value is a parameter-missing condition per
// spec.md §7.1 and returns nil without enqueuing.
func (c *Codec) SetPTZPreset(presetID uint8, setOrCall uint8) []byte {
	if presetID < 1 || presetID > 25 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pkt := newHeader(11, c.nextSeq(), c.serverID, CmdSetPTZPreset, 2)
	pkt = append(pkt, presetID, setOrCall)
	c.queues.Outbound.Enqueue(pkt)
	return pkt
}
