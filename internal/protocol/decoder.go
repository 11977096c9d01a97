package protocol

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwsl/radescan-driver/internal/queue"
	"github.com/cwsl/radescan-driver/internal/state"
)

// emptyQueuePoll is how long the decoder sleeps when the inbound queue
// has nothing to offer, per spec.md §4.2 step 2.
const emptyQueuePoll = 500 * time.Millisecond

// Decoder reassembles the stream of raw byte chunks read off the socket
// into whole, length-framed packets and dispatches each to the injected
// EventsManager. One Decoder runs per session, started and stopped by
// the connection manager exactly like the ping producer.
type Decoder struct {
	queues *queue.Queues
	conn   *state.ConnFlag
	events EventsManager
	logger *log.Logger

	live          atomic.Bool
	protocolFatal atomic.Bool
	mu            sync.Mutex
	done          chan struct{}

	OnFrame         func() // test hook, called after every successfully dispatched frame
	OnDiscard       func() // metrics hook, called whenever a malformed length discards the reassembly buffer
	OnProtocolFatal func() // metrics hook, called when a handshake response carries an incompatible protocol version
}

// NewDecoder builds a Decoder over the given queues, connection flag and
// events manager.
func NewDecoder(q *queue.Queues, conn *state.ConnFlag, events EventsManager, logger *log.Logger) *Decoder {
	return &Decoder{queues: q, conn: conn, events: events, logger: logger}
}

// Start launches the decode loop in its own goroutine.
func (d *Decoder) Start() {
	d.live.Store(true)
	d.protocolFatal.Store(false)
	d.mu.Lock()
	d.done = make(chan struct{})
	done := d.done
	d.mu.Unlock()
	go func() {
		defer close(done)
		d.run()
	}()
}

// Stop clears the live flag so the loop exits at its next iteration head.
func (d *Decoder) Stop() {
	d.live.Store(false)
}

// ProtocolFatal reports whether the current session's handshake response
// carried an incompatible protocol version (spec.md §7 error kind 6). The
// connection manager polls this every session-loop iteration and tears the
// session down to reconnect when it is set; it is cleared again by Start.
func (d *Decoder) ProtocolFatal() bool {
	return d.protocolFatal.Load()
}

// Join waits up to timeout for the decode loop to exit after Stop.
func (d *Decoder) Join(timeout time.Duration) {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(timeout):
		if d.logger != nil {
			d.logger.Printf("decoder did not join within %s", timeout)
		}
	}
}

func (d *Decoder) run() {
	var buffer []byte
	for d.live.Load() {
		if !d.conn.IsSet() {
			// Synthesize a disconnected event: an empty ServerStateRecord
			// signals "disconnected" downstream, per spec.md §4.2 step 1.
			d.events.ServerStateChanged(ServerStateRecord{})
		}

		chunk, ok := d.queues.Inbound.DequeueNonBlocking()
		if !ok {
			time.Sleep(emptyQueuePoll)
			continue
		}

		if len(buffer) > 0 {
			chunk = append(buffer, chunk...)
			buffer = nil
		}

		for len(chunk) > 2 {
			declared := PacketLen(chunk)
			if declared > MaxPacketLen || declared == 0 {
				if d.logger != nil {
					d.logger.Printf("malformed frame length=%d, discarding reassembly buffer", declared)
				}
				if d.OnDiscard != nil {
					d.OnDiscard()
				}
				chunk = nil
				buffer = nil
				break
			}
			if declared <= len(chunk) {
				frame := chunk[:declared]
				chunk = chunk[declared:]
				d.dispatch(frame)
				if d.OnFrame != nil {
					d.OnFrame()
				}
			} else {
				buffer = append(buffer, chunk...)
				chunk = nil
				break
			}
		}

		if len(chunk) > 0 {
			buffer = append(buffer, chunk...)
		}
	}
}

func (d *Decoder) dispatch(p []byte) {
	switch p[6] {
	case CmdHelloResponse:
		d.dispatchHello(p)
	case CmdTrajectoryList:
		d.dispatchTrajectories(p)
	case CmdCaptureStatus:
		d.dispatchCaptureStatus(p)
	case CmdServerStatus:
		d.dispatchServerStatus(p)
	case CmdExtendedStatus:
		d.dispatchExtendedStatus(p)
	default:
		if d.logger != nil {
			d.logger.Printf("dropping frame with unknown command 0x%02X", p[6])
		}
	}
}

func (d *Decoder) dispatchHello(p []byte) {
	if p[9] == 0 {
		if d.logger != nil {
			d.logger.Printf("incompatible protocol version in handshake response")
		}
		d.protocolFatal.Store(true)
		if d.OnProtocolFatal != nil {
			d.OnProtocolFatal()
		}
		return
	}
	d.conn.Set()
	d.events.Connected()
}

func (d *Decoder) dispatchTrajectories(p []byte) {
	count := int(p[9])
	tracks := make(map[string]TrajectoryRecord, count)
	off := 10
	for i := 0; i < count; i++ {
		if off+13 > len(p) {
			break
		}
		trackID := uint16(p[off])<<8 | uint16(p[off+1])
		status := p[off+2]
		intPart := p[off+3]
		fracPart := p[off+4]
		rng := uint16(p[off+5])<<8 | uint16(p[off+6])
		azimuthRaw := p[off+7]
		radSpeed := uint16(p[off+8])<<8 | uint16(p[off+9])
		tanSpeed := uint16(p[off+10])<<8 | uint16(p[off+11])
		sector := p[off+12]
		off += 13

		rec := TrajectoryRecord{
			TrackID:      trackID,
			Status:       status,
			RCSSquare:    rcsSquare(intPart, fracPart),
			Range:        rng,
			AzimuthDeg:   roundTo(float64(decodeSigned8(azimuthRaw))/2, 1),
			RadialSpeed:  int16(decodeSigned16(radSpeed)),
			TangentSpeed: int16(decodeSigned16(tanSpeed)),
			Sector:       sector,
		}
		tracks[trackName(trackID)] = rec
	}
	d.events.TrajectoriesDiscovered(tracks)
}

func (d *Decoder) dispatchCaptureStatus(p []byte) {
	d.events.CaptureTargetState(CaptureStatusRecord{
		TrackID:      uint16(p[9])<<8 | uint16(p[10]),
		CaptureState: p[11],
	})
}

func (d *Decoder) dispatchServerStatus(p []byte) {
	radarType := radarTypeForCode(p[24])
	freq := frequencyForCode(radarType, p[12])
	d.events.ServerStateChanged(ServerStateRecord{
		ConnectionCORT: p[9],
		ConnectionRLS:  p[10],
		ConnectionPTZ:  p[11],
		ActiveInterf:   p[13],
		EradiationRLS:  p[14],
		Filters:        p[15],
		Masks:          p[16],
		PanPTZ:         uint16(p[17])<<8 | uint16(p[18]),
		TiltPTZ:        uint16(p[19])<<8 | uint16(p[20]),
		ControlPTZ:     p[21],
		TrajCaptured:   p[22],
		AutoCapture:    p[23],
		RadarType:      radarType,
		FrequencyMHz:   freq,
	})
}

func (d *Decoder) dispatchExtendedStatus(p []byte) {
	d.events.ExtendedStateChanged(ExtendedStatusRecord{
		TransmitterState:     p[9],
		DigitalReceiverState: p[10],
		AnalogReceiverState:  p[11],
		ClientCount:          p[12],
		PassiveInterference:  [4]uint8{p[13], p[14], p[15], p[16]},
		ReceiverSensitivity:  p[17],
		TxCountRDS1:          p[18],
		RxCountRDS1:          p[19],
		ErrorsCountRDS1:      p[20],
	})
}

func rcsSquare(intPart, fracPart uint8) float64 {
	return float64(intPart) + fractional(fracPart)
}

// fractional turns a byte like 7 into 0.7 — the wire format encodes the
// RCS fractional part as its literal decimal digits, not a binary
// fraction (see original_source/protocol.py's f'{intPart}.{fractionalPart}').
func fractional(fracPart uint8) float64 {
	digits := 0
	n := fracPart
	if n == 0 {
		digits = 1
	}
	for n > 0 {
		digits++
		n /= 10
	}
	divisor := 1.0
	for i := 0; i < digits; i++ {
		divisor *= 10
	}
	return float64(fracPart) / divisor
}

func roundTo(v float64, decimals int) float64 {
	mult := 1.0
	for i := 0; i < decimals; i++ {
		mult *= 10
	}
	if v >= 0 {
		return float64(int(v*mult+0.5)) / mult
	}
	return -float64(int(-v*mult+0.5)) / mult
}

func trackName(id uint16) string {
	return fmt.Sprintf("track%d", id)
}
