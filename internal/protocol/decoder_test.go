package protocol

import (
	"log"
	"testing"
	"time"

	"github.com/cwsl/radescan-driver/internal/queue"
	"github.com/cwsl/radescan-driver/internal/state"
)

type recordingEvents struct {
	connected      int
	serverStates   []ServerStateRecord
	trajectories   []map[string]TrajectoryRecord
	captureStates  []CaptureStatusRecord
	extendedStates []ExtendedStatusRecord
}

func (r *recordingEvents) Connected() { r.connected++ }
func (r *recordingEvents) TrajectoriesDiscovered(t map[string]TrajectoryRecord) {
	r.trajectories = append(r.trajectories, t)
}
func (r *recordingEvents) CaptureTargetState(rec CaptureStatusRecord) {
	r.captureStates = append(r.captureStates, rec)
}
func (r *recordingEvents) ServerStateChanged(rec ServerStateRecord) {
	r.serverStates = append(r.serverStates, rec)
}
func (r *recordingEvents) ExtendedStateChanged(rec ExtendedStatusRecord) {
	r.extendedStates = append(r.extendedStates, rec)
}

func testLogger() *log.Logger {
	return log.New(testWriter{}, "", 0)
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

func serverStatusFrame(seq byte) []byte {
	// command 0x14, payload length 16 (offsets 9..23 plus radar-type byte at 24).
	totalLen := 25
	p := make([]byte, totalLen)
	p[0] = DirToClient
	p[1] = byte(totalLen >> 8)
	p[2] = byte(totalLen)
	p[3] = seq
	p[6] = CmdServerStatus
	p[7] = 0
	p[8] = 16
	p[9] = 1  // connectionCORT
	p[10] = 1 // connectionRLS
	p[11] = 1 // connectionPTZ
	p[12] = 2 // frequency code
	p[13] = 0 // activeInterf
	p[14] = 1 // eradiationRLS
	p[15] = 0 // filters
	p[16] = 0 // masks
	p[17], p[18] = 0, 10 // panPTZ
	p[19], p[20] = 0, 20 // tiltPTZ
	p[21] = 1            // controlPTZ
	p[22] = 0            // trajCaptured
	p[23] = 1            // autoCapture
	p[24] = radarCodeRLS24M
	return p
}

func TestDecoderReassemblesSplitFrame(t *testing.T) {
	q := queue.NewQueues()
	conn := &state.ConnFlag{}
	conn.Set() // isolate frame reassembly from the disconnected-event synthesis covered by TestDecoderSynthesizesDisconnectedEventWhileConnFlagUnset
	events := &recordingEvents{}
	d := NewDecoder(q, conn, events, testLogger())

	frame := serverStatusFrame(1)
	q.Inbound.Enqueue(frame[:5])
	q.Inbound.Enqueue(frame[5:])

	frameCh := make(chan struct{}, 1)
	d.OnFrame = func() { frameCh <- struct{}{} }

	d.Start()
	defer d.Stop()

	select {
	case <-frameCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame dispatch")
	}
	d.Stop()
	d.Join(time.Second)

	if len(events.serverStates) != 1 {
		t.Fatalf("expected exactly one ServerStateChanged call, got %d", len(events.serverStates))
	}
	got := events.serverStates[0]
	if got.RadarType != rlsType24M {
		t.Fatalf("radar type = %q, want %q", got.RadarType, rlsType24M)
	}
	if got.FrequencyMHz == nil || *got.FrequencyMHz != freqTable24M[2] {
		t.Fatalf("frequency = %v, want %v", got.FrequencyMHz, freqTable24M[2])
	}
}

func TestDecoderDiscardsMalformedLengthAndRecovers(t *testing.T) {
	q := queue.NewQueues()
	conn := &state.ConnFlag{}
	conn.Set() // isolate frame reassembly from the disconnected-event synthesis covered by TestDecoderSynthesizesDisconnectedEventWhileConnFlagUnset
	events := &recordingEvents{}
	d := NewDecoder(q, conn, events, testLogger())

	discardCh := make(chan struct{}, 1)
	d.OnDiscard = func() { discardCh <- struct{}{} }

	bad := []byte{0x00, 0x01, 0xA1, 0x00} // declared length 417, exceeds MaxPacketLen
	good := serverStatusFrame(2)

	frameCh := make(chan struct{}, 1)
	d.OnFrame = func() { frameCh <- struct{}{} }

	q.Inbound.Enqueue(bad)
	q.Inbound.Enqueue(good)

	d.Start()
	defer func() {
		d.Stop()
		d.Join(time.Second)
	}()

	select {
	case <-discardCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for malformed-frame discard")
	}
	select {
	case <-frameCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recovery frame dispatch")
	}

	if len(events.serverStates) != 1 {
		t.Fatalf("expected exactly one ServerStateChanged call after recovery, got %d", len(events.serverStates))
	}
}

// TestDecoderSynthesizesDisconnectedEventWhileConnFlagUnset covers spec.md
// §4.2 step 1: while the connection flag is false, the decoder keeps
// emitting an empty ServerStateRecord every loop iteration to signal
// "disconnected" downstream, with no gating on the inbound queue.
func TestDecoderSynthesizesDisconnectedEventWhileConnFlagUnset(t *testing.T) {
	q := queue.NewQueues()
	conn := &state.ConnFlag{} // left unset
	events := &recordingEvents{}
	d := NewDecoder(q, conn, events, testLogger())

	d.Start()
	defer func() {
		d.Stop()
		d.Join(time.Second)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if len(events.serverStates) >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for synthesized disconnected events")
		case <-time.After(10 * time.Millisecond):
		}
	}

	for i, rec := range events.serverStates {
		if rec != (ServerStateRecord{}) {
			t.Fatalf("event %d = %+v, want empty record", i, rec)
		}
	}
}

// TestDispatchHelloIncompatibleVersionSetsProtocolFatal covers spec.md §7
// error kind 6: a handshake response carrying 0 in the version byte must
// surface as a fatal condition the connection manager can observe, not
// just a log line.
func TestDispatchHelloIncompatibleVersionSetsProtocolFatal(t *testing.T) {
	q := queue.NewQueues()
	conn := &state.ConnFlag{}
	events := &recordingEvents{}
	d := NewDecoder(q, conn, events, testLogger())

	fatalCh := make(chan struct{}, 1)
	d.OnProtocolFatal = func() { fatalCh <- struct{}{} }

	frame := make([]byte, 10)
	frame[6] = CmdHelloResponse
	frame[9] = 0 // incompatible version

	d.dispatch(frame)

	select {
	case <-fatalCh:
	default:
		t.Fatal("expected OnProtocolFatal to be called")
	}
	if !d.ProtocolFatal() {
		t.Fatal("expected ProtocolFatal() to report true")
	}
	if conn.IsSet() {
		t.Fatal("connection flag must not be set on an incompatible handshake")
	}
	if events.connected != 0 {
		t.Fatal("Connected() must not be called on an incompatible handshake")
	}
}

// TestDecoderStartResetsProtocolFatal ensures a fresh session's decoder
// doesn't inherit a previous session's fatal-protocol state.
func TestDecoderStartResetsProtocolFatal(t *testing.T) {
	q := queue.NewQueues()
	conn := &state.ConnFlag{}
	events := &recordingEvents{}
	d := NewDecoder(q, conn, events, testLogger())
	d.protocolFatal.Store(true)

	d.Start()
	defer func() {
		d.Stop()
		d.Join(time.Second)
	}()

	if d.ProtocolFatal() {
		t.Fatal("Start should reset ProtocolFatal")
	}
}
