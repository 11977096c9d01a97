package protocol

import (
	"bytes"
	"testing"

	"github.com/cwsl/radescan-driver/internal/queue"
)

func TestHelloExactBytes(t *testing.T) {
	c := NewCodec(queue.NewQueues())
	c.SetServerID(1)

	got, ok := c.queues.Hello.Take()
	if !ok {
		t.Fatal("expected hello slot to be set")
	}
	want := []byte{0x00, 0x00, 0x0A, 0x01, 0x01, 0x01, 0x00, 0x00, 0x01, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("hello = % X, want % X", got, want)
	}
}

func TestCaptureAndFollowExactBytes(t *testing.T) {
	c := NewCodec(queue.NewQueues())
	c.SetServerID(1)
	c.queues.Hello.Take() // drain the SetServerID handshake frame, which used sequence 1

	got := c.CaptureAndFollow(0x1234, 0x01)
	want := []byte{0x00, 0x00, 0x0C, 0x02, 0x01, 0x01, 0x0B, 0x00, 0x03, 0x12, 0x34, 0x01}
	if !bytes.Equal(got, want) {
		t.Fatalf("captureAndFollow = % X, want % X", got, want)
	}
}

func TestSequenceCounterSkipsZero(t *testing.T) {
	c := NewCodec(queue.NewQueues())
	seen := make(map[byte]bool)
	for i := 0; i < 512; i++ {
		seq := c.nextSeq()
		if seq == 0 {
			t.Fatalf("sequence counter emitted 0 at iteration %d", i)
		}
		seen[seq] = true
	}
	if len(seen) != 255 {
		t.Fatalf("expected 255 distinct sequence values, got %d", len(seen))
	}
}

func TestSequenceCounterWrapsAndNotifies(t *testing.T) {
	c := NewCodec(queue.NewQueues())
	wraps := 0
	c.OnWrap = func() { wraps++ }
	for i := 0; i < 255; i++ {
		c.nextSeq()
	}
	if wraps != 0 {
		t.Fatalf("expected no wrap before 255 calls, got %d", wraps)
	}
	c.nextSeq()
	if wraps != 1 {
		t.Fatalf("expected exactly one wrap after the 256th call, got %d", wraps)
	}
}

func TestSetPTZPresetRejectsOutOfRange(t *testing.T) {
	c := NewCodec(queue.NewQueues())
	if got := c.SetPTZPreset(0, 1); got != nil {
		t.Fatalf("preset 0 should be rejected, got % X", got)
	}
	if got := c.SetPTZPreset(26, 1); got != nil {
		t.Fatalf("preset 26 should be rejected, got % X", got)
	}
	if got := c.SetPTZPreset(25, 1); got == nil {
		t.Fatal("preset 25 should be accepted")
	}
}

func TestGetServerStatusDoesNotEnqueue(t *testing.T) {
	q := queue.NewQueues()
	c := NewCodec(q)
	c.GetServerStatus(0)
	if q.Outbound.Len() != 0 {
		t.Fatalf("GetServerStatus must not enqueue, outbound len = %d", q.Outbound.Len())
	}
}
