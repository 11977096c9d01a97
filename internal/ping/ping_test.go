package ping

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/cwsl/radescan-driver/internal/protocol"
	"github.com/cwsl/radescan-driver/internal/queue"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestProducerSetsHelloOnStart(t *testing.T) {
	q := queue.NewQueues()
	codec := protocol.NewCodec(q)
	p := New(codec, q, silentLogger())

	p.Start()
	defer p.Stop()

	if _, ok := q.Hello.Take(); !ok {
		t.Fatal("expected hello slot to be set immediately on Start")
	}
}

func TestProducerEnqueuesGetServerStatus(t *testing.T) {
	q := queue.NewQueues()
	codec := protocol.NewCodec(q)
	p := New(codec, q, silentLogger())
	q.Hello.Take()

	pinged := make(chan struct{}, 1)
	p.OnPing = func() { pinged <- struct{}{} }
	p.Start()
	defer p.Stop()

	select {
	case <-pinged:
	case <-time.After(Interval + 2*time.Second):
		t.Fatal("timed out waiting for first ping")
	}

	if q.Outbound.Len() == 0 {
		t.Fatal("expected a GetServerStatus frame on the outbound queue")
	}
	pkt, _ := q.Outbound.DequeueNonBlocking()
	if pkt[6] != protocol.CmdGetServerStatus {
		t.Fatalf("pinged command = 0x%02X, want 0x%02X", pkt[6], protocol.CmdGetServerStatus)
	}
}
