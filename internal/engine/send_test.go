package engine

import (
	"bytes"
	"testing"

	"icc.tech/msgcore/internal/conn"
	"icc.tech/msgcore/internal/mbuf"
	"icc.tech/msgcore/internal/msg"
)

func newOutboundMsg(t *testing.T, pool *mbuf.Pool, payload []byte) *msg.Msg {
	t.Helper()
	m := &msg.Msg{}
	b, err := pool.Get()
	if err != nil {
		t.Fatalf("mbuf get: %v", err)
	}
	b.Copy(payload)
	m.Chain.Insert(b)
	m.MLen = len(payload)
	return m
}

// TestSendPartialWriteResumes implements the partial-write scenario:
// two 300-byte outbound messages, sendv returns 450 total. The first
// message is fully drained and completes; the second keeps 150 bytes
// outstanding, resumed by the next send_chain cycle.
func TestSendPartialWriteResumes(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeExternal, true, conn.RoleClient)

	payload1 := bytes.Repeat([]byte("a"), 300)
	payload2 := bytes.Repeat([]byte("b"), 300)
	m1 := newOutboundMsg(t, w.Mbufs(), payload1)
	m2 := newOutboundMsg(t, w.Mbufs(), payload2)
	c.QueueSend(m1)
	c.QueueSend(m2)
	c.WriteChunk = 450

	if status, err := Send(w, c); status != StatusOK || err != nil {
		t.Fatalf("send failed: %v %v", status, err)
	}

	done := c.SendDoneLog()
	if len(done) != 1 || done[0] != m1 {
		t.Fatalf("expected only m1 done after first batch, got %d entries", len(done))
	}

	tail2 := m2.Chain.Tail()
	if tail2.Pos() != 150 {
		t.Fatalf("expected m2 to have 150 bytes consumed, got pos=%d", tail2.Pos())
	}

	// Resume: remaining capacity is unlimited now, finishes m2.
	c.WriteChunk = 0
	if status, err := Send(w, c); status != StatusOK || err != nil {
		t.Fatalf("resume send failed: %v %v", status, err)
	}
	done = c.SendDoneLog()
	if len(done) != 2 || done[1] != m2 {
		t.Fatalf("expected m2 done after resume, got %d entries", len(done))
	}
	want := append(append([]byte{}, payload1...), payload2...)
	if !bytes.Equal(c.Written(), want) {
		t.Fatalf("expected full payload written in order")
	}
}

func TestSendEmptyMessageGetsDone(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeExternal, true, conn.RoleClient)
	empty := &msg.Msg{}
	c.QueueSend(empty)

	if status, err := Send(w, c); status != StatusOK || err != nil {
		t.Fatalf("send failed: %v %v", status, err)
	}
	done := c.SendDoneLog()
	if len(done) != 1 || done[0] != empty {
		t.Fatalf("expected empty message to get send_done, got %d entries", len(done))
	}
}

func TestSendAgainOnStarvedConn(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeExternal, true, conn.RoleClient)
	m := newOutboundMsg(t, w.Mbufs(), []byte("hello"))
	c.QueueSend(m)
	c.StarveSend = true

	if status, err := Send(w, c); status != StatusOK || err != nil {
		t.Fatalf("expected OK on EAGAIN, got %v %v", status, err)
	}
	if len(c.SendDoneLog()) != 0 {
		t.Fatalf("expected no send_done while starved")
	}
}
