package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"icc.tech/msgcore/internal/conn"
	"icc.tech/msgcore/internal/msg"
)

func TestReceiveRedisMultiKeySplitsIntoFragments(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeExternal, true, conn.RoleClient)
	c.Feed([]byte("*4\r\n$4\r\nmget\r\n$4\r\nkey1\r\n$4\r\nkey2\r\n$4\r\nkey3\r\n"))

	m, err := w.Msgs().Get(true, true, msg.ModeExternal, w.Table())
	if err != nil {
		t.Fatalf("get msg: %v", err)
	}
	c.QueueRecv(m)

	status, err := Receive(w, c)
	if status != StatusOK || err != nil {
		t.Fatalf("receive failed: status=%v err=%v", status, err)
	}

	done := c.RecvDoneLog()
	if len(done) != 3 {
		t.Fatalf("expected 3 recv_done calls (one per fragment boundary), got %d", len(done))
	}

	owner := done[0].Msg
	if !owner.FirstFrag {
		t.Fatalf("expected owner to be marked first_fragment")
	}
	if owner.NFrag != 3 {
		t.Fatalf("expected nfrag==3, got %d", owner.NFrag)
	}
	last := done[2].Msg
	if !last.LastFrag {
		t.Fatalf("expected last fragment flagged")
	}
	if last.FragOwner != owner {
		t.Fatalf("expected fragments to share owner")
	}
}

func TestReceiveMemcachePartialThenComplete(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeExternal, false, conn.RoleClient)
	c.Feed([]byte("get foo"))

	m, err := w.Msgs().Get(true, false, msg.ModeExternal, w.Table())
	if err != nil {
		t.Fatalf("get msg: %v", err)
	}
	c.QueueRecv(m)

	if status, err := Receive(w, c); status != StatusOK || err != nil {
		t.Fatalf("receive failed: %v %v", status, err)
	}
	if len(c.RecvDoneLog()) != 0 {
		t.Fatalf("expected no recv_done yet (AGAIN), got %d", len(c.RecvDoneLog()))
	}
	if m.MLen != 7 {
		t.Fatalf("expected mlen 7, got %d", m.MLen)
	}

	c.Feed([]byte("\r\n"))
	c.QueueRecv(m)
	if status, err := Receive(w, c); status != StatusOK || err != nil {
		t.Fatalf("receive failed: %v %v", status, err)
	}
	done := c.RecvDoneLog()
	if len(done) != 1 {
		t.Fatalf("expected exactly one recv_done, got %d", len(done))
	}
	if done[0].Next != nil {
		t.Fatalf("expected no trailing fragment")
	}
}

func TestReceivePipelinedRequestsSplit(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeExternal, false, conn.RoleClient)
	c.Feed([]byte("get a\r\nget b\r\n"))

	m, err := w.Msgs().Get(true, false, msg.ModeExternal, w.Table())
	if err != nil {
		t.Fatalf("get msg: %v", err)
	}
	c.QueueRecv(m)

	if status, err := Receive(w, c); status != StatusOK || err != nil {
		t.Fatalf("receive failed: %v %v", status, err)
	}

	done := c.RecvDoneLog()
	if len(done) != 2 {
		t.Fatalf("expected 2 recv_done calls (one per pipelined command), got %d", len(done))
	}
	if done[0].Next == nil {
		t.Fatalf("expected first recv_done to carry the split-off remainder")
	}
	if done[1].Next != nil {
		t.Fatalf("expected final recv_done to have no remainder")
	}
}

func TestReceiveInternalErrorWithoutProgressIsFatal(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeInternal, false, conn.RoleDnodeServer)
	c.Feed([]byte("x"))

	m, err := w.Msgs().Get(true, false, msg.ModeInternal, w.Table())
	require.NoError(t, err)
	m.Parser = func(*msg.Msg) msg.Result { return msg.ResultError }
	c.QueueRecv(m)

	status, err := Receive(w, c)
	require.Equal(t, StatusError, status)
	require.ErrorIs(t, err, ErrIOFatal)
	require.Empty(t, c.RecvDoneLog(), "a fatal parse error must not be swallowed via recv_done")
}

func TestReceiveInternalErrorWithProgressIsSwallowed(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeInternal, false, conn.RoleDnodeServer)
	c.Feed([]byte("x"))

	m, err := w.Msgs().Get(true, false, msg.ModeInternal, w.Table())
	require.NoError(t, err)
	m.Parser = func(m *msg.Msg) msg.Result {
		tail := m.Chain.Tail()
		tail.SetPos(tail.Pos() + 1) // parser consumed a byte before failing
		return msg.ResultError
	}
	c.QueueRecv(m)

	status, err := Receive(w, c)
	require.Equal(t, StatusOK, status)
	require.NoError(t, err)
	require.True(t, m.Swallow)
	require.Len(t, c.RecvDoneLog(), 1)
}

func TestReceiveEncryptedFrame(t *testing.T) {
	w := newTestWorker()
	c := conn.NewPipeConn(msg.ModeInternal, false, conn.RoleDnodeServer)
	key := []byte("0123456789abcdef")
	iv := []byte("abcdefghijklmnop")
	c.SetAESKey(key)

	plaintext := []byte("get encryptedkey\r\n")
	ciphertext, err := conn.Encrypt(key, plaintext, iv)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	c.Feed(ciphertext)

	m, err := w.Msgs().Get(true, false, msg.ModeInternal, w.Table())
	if err != nil {
		t.Fatalf("get msg: %v", err)
	}
	m.Envelope = &msg.Envelope{BitField: 1, Plen: len(ciphertext)}
	c.QueueRecv(m)

	if status, err := Receive(w, c); status != StatusOK || err != nil {
		t.Fatalf("receive failed: %v %v", status, err)
	}

	tail := m.Chain.Tail()
	if !tail.ReadFlip {
		t.Fatalf("expected decrypted tail flagged read_flip")
	}
	got := tail.Bytes()[tail.Start():tail.Last()]
	if string(got) != string(plaintext) {
		t.Fatalf("expected decrypted plaintext %q, got %q", plaintext, got)
	}
}
