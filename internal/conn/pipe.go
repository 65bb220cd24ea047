package conn

import (
	"icc.tech/msgcore/internal/msg"
)

// PipeConn is an in-memory Connection double, backed by a plain byte
// slice instead of a socket. Tests drive it by pushing inbound bytes
// with Feed and inspecting/draining outbound bytes with Written.
// ReadChunk/WriteChunk bound how many bytes a single Recv/SendV call
// releases, letting a test simulate short reads and partial writes;
// StarveRecv/StarveSend force the next Recv/SendV call to report
// ErrAgain regardless of available bytes.
type PipeConn struct {
	mode  msg.Mode
	redis bool
	role  Role

	in    []byte
	inPos int
	out   []byte

	recvQueue []*msg.Msg
	sendQueue []*msg.Msg
	sendPeek  int

	recvDoneLog []recvDoneCall
	sendDoneLog []*msg.Msg

	err        error
	aesKey     []byte
	serverTMS  int64

	// ReadChunk caps bytes released per Recv call; 0 means unlimited.
	ReadChunk int
	// WriteChunk caps bytes accepted per SendV call; 0 means unlimited.
	WriteChunk int
	// StarveRecv/StarveSend force the next Recv/SendV to return
	// ErrAgain without consuming anything.
	StarveRecv bool
	StarveSend bool
}

type recvDoneCall struct {
	Msg  *msg.Msg
	Next *msg.Msg
}

// NewPipeConn builds a connection double for the given mode/dialect.
func NewPipeConn(mode msg.Mode, redis bool, role Role) *PipeConn {
	return &PipeConn{mode: mode, redis: redis, role: role, serverTMS: 1000}
}

func (p *PipeConn) Mode() msg.Mode { return p.mode }
func (p *PipeConn) Redis() bool    { return p.redis }
func (p *PipeConn) Role() Role     { return p.role }

func (p *PipeConn) RecvReady() bool { return p.inPos < len(p.in) }

// SendReady reports whether any outbound message remains, and resets
// the peek cursor send_chain walks across one batch: each new batch
// starts scanning from the current queue front regardless of how far
// the previous batch peeked ahead.
func (p *PipeConn) SendReady() bool {
	p.sendPeek = 0
	return len(p.sendQueue) > 0
}

func (p *PipeConn) Err() error     { return p.err }
func (p *PipeConn) SetErr(e error) { p.err = e }

func (p *PipeConn) SMsg() *msg.Msg     { return nil }
func (p *PipeConn) SetSMsg(*msg.Msg)   {}

func (p *PipeConn) AESKey() []byte { return p.aesKey }
func (p *PipeConn) SetAESKey(k []byte) { p.aesKey = k }

func (p *PipeConn) ServerTimeoutMS() int64      { return p.serverTMS }
func (p *PipeConn) SetServerTimeoutMS(ms int64) { p.serverTMS = ms }

// Feed appends bytes to the inbound stream, available to the next
// Recv call(s).
func (p *PipeConn) Feed(b []byte) {
	p.in = append(p.in, b...)
}

// Written returns everything SendV has accepted so far.
func (p *PipeConn) Written() []byte { return p.out }

// Recv implements Connection.
func (p *PipeConn) Recv(buf []byte) (int, error) {
	if p.StarveRecv {
		p.StarveRecv = false
		return 0, ErrAgain
	}
	avail := len(p.in) - p.inPos
	if avail <= 0 {
		return 0, ErrAgain
	}
	n := avail
	if n > len(buf) {
		n = len(buf)
	}
	if p.ReadChunk > 0 && n > p.ReadChunk {
		n = p.ReadChunk
	}
	copy(buf[:n], p.in[p.inPos:p.inPos+n])
	p.inPos += n
	return n, nil
}

// SendV implements Connection.
func (p *PipeConn) SendV(iov [][]byte) (int, error) {
	if p.StarveSend {
		p.StarveSend = false
		return 0, ErrAgain
	}
	remaining := p.WriteChunk
	limited := p.WriteChunk > 0
	total := 0
	for _, seg := range iov {
		n := len(seg)
		if limited {
			if remaining <= 0 {
				break
			}
			if n > remaining {
				n = remaining
			}
		}
		p.out = append(p.out, seg[:n]...)
		total += n
		if limited {
			remaining -= n
		}
		if limited && n < len(seg) {
			break
		}
	}
	return total, nil
}

// QueueRecv enqueues a message as a RecvNext target, in order.
func (p *PipeConn) QueueRecv(m *msg.Msg) { p.recvQueue = append(p.recvQueue, m) }

// QueueSend enqueues a message as a SendNext target, in order.
func (p *PipeConn) QueueSend(m *msg.Msg) { p.sendQueue = append(p.sendQueue, m) }

func (p *PipeConn) RecvNext(eof bool, newAlloc bool) (*msg.Msg, error) {
	if len(p.recvQueue) == 0 {
		return nil, nil
	}
	m := p.recvQueue[0]
	p.recvQueue = p.recvQueue[1:]
	return m, nil
}

// SendNext peeks the next not-yet-batched message without removing it
// from the queue: only SendDone removes a message, once fully
// drained, so a partially-written message picked up mid-batch stays
// at the queue front for the next send_chain cycle.
func (p *PipeConn) SendNext() *msg.Msg {
	if p.sendPeek >= len(p.sendQueue) {
		return nil
	}
	m := p.sendQueue[p.sendPeek]
	p.sendPeek++
	return m
}

func (p *PipeConn) RecvDone(m, next *msg.Msg) {
	p.recvDoneLog = append(p.recvDoneLog, recvDoneCall{Msg: m, Next: next})
	if next != nil {
		p.recvQueue = append([]*msg.Msg{next}, p.recvQueue...)
	}
}

// SendDone removes m from the front of the send queue; order
// guarantees mean the front is always the next message due to
// complete, and resets the peek cursor to match the shrunk queue.
func (p *PipeConn) SendDone(m *msg.Msg) {
	p.sendDoneLog = append(p.sendDoneLog, m)
	if len(p.sendQueue) > 0 && p.sendQueue[0] == m {
		p.sendQueue = p.sendQueue[1:]
		if p.sendPeek > 0 {
			p.sendPeek--
		}
	}
}

// RecvDoneLog/SendDoneLog expose the completion history for assertions.
func (p *PipeConn) RecvDoneLog() []recvDoneCall { return p.recvDoneLog }
func (p *PipeConn) SendDoneLog() []*msg.Msg     { return p.sendDoneLog }
