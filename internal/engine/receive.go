// Package engine implements the receive, parse, fragment, and send
// state machines that drive bytes from a connection through the
// message pool and back out again.
package engine

import (
	"errors"

	"icc.tech/msgcore/internal/conn"
	"icc.tech/msgcore/internal/core"
	"icc.tech/msgcore/internal/mbuf"
	"icc.tech/msgcore/internal/msg"
)

// Status is the coarse outcome of a receive/send cycle.
type Status int

const (
	StatusOK Status = iota
	StatusError
)

// ErrNoParser is returned when the dispatch table has no parser bound
// for a message's (dialect, direction, mode).
var ErrNoParser = errors.New("engine: no parser registered for message variant")

// ErrIOFatal is returned when an internal-mode parse error leaves the
// chain's read cursor unmoved: swallowing it and continuing would spin
// the receive loop on the same bytes forever, so it is promoted to a
// fatal connection error instead of being silently dropped.
var ErrIOFatal = errors.New("engine: internal-mode parse error made no forward progress")

// Receive drains every ready byte off c, handing completed and
// in-progress messages to c's recv_next/recv_done hooks.
func Receive(w *core.Worker, c conn.Connection) (Status, error) {
	for c.RecvReady() {
		m, err := c.RecvNext(true, true)
		if err != nil {
			return StatusError, err
		}
		if m == nil {
			return StatusOK, nil
		}
		if st, err := recvChain(w, c, m); st != StatusOK {
			return st, err
		}
	}
	return StatusOK, nil
}

func recvChain(w *core.Worker, c conn.Connection, m *msg.Msg) (Status, error) {
	tail, err := targetTail(w, m)
	if err != nil {
		return StatusError, err
	}

	encrypted := m.Mode == msg.ModeInternal && m.Envelope != nil

	var buf []byte
	if !encrypted {
		buf = tail.WriteSlice()
	} else {
		room := tail.EndExtra() - tail.Last()
		want := m.Envelope.Plen
		if want > room {
			want = room
		}
		buf = tail.CipherWriteSlice()[:want]
	}

	n, err := c.Recv(buf)
	if err == conn.ErrAgain {
		return StatusOK, nil
	}
	if err != nil {
		return StatusError, err
	}
	tail.CommitWrite(n)
	m.MLen += n

	if encrypted {
		atBoundary := tail.Last() == tail.EndExtra()
		if n >= m.Envelope.Plen || atBoundary {
			if err := decryptTail(w, c, m, tail, atBoundary); err != nil {
				return StatusError, err
			}
			m.Envelope.Plen -= n
		}
	}

	for {
		status, outcome, err := parseOne(w, c, m)
		if status != StatusOK || err != nil {
			return status, err
		}
		switch outcome {
		case parseAgain:
			// Not enough bytes yet; wait for the next recv_chain pass.
			return StatusOK, nil
		case parseRepaired:
			// Chain was respliced in place; retry the same message
			// immediately without consulting recv_next.
			continue
		case parseAdvanced:
			next, err := c.RecvNext(false, false)
			if err != nil {
				return StatusError, err
			}
			if next == nil || next == m {
				return StatusOK, nil
			}
			m = next
		}
	}
}

// targetTail returns the mbuf a read should land in, acquiring a
// fresh one when the chain is empty, full, or (in ciphertext mode)
// exhausted up to its staging boundary.
func targetTail(w *core.Worker, m *msg.Msg) (*mbuf.Mbuf, error) {
	tail := m.Chain.Tail()
	needFresh := tail == nil
	if tail != nil {
		if m.Mode == msg.ModeInternal && m.Envelope != nil {
			needFresh = tail.Last() >= tail.EndExtra()
		} else {
			needFresh = tail.Full()
		}
	}
	if !needFresh {
		return tail, nil
	}
	fresh, err := w.Mbufs().Get()
	if err != nil {
		return nil, err
	}
	m.Chain.Insert(fresh)
	return fresh, nil
}

// decryptTail decrypts the ciphertext staged in tail into a fresh
// plaintext mbuf, swapping it in as the chain's new tail and carrying
// over any ciphertext bytes that arrived past the current envelope's
// boundary.
func decryptTail(w *core.Worker, c conn.Connection, m *msg.Msg, tail *mbuf.Mbuf, atBoundary bool) error {
	boundary := tail.Start() + m.Envelope.Plen
	if atBoundary {
		boundary = tail.Last()
	}
	ciphertext := tail.Bytes()[tail.Start():boundary]
	plain, err := conn.Decrypt(c.AESKey(), ciphertext)
	if err != nil {
		return err
	}

	fresh, err := w.Mbufs().Get()
	if err != nil {
		return err
	}
	fresh.Copy(plain)
	fresh.ReadFlip = true

	if boundary < tail.Last() {
		fresh.Copy(tail.Bytes()[boundary:tail.Last()])
	}

	m.Chain.Remove(tail)
	m.Chain.Insert(fresh)
	w.Mbufs().Put(tail)
	m.MLen = m.Chain.Length()
	return nil
}

// parseOutcome tells recvChain's loop whether to keep asking for the
// next target (parseAdvanced), retry the same message immediately
// (parseRepaired), or stop and wait for more bytes (parseAgain).
type parseOutcome int

const (
	parseAdvanced parseOutcome = iota
	parseRepaired
	parseAgain
)

func parseOne(w *core.Worker, c conn.Connection, m *msg.Msg) (Status, parseOutcome, error) {
	if m.Chain.Empty() || m.Chain.Length() == 0 {
		c.RecvDone(m, nil)
		return StatusOK, parseAdvanced, nil
	}

	if m.Parser == nil {
		return StatusError, parseAgain, ErrNoParser
	}

	tailBefore := m.Chain.Tail()
	posBefore := tailBefore.Pos()

	switch m.Parser(m) {
	case msg.ResultOK:
		tail := m.Chain.Tail()
		if tail.Pos() == tail.Last() {
			c.RecvDone(m, nil)
			return StatusOK, parseAdvanced, nil
		}
		nmsg, err := splitForward(w, m, tail)
		if err != nil {
			return StatusError, parseAgain, err
		}
		c.RecvDone(m, nmsg)
		return StatusOK, parseAdvanced, nil

	case msg.ResultFragment:
		status, err := fragment(w, c, m)
		return status, parseAdvanced, err

	case msg.ResultRepair:
		tail := m.Chain.Tail()
		fresh, err := mbuf.Split(&m.Chain, tail, tail.Pos(), nil, w.Mbufs())
		if err != nil {
			return StatusError, parseAgain, err
		}
		m.Chain.Insert(fresh) // old tail now ends at its fully consumed cursor
		return StatusOK, parseRepaired, nil

	case msg.ResultAgain:
		return StatusOK, parseAgain, nil

	default: // ResultError
		if m.Mode == msg.ModeExternal {
			m.Error = true
			return StatusError, parseAgain, nil
		}
		if tailBefore.Pos() == posBefore {
			// No forward progress: swallowing this and retrying would
			// spin on the same bytes forever.
			return StatusError, parseAgain, ErrIOFatal
		}
		m.Swallow = true
		c.RecvDone(m, nil)
		return StatusOK, parseAdvanced, nil
	}
}

// splitForward carves the unparsed remainder of tail into a new
// message inheriting m's direction/dialect/mode, the normal ResultOK
// continuation used for pipelined requests sharing one read.
func splitForward(w *core.Worker, m *msg.Msg, tail *mbuf.Mbuf) (*msg.Msg, error) {
	newTail, err := mbuf.Split(&m.Chain, tail, tail.Pos(), nil, w.Mbufs())
	if err != nil {
		return nil, err
	}
	nmsg, err := w.Msgs().Get(m.IsRequest, m.Dialect == msg.DialectRedis, m.Mode, w.Table())
	if err != nil {
		w.Mbufs().Put(newTail)
		return nil, err
	}
	nmsg.Chain.Insert(newTail)
	nmsg.MLen = newTail.Length()
	m.MLen = m.Chain.Length()
	return nmsg, nil
}
