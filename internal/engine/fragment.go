package engine

import (
	"icc.tech/msgcore/internal/conn"
	"icc.tech/msgcore/internal/core"
	"icc.tech/msgcore/internal/mbuf"
	"icc.tech/msgcore/internal/msg"
)

// fragment implements the fragmentation engine: it splits a multi-key
// request's chain at the parser's cursor, lets the dialect synthesize
// a standalone header for the carved-off remainder, and links the new
// message into m's fragment group.
func fragment(w *core.Worker, c conn.Connection, m *msg.Msg) (Status, error) {
	tail := m.Chain.Tail()

	var preCopy mbuf.PreCopy
	if m.PreSplit != nil {
		preCopy = func(t *mbuf.Mbuf) error { return m.PreSplit(t, m) }
	}

	newTail, err := mbuf.Split(&m.Chain, tail, tail.Pos(), preCopy, w.Mbufs())
	if err != nil {
		return StatusError, err
	}

	if m.PostSplit != nil {
		if err := m.PostSplit(m); err != nil {
			w.Mbufs().Put(newTail)
			return StatusError, err
		}
	}

	nmsg, err := w.Msgs().Get(m.IsRequest, m.Dialect == msg.DialectRedis, m.Mode, w.Table())
	if err != nil {
		w.Mbufs().Put(newTail)
		return StatusError, err
	}
	nmsg.Chain.Insert(newTail)
	nmsg.Pos = newTail
	nmsg.MLen = newTail.Length()
	m.MLen = m.Chain.Length()

	if m.FragID == 0 {
		m.FragID = w.Msgs().NextFragID()
		m.FirstFrag = true
		m.NFrag = 1
		m.FragOwner = m
	}

	nmsg.FragID = m.FragID
	nmsg.FragOwner = m.FragOwner
	nmsg.LastFrag = true
	m.LastFrag = false
	m.FragOwner.NFrag++

	w.CountFragment()
	c.RecvDone(m, nmsg)
	return StatusOK, nil
}
