package engine

import (
	"icc.tech/msgcore/internal/conn"
	"icc.tech/msgcore/internal/core"
	"icc.tech/msgcore/internal/msg"
)

// Send drains c's outbound queue, batching each message's unsent mbuf
// ranges into a single vectored write per send_chain cycle. It stops
// after a cycle whose write was refused with EAGAIN or accepted only
// in part, leaving the unsent remainder for the next call.
func Send(w *core.Worker, c conn.Connection) (Status, error) {
	for c.SendReady() {
		m := c.SendNext()
		if m == nil {
			return StatusOK, nil
		}
		st, more, err := sendChain(w, c, m)
		if st != StatusOK || !more {
			return st, err
		}
	}
	return StatusOK, nil
}

// sendChain runs one send_chain cycle starting at first. Its bool
// result reports whether the connection accepted the whole batch.
func sendChain(w *core.Worker, c conn.Connection, first *msg.Msg) (Status, bool, error) {
	iovCap := w.Config().IOVCap()

	var inflight []*msg.Msg
	var iov [][]byte
	nsend := 0

	m := first
	for m != nil {
		inflight = append(inflight, m)
		for mb := m.Chain.Head(); mb != nil; mb = mb.Next() {
			seg := mb.Unread()
			if len(seg) == 0 {
				continue
			}
			if len(iov) >= iovCap {
				goto fill_done
			}
			iov = append(iov, seg)
			nsend += len(seg)
		}
		m = c.SendNext()
	}
fill_done:

	c.SetSMsg(nil)
	n, err := c.SendV(iov)
	if err == conn.ErrAgain {
		return StatusOK, false, nil
	}
	if err != nil {
		return StatusError, false, err
	}

	remaining := n
	for _, im := range inflight {
		drained := true
		for mb := im.Chain.Head(); mb != nil; mb = mb.Next() {
			unread := mb.Last() - mb.Pos()
			if unread == 0 {
				continue
			}
			if remaining <= 0 {
				drained = false
				break
			}
			if remaining < unread {
				mb.AdvancePos(remaining)
				remaining = 0
				drained = false
				break
			}
			mb.AdvancePos(unread)
			remaining -= unread
		}
		if drained || im.MLen == 0 {
			c.SendDone(im)
		}
		if !drained {
			break
		}
	}

	// A batch with real bytes queued that still wrote nothing (and
	// wasn't EAGAIN) signals a dead connection; an empty batch (e.g. a
	// lone zero-length message) legitimately writes nothing.
	if n <= 0 && len(iov) > 0 {
		return StatusError, false, nil
	}
	return StatusOK, n >= nsend, nil
}
