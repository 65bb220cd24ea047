package mbuf

import "errors"

// ErrSplitFailed is returned by Split when pre-copy fails; the
// original chain is left completely unmodified.
var ErrSplitFailed = errors.New("mbuf: split pre-copy failed")

// Chain is a singly linked, arrival-ordered sequence of mbufs forming
// one message body. Append is O(1) at the tail.
type Chain struct {
	head *Mbuf
	tail *Mbuf
}

// Head returns the first mbuf, or nil if the chain is empty.
func (c *Chain) Head() *Mbuf { return c.head }

// Tail returns the last mbuf, or nil if the chain is empty.
func (c *Chain) Tail() *Mbuf { return c.tail }

// Insert appends m at the tail of the chain.
func (c *Chain) Insert(m *Mbuf) {
	m.next = nil
	if c.tail == nil {
		c.head = m
		c.tail = m
		return
	}
	c.tail.next = m
	c.tail = m
}

// Remove detaches m from the chain. It is O(n); used only off the hot
// path (error paths, diagnostics).
func (c *Chain) Remove(m *Mbuf) {
	if c.head == m {
		c.head = m.next
		if c.tail == m {
			c.tail = nil
		}
		m.next = nil
		return
	}
	for cur := c.head; cur != nil; cur = cur.next {
		if cur.next == m {
			cur.next = m.next
			if c.tail == m {
				c.tail = cur
			}
			m.next = nil
			return
		}
	}
}

// Empty reports whether the chain has no mbufs.
func (c *Chain) Empty() bool { return c.head == nil }

// Length sums Length() across every mbuf in the chain; this must
// always equal the owning message's mlen.
func (c *Chain) Length() int {
	n := 0
	for m := c.head; m != nil; m = m.next {
		n += m.Length()
	}
	return n
}

// PreCopy synthesizes a protocol-specific prefix into the freshly
// split tail buffer before its data moves, e.g. re-stating a command
// header for a fragment. It must return a non-OK error to abort the
// split atomically.
type PreCopy func(tail *Mbuf) error

// Split partitions the chain at byte-pointer p within mbuf `at`, which
// must be the chain's current tail (every call site in the receive
// and fragmentation engines splits at the tail mbuf's parse cursor):
// bytes before p stay in c, bytes at-and-after p move into a freshly
// obtained mbuf that is returned to the caller. If preCopy is non-nil
// it runs first and may write a synthesized prefix into the new
// buffer; if it fails, Split returns ErrSplitFailed and leaves c
// completely unchanged. Split preserves total byte content: a naive
// concatenation of c (post-split) and the returned tail reproduces
// the original stream.
func Split(c *Chain, at *Mbuf, p int, preCopy PreCopy, pool *Pool) (*Mbuf, error) {
	if at != c.tail {
		return nil, errors.New("mbuf: split target must be the chain tail")
	}

	suffix := at.buf[p:at.last]

	tail, err := pool.Get()
	if err != nil {
		return nil, err
	}

	if preCopy != nil {
		if err := preCopy(tail); err != nil {
			pool.Put(tail)
			return nil, ErrSplitFailed
		}
	}

	if tail.Size() < len(suffix) {
		pool.Put(tail)
		return nil, ErrSplitFailed
	}
	tail.Copy(suffix)

	at.last = p
	if at.pos > at.last {
		at.pos = at.last
	}

	return tail, nil
}
