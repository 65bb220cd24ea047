package msg

import (
	"errors"

	"icc.tech/msgcore/internal/mbuf"
)

// ErrPoolExhausted is returned by Get when the message pool's hard
// ceiling is reached, or when an external-mode allocation is refused
// above the soft ceiling even though the pool is not yet empty.
var ErrPoolExhausted = errors.New("msg: pool exhausted")

// Dispatch resolves the parser and split/coalesce callbacks to bind to
// a newly allocated message, based on (dialect, isRequest, mode);
// internal mode inherits the outer dialect's split/coalesce hooks and
// uses a dialect-agnostic parser. Defined here rather than imported
// from internal/parser to avoid a package cycle: internal/parser
// implements this interface over msg's own types.
type Dispatch interface {
	Select(dialect Dialect, isRequest bool, mode Mode) ParseFunc
	SplitCopy(dialect Dialect) (PreSplitCopyFunc, SplitCopyFunc)
	Coalesce(dialect Dialect) (CoalesceFunc, CoalesceFunc)
}

// Pool is the free-list of message objects with hard/soft allocation
// ceilings: external requests are refused above the soft ceiling even
// while the pool still has room, so that internal peer traffic always
// wins under memory pressure.
type Pool struct {
	free  *Msg
	nfree int

	allocated int
	nextID    uint64
	nextFrag  uint64

	maxAlloc     int // hard ceiling, 0 = unbounded
	allowedAlloc int // soft ceiling for external-mode allocations, 0 = unbounded

	mbufs *mbuf.Pool
}

// NewPool creates a message pool backed by the given mbuf pool, with
// the given hard and soft allocation ceilings.
func NewPool(mbufs *mbuf.Pool, maxAlloc, allowedAlloc int) *Pool {
	return &Pool{mbufs: mbufs, maxAlloc: maxAlloc, allowedAlloc: allowedAlloc}
}

// Stats reports free-list occupancy: how many messages are idle on
// the free list versus currently allocated.
type Stats struct {
	Free      int
	Allocated int
}

func (p *Pool) Stats() Stats { return Stats{Free: p.nfree, Allocated: p.allocated} }

func (p *Pool) nextMsgID() uint64 {
	p.nextID++
	return p.nextID
}

// NextFragID allocates a new fragment-group identity; 0 is reserved
// to mean "not fragmented".
func (p *Pool) NextFragID() uint64 {
	p.nextFrag++
	if p.nextFrag == 0 {
		p.nextFrag = 1
	}
	return p.nextFrag
}

// Get returns a pool-recycled or freshly allocated message, bound to
// the parser and split/coalesce callbacks selected by dispatch for
// (isRedis, isRequest, mode). It fails with ErrPoolExhausted once the
// hard ceiling (MAX_ALLOC_MSGS) is hit; in external mode it also fails
// once the soft ceiling (ALLOWED_ALLOC_MSGS) is hit, even with a
// non-empty free list waiting — the soft ceiling caps *live* messages,
// not just fresh allocation, since a recycled message still counts
// against the total in flight.
func (p *Pool) Get(isRequest, isRedis bool, mode Mode, dispatch Dispatch) (*Msg, error) {
	if p.maxAlloc > 0 && p.allocated-p.nfree >= p.maxAlloc {
		return nil, ErrPoolExhausted
	}
	if mode == ModeExternal && p.allowedAlloc > 0 && p.allocated-p.nfree >= p.allowedAlloc {
		return nil, ErrPoolExhausted
	}

	var m *Msg
	if p.free != nil {
		m = p.free
		p.free = m.poolNext
		m.poolNext = nil
		p.nfree--
	} else {
		m = &Msg{}
		p.allocated++
	}

	dialect := DialectMemcache
	if isRedis {
		dialect = DialectRedis
	}

	*m = Msg{
		ID:        p.nextMsgID(),
		IsRequest: isRequest,
		Dialect:   dialect,
		Mode:      mode,
	}
	if dispatch != nil {
		m.Parser = dispatch.Select(dialect, isRequest, mode)
		m.PreSplit, m.PostSplit = dispatch.SplitCopy(dialect)
		m.PreCoalesce, m.PostCoalesce = dispatch.Coalesce(dialect)
	}
	return m, nil
}

// Put releases the envelope, returns every mbuf in the chain to the
// mbuf pool, and links m at the head of the free-list. Callers must
// put a message at most once; Put does not guard against double-free.
func (p *Pool) Put(m *Msg) {
	for b := m.Chain.Head(); b != nil; {
		next := b.Next()
		p.mbufs.Put(b)
		b = next
	}
	m.Chain = mbuf.Chain{}
	m.Envelope = nil
	m.Pos = nil
	m.Owner = nil
	m.TimeoutHandle = nil

	m.poolNext = p.free
	p.free = m
	p.nfree++
}
