// Package msg implements the parsed/parsing message object and its
// pool, exactly as specified by the datapath core: a request or
// response unit carrying a buffer chain, parser state, command
// classification, fragment-group identity, and timing/pairing fields.
package msg

import (
	"icc.tech/msgcore/internal/mbuf"
)

// Mode distinguishes client/storage-facing traffic from peer traffic
// carried in the internal replication envelope.
type Mode int

const (
	ModeExternal Mode = iota
	ModeInternal
)

// Dialect is the wire family a message belongs to.
type Dialect int

const (
	DialectMemcache Dialect = iota // text-family
	DialectRedis                  // array-family
)

// Result is the outcome of invoking a parser on a message, per the
// Parser capability contract.
type Result int

const (
	ResultOK Result = iota
	ResultFragment
	ResultRepair
	ResultAgain
	ResultError
)

// ParseFunc mutates a message's parser state slots and returns a
// Result; on ResultOK it leaves Pos at the boundary byte after the
// parsed unit.
type ParseFunc func(m *Msg) Result

// SplitCopyFunc is the pre/post split-copy hook pair used by the
// fragmentation engine to synthesize or patch a command header.
type SplitCopyFunc func(m *Msg) error

// PreSplitCopyFunc writes a synthesized header into the tail buffer
// before a split moves bytes into it.
type PreSplitCopyFunc func(tail *mbuf.Mbuf, m *Msg) error

// CoalesceFunc is the symmetric hook used by downstream response
// joining; the core only carries the function pointer, it never
// invokes coalesce itself (that lives outside this core).
type CoalesceFunc func(m *Msg) error

// Envelope is the internal-protocol wrapper around an internal-mode
// message: BitField==1 signals an AES-encrypted payload, Plen is the
// remaining ciphertext byte count still expected off the wire.
type Envelope struct {
	BitField uint8
	Plen     int
}

// Type classifies a request/response by command, enough for the
// fragmentation engine to recognize multi-key verbs. The concrete
// wire dialects (internal/wire/redis, internal/wire/memcache) are the
// only things that assign non-zero Type values (GetError also marks
// its replies TypeServerError); the receive, send and fragmentation
// engines never read Type.
type Type int

const (
	TypeUnknown Type = iota
	TypeReq
	TypeRspOK
	TypeRspError
	TypeServerError
)

// TimeoutHandle is a stable handle into internal/timeout.Index: a
// message's membership in the timeout index is tracked by a nullable
// handle, never by an embedded node.
type TimeoutHandle interface {
	// Cleared reports whether the handle has already been withdrawn
	// (or was never inserted), making Delete idempotent.
	Cleared() bool
}

// HandleCleared reports whether h is nil or already cleared — safe
// against the typed-nil interface a Clock-skip Insert can produce,
// since a (*timeout.Entry)(nil) boxed into this interface is not
// itself == nil.
func HandleCleared(h TimeoutHandle) bool {
	return h == nil || h.Cleared()
}

// Msg is one parse unit: request or response, with its buffer chain,
// parser state, classification, result flags, fragment-group
// identity, pairing, and pluggable callbacks.
type Msg struct {
	ID uint64

	IsRequest bool
	Dialect   Dialect
	Mode      Mode

	Chain mbuf.Chain
	Pos   *mbuf.Mbuf // mbuf currently holding the parse cursor
	MLen  int

	// Parser state slots.
	Token      int
	State      int
	RNArg      int
	RLen       int
	Integer    int64
	NArgStart  int
	NArgEnd    int

	Type      Type
	IsRead    bool
	KeyStart  int
	KeyEnd    int
	VLen      int

	Done    bool
	Error   bool
	Err     error
	Swallow bool
	NoReply bool
	Quit    bool

	FragID      uint64
	FragOwner   *Msg
	NFrag       int // valid on the owner only
	FirstFrag   bool
	LastFrag    bool

	Peer  *Msg
	Owner any // weak back-reference to the owning connection; never used for lifetime

	StimeMicros   int64
	TimeoutHandle TimeoutHandle

	Parser       ParseFunc
	PreSplit     PreSplitCopyFunc
	PostSplit    SplitCopyFunc
	PreCoalesce  CoalesceFunc
	PostCoalesce CoalesceFunc

	Envelope *Envelope

	poolNext *Msg // free-list link; valid only while on Pool's free list
}

// IsFragmented reports whether m belongs to a fragment group.
func (m *Msg) IsFragmented() bool { return m.FragID != 0 }

// Owns reports whether m is its own fragment group's owner.
func (m *Msg) Owns() bool { return m.FragOwner == m }
