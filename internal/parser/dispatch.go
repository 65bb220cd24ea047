// Package parser implements the parser dispatch table: selecting a
// wire parser by (protocol, direction, mode), and the pre/post
// split-copy and coalesce hooks chosen by dialect.
package parser

import "icc.tech/msgcore/internal/msg"

// Variant names one of the six dispatchable parser slots.
type Variant int

const (
	RedisReq Variant = iota
	RedisResp
	MemcacheReq
	MemcacheResp
	InternalReq
	InternalResp
)

// SplitCoalesceHooks groups the four dialect-scoped hooks the
// fragmentation/coalescing machinery pulls from a Table; internal
// mode inherits the outer dialect's hooks rather than carrying its
// own.
type SplitCoalesceHooks struct {
	PreSplit     msg.PreSplitCopyFunc
	PostSplit    msg.SplitCopyFunc
	PreCoalesce  msg.CoalesceFunc
	PostCoalesce msg.CoalesceFunc
}

// Table is a tagged-dispatch registry: a compile-time map from
// Variant to ParseFunc, plus per-dialect split/coalesce hooks.
// It implements msg.Dispatch so msg.Pool.Get can bind the right
// callbacks without msg importing this package.
type Table struct {
	parsers map[Variant]msg.ParseFunc
	hooks   map[msg.Dialect]SplitCoalesceHooks
}

// NewTable builds an empty dispatch table; callers register concrete
// wire parsers with Register and hooks with RegisterHooks. Typically
// internal/registry.BindAll does this once at startup, walking its
// dependency-ordered dialect list and binding each into the table.
func NewTable() *Table {
	return &Table{
		parsers: make(map[Variant]msg.ParseFunc),
		hooks:   make(map[msg.Dialect]SplitCoalesceHooks),
	}
}

// Register binds a parser implementation to a dispatch slot.
func (t *Table) Register(v Variant, fn msg.ParseFunc) {
	t.parsers[v] = fn
}

// RegisterHooks binds the split/coalesce hooks for a dialect.
func (t *Table) RegisterHooks(d msg.Dialect, h SplitCoalesceHooks) {
	t.hooks[d] = h
}

func variantFor(dialect msg.Dialect, isRequest bool, mode msg.Mode) Variant {
	if mode == msg.ModeInternal {
		if isRequest {
			return InternalReq
		}
		return InternalResp
	}
	if dialect == msg.DialectRedis {
		if isRequest {
			return RedisReq
		}
		return RedisResp
	}
	if isRequest {
		return MemcacheReq
	}
	return MemcacheResp
}

// Select implements msg.Dispatch: it picks the parser for
// (dialect, isRequest, mode), with internal mode routed to the two
// dialect-agnostic internal variants regardless of the outer dialect.
func (t *Table) Select(dialect msg.Dialect, isRequest bool, mode msg.Mode) msg.ParseFunc {
	return t.parsers[variantFor(dialect, isRequest, mode)]
}

// SplitCopy implements msg.Dispatch: pre/post split hooks are chosen
// from {redis, memcache} only — internal mode inherits the outer
// dialect's hooks.
func (t *Table) SplitCopy(dialect msg.Dialect) (msg.PreSplitCopyFunc, msg.SplitCopyFunc) {
	h := t.hooks[dialect]
	return h.PreSplit, h.PostSplit
}

// Coalesce implements msg.Dispatch, symmetric to SplitCopy.
func (t *Table) Coalesce(dialect msg.Dialect) (msg.CoalesceFunc, msg.CoalesceFunc) {
	h := t.hooks[dialect]
	return h.PreCoalesce, h.PostCoalesce
}
