// Package core wires together the per-event-loop-worker state the
// receive/send engines operate on: the mbuf pool, the message pool,
// and the timeout index, constructed once per worker and shared
// across every connection it owns.
package core

import (
	"sync"

	"icc.tech/msgcore/internal/mbuf"
	"icc.tech/msgcore/internal/msg"
	"icc.tech/msgcore/internal/parser"
	"icc.tech/msgcore/internal/timeout"
)

// Config holds the tunables a Worker is built from.
type Config struct {
	MBufCap          int `mapstructure:"mbuf_cap"`
	MBufExtraCap     int `mapstructure:"mbuf_extra_cap"`
	MaxAllocMsgs     int `mapstructure:"max_alloc_msgs"`
	AllowedAllocMsgs int `mapstructure:"allowed_alloc_msgs"`
	MaxAllocMbufs    int `mapstructure:"max_alloc_mbufs"`
	IOVMaxCap        int `mapstructure:"iov_max_cap"`
}

const defaultIOVMax = 128

// IOVCap returns the effective IOV_MAX_CAP = min(IOV_MAX, 128).
func (c *Config) IOVCap() int {
	if c.IOVMaxCap <= 0 || c.IOVMaxCap > defaultIOVMax {
		return defaultIOVMax
	}
	return c.IOVMaxCap
}

// Worker owns the datapath's allocation pools and timeout index for
// one event-loop worker. A process typically runs one Worker per
// thread; Worker itself is not safe for concurrent use by more than
// one goroutine (the pools it wraps aren't either), matching the
// single-threaded-per-worker event loop this core assumes.
type Worker struct {
	mu sync.Mutex

	config *Config
	mbufs  *mbuf.Pool
	msgs   *msg.Pool
	tmo    *timeout.Index
	table  *parser.Table

	fragmentsTotal int
}

// New builds a Worker from cfg, a shared parser dispatch table, and a
// clock for the timeout index.
func New(cfg *Config, table *parser.Table, now timeout.Clock) *Worker {
	mbufs := mbuf.NewPool(cfg.MBufCap, cfg.MBufExtraCap, cfg.MaxAllocMbufs)
	msgs := msg.NewPool(mbufs, cfg.MaxAllocMsgs, cfg.AllowedAllocMsgs)
	return &Worker{
		config: cfg,
		mbufs:  mbufs,
		msgs:   msgs,
		tmo:    timeout.NewIndex(now),
		table:  table,
	}
}

func (w *Worker) Config() *Config          { return w.config }
func (w *Worker) Mbufs() *mbuf.Pool        { return w.mbufs }
func (w *Worker) Msgs() *msg.Pool          { return w.msgs }
func (w *Worker) Timeouts() *timeout.Index { return w.tmo }
func (w *Worker) Table() *parser.Table     { return w.table }

// CountFragment increments the worker's lifetime fragmentation
// counter. Called once per carved-off message regardless of mode —
// internal-mode traffic just skips the external stats hook, it is
// still counted here.
func (w *Worker) CountFragment() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fragmentsTotal++
}

// Stats aggregates the worker's pool/timeout occupancy for
// diagnostics and metrics export.
type Stats struct {
	Mbufs          mbuf.Stats
	Msgs           msg.Stats
	Pending        int
	FragmentsTotal int
}

// Stats snapshots the worker's current allocation and pending-timeout
// counters.
func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Mbufs:          w.mbufs.Stats(),
		Msgs:           w.msgs.Stats(),
		Pending:        w.tmo.Len(),
		FragmentsTotal: w.fragmentsTotal,
	}
}
