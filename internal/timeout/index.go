// Package timeout implements an ordered-by-deadline structure of
// outstanding requests, polled by the owning event loop rather than
// driven by its own goroutine.
package timeout

import "container/heap"

// Clock returns the current time in monotonic milliseconds, the only
// time source this index consumes.
type Clock func() int64

// Entry is the value type indexed by deadline: the outstanding
// message and the connection that owns it. msg/conn are stored as
// `any` to avoid an import cycle with internal/msg and internal/conn
// (both of which reference a handle back into this package).
type Entry struct {
	Deadline int64
	Msg      any
	Conn     any

	heapIndex int
}

// Cleared reports whether this handle has already been withdrawn (or
// was never inserted), satisfying msg.TimeoutHandle and making Delete
// idempotent.
func (e *Entry) Cleared() bool { return e == nil || e.heapIndex == -1 }

type entryHeap []*Entry

func (h entryHeap) Len() int            { return len(h) }
func (h entryHeap) Less(i, j int) bool  { return h[i].Deadline < h[j].Deadline }
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}
func (h *entryHeap) Push(x any) {
	e := x.(*Entry)
	e.heapIndex = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.heapIndex = -1
	*h = old[:n-1]
	return e
}

// Index is a standalone min-heap keyed by absolute deadline
// (milliseconds). It has no goroutine of its own; the owning event
// loop polls Min() and calls Delete() on expiry or completion.
type Index struct {
	h    entryHeap
	now  Clock
}

// NewIndex creates an empty index using now as its clock source.
func NewIndex(now Clock) *Index {
	return &Index{now: now}
}

// Insert computes deadline = now() + timeoutMS and adds an entry for
// (msgRef, connRef), returning its handle. It silently does nothing
// (returns nil) when timeoutMS <= 0.
func (idx *Index) Insert(msgRef, connRef any, timeoutMS int64) *Entry {
	if timeoutMS <= 0 {
		return nil
	}
	e := &Entry{Deadline: idx.now() + timeoutMS, Msg: msgRef, Conn: connRef}
	heap.Push(&idx.h, e)
	return e
}

// Delete removes e from the index and clears its back-reference. It
// is a no-op if e is nil or already cleared.
func (idx *Index) Delete(e *Entry) {
	if e.Cleared() {
		return
	}
	heap.Remove(&idx.h, e.heapIndex)
}

// Min peeks the earliest-expiring entry, or nil if the index is empty.
func (idx *Index) Min() *Entry {
	if len(idx.h) == 0 {
		return nil
	}
	return idx.h[0]
}

// Len reports the number of outstanding entries.
func (idx *Index) Len() int { return len(idx.h) }
