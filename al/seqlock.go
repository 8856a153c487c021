// seqlock.go - sequence-locked parameter publication
//
// Parameter snapshots are published as whole immutable values that
// readers load without blocking. A writer bumps the sequence to odd,
// installs the new value, then bumps it back to even; readers never
// spin on the sequence, they load the current snapshot pointer (see
// the seqlock type below).

package al

import "sync/atomic"

// seqlock publishes whole, immutable snapshots of T from exactly one
// writer to any number of readers without the writer ever blocking on
// a reader and without a reader ever observing a half-written value.
//
// Go's race detector considers a plain struct field written by one
// goroutine and read by another a data race even when sequence numbers
// logically order the two sides, so the "odd seq = writer busy"
// bookkeeping is kept only as an observable counter (readers can poll
// Seq() to detect in-flight publication, e.g. for diagnostics) while
// the actual handoff uses an atomic pointer swap: each Publish
// installs a brand new *T, so a reader's Load always returns either
// the old, complete snapshot or the new, complete one, never a mix of
// the two.
type seqlock[T any] struct {
	seq atomic.Uint64
	ptr atomic.Pointer[T]
}

func newSeqlock[T any](initial T) *seqlock[T] {
	sl := &seqlock[T]{}
	sl.ptr.Store(&initial)
	return sl
}

// Publish installs a new snapshot. Source and Listener call it from
// their publish methods, which Context.mixInto runs once per period
// while holding the owner's spinlock, so writers never overlap.
func (sl *seqlock[T]) Publish(v T) {
	sl.seq.Add(1) // now odd: writer in progress
	sl.ptr.Store(&v)
	sl.seq.Add(1) // now even: publication complete
}

// Load returns the most recently published snapshot. Safe to call from
// the mixer thread: never blocks, never allocates.
func (sl *seqlock[T]) Load() T {
	return *sl.ptr.Load()
}

// Seq reports the current sequence counter; odd means a writer is
// between its two Add calls.
func (sl *seqlock[T]) Seq() uint64 {
	return sl.seq.Load()
}
