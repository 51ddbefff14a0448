// Package lock provides the per-index concurrency controller: reader/writer
// semantics so the ANN engine, which is not internally thread-safe for
// mutations, is always called from a context matching its safety contract
// — many concurrent readers, or one exclusive writer, never both.
package lock

import "sync"

// IndexLock is a named wrapper around sync.RWMutex giving the
// reader/writer discipline its own identity, grounded on the plain
// `mu sync.RWMutex` fields embedded directly in stateful types across
// this codebase's own packages.
//
// Go's sync.RWMutex is writer-preferring: once a Lock call is blocked
// waiting, new RLock callers block behind it too, so a steady stream of
// readers cannot starve a waiting writer. That is exactly the guarantee
// a concurrency controller needs, so no custom fairness bookkeeping is
// needed on top of the standard library primitive.
type IndexLock struct {
	mu sync.RWMutex
}

// AcquireRead takes a shared read lock. Concurrent readers proceed in
// parallel; a pending writer blocks new readers from joining.
func (l *IndexLock) AcquireRead() { l.mu.RLock() }

// ReleaseRead releases a previously-acquired read lock.
func (l *IndexLock) ReleaseRead() { l.mu.RUnlock() }

// AcquireWrite takes the exclusive write lock, waiting for all current
// readers (and any earlier-queued writer) to drain first.
func (l *IndexLock) AcquireWrite() { l.mu.Lock() }

// ReleaseWrite releases the exclusive write lock.
func (l *IndexLock) ReleaseWrite() { l.mu.Unlock() }
