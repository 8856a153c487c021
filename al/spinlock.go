// spinlock.go - lightweight spinlock for parameter-update publication
//
// Application threads hold this only for the duration of a pending-
// update struct copy; the mixer thread takes it once per period in
// Source/Listener publish, so any wait it sees is bounded by one copy.

package al

import (
	"runtime"
	"sync/atomic"
)

type spinlock struct {
	held atomic.Bool
}

func (s *spinlock) Lock() {
	for !s.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (s *spinlock) Unlock() {
	s.held.Store(false)
}
