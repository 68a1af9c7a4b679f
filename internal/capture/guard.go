package capture

import "sync/atomic"

// Guard is the session exclusion latch. It is a plain boolean latch: no
// queue, no counting, no backoff. A rejected caller simply abandons the
// attempt.
type Guard struct {
	active atomic.Bool
}

// TryBegin atomically latches the guard. It returns false, with no side
// effects, when a session is already active.
func (g *Guard) TryBegin() bool {
	return g.active.CompareAndSwap(false, true)
}

// End unconditionally clears the latch.
func (g *Guard) End() {
	g.active.Store(false)
}

// Active reports whether a session currently holds the latch.
func (g *Guard) Active() bool {
	return g.active.Load()
}
