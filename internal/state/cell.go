package state

import (
	"sync"
	"sync/atomic"
	"time"
)

// MinPublishInterval is the shortest gap between two published gesture
// snapshots, roughly 30Hz.
const MinPublishInterval = 32 * time.Millisecond

// Cell is a single-slot overwrite cell holding the latest GestureState.
//
// Writers build a complete new snapshot and swap it in, so readers always
// see one consistent combination of gesture, rotation, zoom and offsets.
// Throttled writes within the minimum interval are dropped.
type Cell struct {
	interval time.Duration

	mu   sync.Mutex // serializes writers
	last time.Time

	current   atomic.Pointer[GestureState]
	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewCell creates a cell holding the zero view (zoom 1) and the given
// minimum publish interval. A zero interval disables throttling.
func NewCell(interval time.Duration) *Cell {
	c := &Cell{interval: interval}
	initial := DefaultGestureState()
	c.current.Store(&initial)
	return c
}

// Load returns the current snapshot. It never blocks.
func (c *Cell) Load() GestureState {
	return *c.current.Load()
}

// Publish derives a new snapshot from the current one with next and swaps it
// in, unless the previous publish was less than the interval ago. It reports
// whether the snapshot was published.
func (c *Cell) Publish(now time.Time, next func(GestureState) GestureState) bool {
	_, ok := c.Commit(now, next)
	return ok
}

// Commit is Publish that also returns the snapshot it swapped in. The
// snapshot is zero when the write was throttled.
func (c *Cell) Commit(now time.Time, next func(GestureState) GestureState) (GestureState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.interval > 0 && !c.last.IsZero() && now.Sub(c.last) < c.interval {
		c.dropped.Add(1)
		return GestureState{}, false
	}

	s := next(*c.current.Load())
	s.Seq = c.published.Add(1)
	s.UpdatedAt = now
	c.current.Store(&s)
	c.last = now
	return s, true
}

// Replace swaps in next unconditionally, bypassing the throttle. Used for
// user commands such as resetting the view.
func (c *Cell) Replace(now time.Time, next func(GestureState) GestureState) GestureState {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := next(*c.current.Load())
	s.Seq = c.published.Add(1)
	s.UpdatedAt = now
	c.current.Store(&s)
	return s
}

// Stats reports how many snapshots were published and how many throttled.
func (c *Cell) Stats() (published, dropped uint64) {
	return c.published.Load(), c.dropped.Load()
}
