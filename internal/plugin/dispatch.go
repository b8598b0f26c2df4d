package plugin

import (
	"context"
	"sync/atomic"

	"github.com/ayusman/marionette/internal/log"
)

// Dispatcher runs hooks off the detector loop. Notify never blocks: when
// the queue is full the event is dropped.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	queue    chan Request

	dropped atomic.Uint64
}

// NewDispatcher creates a Dispatcher buffering up to size events.
func NewDispatcher(m *Manager, e *Executor, size int) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		manager:  m,
		executor: e,
		queue:    make(chan Request, size),
	}
}

// Notify queues req. It reports false when the event was dropped.
func (d *Dispatcher) Notify(req Request) bool {
	select {
	case d.queue <- req:
		return true
	default:
		d.dropped.Add(1)
		return false
	}
}

// Dropped returns how many events were dropped on a full queue.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Pending returns how many events are queued and not yet delivered.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run delivers queued events until ctx is cancelled. Hooks for one event
// run in name order; events are delivered in order.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-d.queue:
			d.deliver(ctx, req)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, req Request) {
	for _, p := range d.manager.Subscribers(req.Gesture) {
		resp, err := d.executor.Execute(ctx, p, &req)
		switch {
		case err != nil:
			log.Warn("plugin failed", "plugin", p.Manifest.Name, "gesture", req.Gesture, "error", err)
		case !resp.Success:
			log.Warn("plugin rejected event", "plugin", p.Manifest.Name, "gesture", req.Gesture, "error", resp.Error)
		default:
			log.Debug("plugin ran", "plugin", p.Manifest.Name, "gesture", req.Gesture)
		}
	}
}
