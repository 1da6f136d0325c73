package reactor

import (
	"github.com/talostrading/reactor/internal"
	"github.com/talostrading/reactor/reactorerrors"
)

// Idle is a one-shot callback run by the next dispatch step, after readiness callbacks and before timers.
type Idle struct {
	node internal.IdleNode[*Idle]

	// cb is nil once the entry ran or was removed.
	cb  IdleCallback
	ctx any
}

// Pending returns true if the entry has neither run nor been removed.
func (i *Idle) Pending() bool {
	return i.cb != nil
}

// AddIdle appends cb to the idle queue. Entries run in the order they were added. An entry added by an idle
// callback runs in the next dispatch step, never in the drain that added it.
func (d *Dispatcher) AddIdle(cb IdleCallback, ctx any) (*Idle, error) {
	if d.closed {
		return nil, reactorerrors.ErrClosed
	}
	if cb == nil {
		return nil, reactorerrors.ErrInvalidArgument
	}

	i := &Idle{
		cb:  cb,
		ctx: ctx,
	}
	i.node.Value = i
	d.idle.PushBack(&i.node)

	return i, nil
}

// RemoveIdle cancels i. It is a no-op if i already ran or was already removed.
func (d *Dispatcher) RemoveIdle(i *Idle) {
	if i == nil || i.cb == nil {
		return
	}
	internal.Unlink(&i.node)
	i.cb, i.ctx = nil, nil
}

// Idles returns the number of pending idle entries.
func (d *Dispatcher) Idles() int {
	return d.idle.Len() + d.draining.Len()
}
