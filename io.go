package reactor

import (
	"context"

	"github.com/pkg/errors"

	"github.com/talostrading/reactor/reactorerrors"
)

var _ Source = &Dispatcher{}

// RunOnce waits on b once and dispatches what it reports.
//
// The backend may block up to TimeoutMillis. An interrupted wait is not an error: RunOnce returns nil without
// dispatching and the caller simply calls it again. Any other backend failure is returned, wrapped, and the
// Dispatcher is left untouched. A wait that times out still runs a dispatch step, with an empty batch, so that
// idle callbacks and due timers run.
//
// Like Step, RunOnce panics with reactorerrors.ErrReentrant when called from a callback.
func (d *Dispatcher) RunOnce(b Backend) error {
	if d.dispatching {
		panic(reactorerrors.ErrReentrant)
	}
	if d.closed {
		return reactorerrors.ErrClosed
	}

	timeoutMs := d.TimeoutMillis(d.clock.Now())

	events, err := b.Wait(d, timeoutMs, d.events[:0])
	if err != nil {
		if errors.Is(err, reactorerrors.ErrInterrupted) {
			d.log.Trace().Log("backend wait interrupted")
			return nil
		}

		d.log.Err().
			Err(err).
			Int("timeout_ms", timeoutMs).
			Log("backend wait failed")
		return errors.Wrap(err, "backend wait")
	}

	err = d.Step(events)
	d.events = events[:0]
	return err
}

// Run runs the event processing loop until ctx is done, a backend wait fails, or there is nothing left to wait
// for: no watched descriptor, no timer and no idle callback.
func (d *Dispatcher) Run(ctx context.Context, b Backend) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.Empty() {
			return nil
		}

		if err := d.RunOnce(b); err != nil {
			return err
		}
	}
}
