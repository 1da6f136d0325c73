package reactor

import (
	"math"
	"time"

	"github.com/talostrading/reactor/internal"
	"github.com/talostrading/reactor/reactorerrors"
)

// Timer is a one-shot callback scheduled at an absolute expiry.
type Timer struct {
	deadline internal.Deadline[*Timer]

	// cb is nil once the timer fired or was removed.
	cb  TimerCallback
	ctx any
}

// Pending returns true if the timer has neither fired nor been removed.
func (t *Timer) Pending() bool {
	return t.cb != nil
}

func (t *Timer) Expiry() time.Time {
	return time.Unix(t.deadline.Sec, t.deadline.Nsec)
}

// AddTimer schedules cb to run once the Dispatcher's clock reaches the absolute expiry (sec, nsec), expressed as
// seconds and nanoseconds since the unix epoch.
//
// Timers with equal expiries fire in the order they were added. A timer added by a timer callback fires in the
// next dispatch step at the earliest.
func (d *Dispatcher) AddTimer(sec, nsec int64, cb TimerCallback, ctx any) (*Timer, error) {
	if d.closed {
		return nil, reactorerrors.ErrClosed
	}
	if cb == nil || nsec < 0 || nsec >= int64(time.Second) {
		return nil, reactorerrors.ErrInvalidArgument
	}

	t := &Timer{
		cb:  cb,
		ctx: ctx,
	}
	t.deadline.Sec = sec
	t.deadline.Nsec = nsec
	t.deadline.Value = t

	d.timers.Push(&t.deadline)
	d.updateTimeout()

	d.log.Debug().
		Int64("sec", sec).
		Int64("nsec", nsec).
		Uint64("id", t.deadline.Seq).
		Log("timer added")

	return t, nil
}

// AddTimerAt schedules cb to run once the Dispatcher's clock reaches at.
func (d *Dispatcher) AddTimerAt(at time.Time, cb TimerCallback, ctx any) (*Timer, error) {
	return d.AddTimer(at.Unix(), int64(at.Nanosecond()), cb, ctx)
}

// AddTimerRelative schedules cb to run delayMs milliseconds after the start of the current dispatch step, or of
// the last one if called outside of a step. Delays longer than a time.Duration can hold fail with
// reactorerrors.ErrInvalidArgument. It is not relative to the instant of the call: timers scheduled by
// callbacks of one step share the same reference point.
func (d *Dispatcher) AddTimerRelative(delayMs int64, cb TimerCallback, ctx any) (*Timer, error) {
	if delayMs < 0 || delayMs > maxDelayMillis {
		return nil, reactorerrors.ErrInvalidArgument
	}
	return d.AddTimerAt(d.now.Add(time.Duration(delayMs)*time.Millisecond), cb, ctx)
}

// maxDelayMillis is the longest delay a time.Duration can hold.
const maxDelayMillis = int64(math.MaxInt64 / time.Millisecond)

// RemoveTimer cancels t. It is a no-op if t already fired or was already removed, including when called from t's
// own callback.
func (d *Dispatcher) RemoveTimer(t *Timer) {
	if t == nil || t.cb == nil {
		return
	}

	d.timers.Remove(&t.deadline)
	t.cb, t.ctx = nil, nil
	d.updateTimeout()

	d.log.Debug().
		Uint64("id", t.deadline.Seq).
		Log("timer removed")
}

// Timers returns the number of pending timers.
func (d *Dispatcher) Timers() int {
	return d.timers.Len()
}
