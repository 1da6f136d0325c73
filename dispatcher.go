package reactor

import (
	"io"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/benbjohnson/clock"
	"github.com/joeycumines/logiface"

	"github.com/talostrading/reactor/internal"
	"github.com/talostrading/reactor/reactorerrors"
	"github.com/talostrading/reactor/reactoropts"
)

// Dispatcher is a single-threaded reactor. It multiplexes readiness notifications on descriptors, fires timers and
// runs idle callbacks.
//
// A Dispatcher is not safe for concurrent use: it must be owned by a single goroutine, which drives it either by
// feeding backend notifications to Step or by calling Run/RunOnce with a Backend. Callbacks run on that goroutine
// and may freely call back into the Dispatcher, except for Step, Run and RunOnce.
type Dispatcher struct {
	store   internal.Store[registration]
	desired *internal.InterestList
	changes *internal.ChangeList

	// tombstones are descriptors whose registration record outlives the registration: a removal with a pending
	// change, or a CloseNotify. They are dropped after the batch of the step which flushed their last change.
	tombstones []int

	timers *internal.TimerQueue[*Timer]

	// due is reused across steps to hold the timers fired by a step.
	due []*Timer

	// idle receives new idle entries. draining holds the entries of the drain in progress; both are swapped at the
	// start of every drain so that entries added by idle callbacks are only seen by the next step.
	idle, draining *internal.IdleList[*Idle]

	clock clock.Clock
	log   *logiface.Logger[logiface.Event]
	hist  *hdrhistogram.Histogram

	// now is the time at which the last dispatch step started. Relative timers are scheduled against it.
	now time.Time

	hasTimeout bool
	timeout    time.Time

	stats Stats

	// events is reused across RunOnce calls as the backend's output buffer.
	events []Ready

	dispatching bool
	closed      bool
}

// New creates a Dispatcher.
func New(opts ...reactoropts.Option) (*Dispatcher, error) {
	var (
		kind     = reactoropts.StoreDefault
		capacity = internal.DefaultStoreCapacity
		maxFd    = internal.DefaultMaxDescriptor
		clk      = clock.New()
		log      *logiface.Logger[logiface.Event]
		hist     *hdrhistogram.Histogram
		ok       bool
	)

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt.Type() {
		case reactoropts.TypeStore:
			kind, ok = opt.Value().(reactoropts.StoreKind)
		case reactoropts.TypeClock:
			clk, ok = opt.Value().(clock.Clock)
			ok = ok && clk != nil
		case reactoropts.TypeLogger:
			log, ok = opt.Value().(*logiface.Logger[logiface.Event])
		case reactoropts.TypeStepHistogram:
			hist, ok = opt.Value().(*hdrhistogram.Histogram)
		case reactoropts.TypeMaxDescriptor:
			maxFd, ok = opt.Value().(int)
			ok = ok && maxFd > 0
		case reactoropts.TypeInitialCapacity:
			capacity, ok = opt.Value().(int)
			ok = ok && capacity >= 0
		default:
			ok = false
		}
		if !ok {
			return nil, reactorerrors.ErrInvalidArgument
		}
	}

	if kind == reactoropts.StoreDefault {
		kind = defaultStore
	}

	d := &Dispatcher{
		desired:  internal.NewInterestList(capacity),
		changes:  internal.NewChangeList(capacity),
		timers:   internal.NewTimerQueue[*Timer](),
		idle:     &internal.IdleList[*Idle]{},
		draining: &internal.IdleList[*Idle]{},
		clock:    clk,
		log:      log,
		hist:     hist,
	}

	switch kind {
	case reactoropts.StoreArray:
		d.store = internal.NewArrayStore[registration](capacity, maxFd)
	case reactoropts.StoreTree:
		d.store = internal.NewTreeStore[registration]()
	default:
		return nil, reactorerrors.ErrInvalidArgument
	}

	d.now = d.clock.Now()

	d.log.Debug().
		Stringer("store", kind).
		Int("capacity", capacity).
		Log("dispatcher created")

	return d, nil
}

func MustDispatcher(opts ...reactoropts.Option) *Dispatcher {
	d, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Step runs one dispatch step over a batch of readiness notifications produced by a backend.
//
// Within a step, readiness callbacks run first, in batch order, then every idle callback that was pending when
// the step started, in FIFO order, and finally every timer that is due at the step's start time, in expiry order.
// The coalesced change list is flushed when the step starts, the backend having applied it while waiting for the batch.
// Interest edits made by callbacks are left pending for the next wait.
//
// Calling Step from one of its own callbacks panics with reactorerrors.ErrReentrant.
func (d *Dispatcher) Step(batch []Ready) error {
	if d.dispatching {
		panic(reactorerrors.ErrReentrant)
	}
	if d.closed {
		return reactorerrors.ErrClosed
	}

	d.dispatching = true
	defer func() {
		d.dispatching = false
	}()

	d.now = d.clock.Now()
	d.stats.Steps++

	d.log.Trace().
		Int("events", len(batch)).
		Int("changes", d.changes.Len()).
		Log("dispatch step")

	// The backend applied these changes while waiting for this batch. Edits made by the callbacks below stay
	// pending until the next wait.
	d.changes.Flush()

	// A descriptor closed in a previous pass may have been recycled into a new registration before this batch was
	// delivered.
	for i := range batch {
		if r := d.store.Get(batch[i].Fd); r != nil {
			r.closed = false
		}
	}

	for i := range batch {
		d.notify(batch[i])
	}

	d.dropTombstones()

	d.drainIdle()
	d.fireTimers()
	d.updateTimeout()

	if d.hist != nil {
		_ = d.hist.RecordValue(d.clock.Since(d.now).Nanoseconds())
	}

	return nil
}

func (d *Dispatcher) notify(ev Ready) {
	r := d.store.Get(ev.Fd)
	if r == nil || r.closed || r.desiredIx < 0 {
		d.stats.Discarded++
		d.log.Debug().
			Int("fd", ev.Fd).
			Stringer("ready", ev.Mask).
			Log("discarded notification for unwatched descriptor")
		return
	}

	// The registration may have changed since the backend started waiting.
	ready := ev.Mask & r.mask
	if ready == NoEvents {
		return
	}

	d.stats.Readiness++
	r.cb(d, ev.Fd, ready, r.ctx)
}

func (d *Dispatcher) drainIdle() {
	if d.draining.Len() == 0 {
		d.idle, d.draining = d.draining, d.idle
	} else {
		// A previous drain was cut short by a panicking callback: finish it before the entries added since.
		for n := d.idle.PopFront(); n != nil; n = d.idle.PopFront() {
			d.draining.PushBack(n)
		}
	}

	for n := d.draining.PopFront(); n != nil; n = d.draining.PopFront() {
		i := n.Value
		cb, ctx := i.cb, i.ctx
		i.cb, i.ctx = nil, nil

		d.stats.Idles++
		cb(d, i, ctx)
	}
}

// fireTimers detaches every due timer before running any callback: timers armed by timer callbacks wait for the
// next step, even if already due.
func (d *Dispatcher) fireTimers() {
	var (
		sec  = d.now.Unix()
		nsec = int64(d.now.Nanosecond())
		due  = d.due[:0]
	)
	for dl := d.timers.PopDue(sec, nsec); dl != nil; dl = d.timers.PopDue(sec, nsec) {
		due = append(due, dl.Value)
	}

	i := 0
	defer func() {
		// A panicking callback leaves the rest of the batch queued for the next step.
		for _, t := range due[i:] {
			if t.cb != nil {
				d.timers.Push(&t.deadline)
			}
		}
		clear(due)
		d.due = due[:0]
		d.updateTimeout()
	}()

	for i < len(due) {
		t := due[i]
		i++

		// Removed by an earlier callback of this batch.
		if t.cb == nil {
			continue
		}
		cb, ctx := t.cb, t.ctx
		t.cb, t.ctx = nil, nil

		d.stats.Timers++
		cb(d, t, ctx)
	}
}

func (d *Dispatcher) updateTimeout() {
	if m := d.timers.Min(); m != nil {
		d.hasTimeout = true
		d.timeout = time.Unix(m.Sec, m.Nsec)
	} else {
		d.hasTimeout = false
		d.timeout = time.Time{}
	}
}

// Now returns the time at which the last dispatch step started, or the creation time if no step ran yet.
func (d *Dispatcher) Now() time.Time {
	return d.now
}

// Clock returns the Dispatcher's time source.
func (d *Dispatcher) Clock() clock.Clock {
	return d.clock
}

// Timeout returns the expiry of the earliest pending timer. ok is false if there is no pending timer.
func (d *Dispatcher) Timeout() (deadline time.Time, ok bool) {
	return d.timeout, d.hasTimeout
}

// TimeoutMillis returns how long a backend may block at now: -1 for no limit, 0 if a timer is due or idle
// callbacks are pending, otherwise the time until the earliest timer, rounded up to the millisecond.
func (d *Dispatcher) TimeoutMillis(now time.Time) int {
	if d.idle.Len() > 0 || d.draining.Len() > 0 {
		return 0
	}
	if !d.hasTimeout {
		return -1
	}
	left := d.timeout.Sub(now)
	if left <= 0 {
		return 0
	}
	ms := left / time.Millisecond
	if left%time.Millisecond != 0 {
		ms++
	}
	if ms > maxTimeoutMillis {
		return maxTimeoutMillis
	}
	return int(ms)
}

const maxTimeoutMillis = 1<<31 - 1

// Empty returns true if there is nothing to wait for: no registration, no timer and no idle callback.
func (d *Dispatcher) Empty() bool {
	return d.desired.Len() == 0 && d.timers.Len() == 0 && d.idle.Len() == 0 && d.draining.Len() == 0
}

// Dispatching returns true while a dispatch step is in progress.
func (d *Dispatcher) Dispatching() bool {
	return d.dispatching
}

// Close releases every registration, timer and idle entry without invoking them. Handles obtained before Close
// become inert: removing them is a no-op.
//
// Close returns io.EOF if the Dispatcher is already closed, and reactorerrors.ErrReentrant if called from a
// callback.
func (d *Dispatcher) Close() error {
	if d.closed {
		return io.EOF
	}
	if d.dispatching {
		return reactorerrors.ErrReentrant
	}
	d.closed = true

	d.timers.Ascend(func(dl *internal.Deadline[*Timer]) bool {
		dl.Value.cb, dl.Value.ctx = nil, nil
		return true
	})
	d.timers.Clear()

	for _, l := range []*internal.IdleList[*Idle]{d.idle, d.draining} {
		for n := l.PopFront(); n != nil; n = l.PopFront() {
			n.Value.cb, n.Value.ctx = nil, nil
		}
	}

	d.store.Range(func(_ int, r *registration) bool {
		r.cb, r.ctx = nil, nil
		return true
	})
	d.store.Clear()
	d.desired.Reset()
	d.changes.Flush()
	d.tombstones = d.tombstones[:0]

	d.hasTimeout = false
	d.timeout = time.Time{}

	d.log.Debug().
		Uint64("steps", d.stats.Steps).
		Log("dispatcher closed")

	return nil
}

func (d *Dispatcher) Closed() bool {
	return d.closed
}
