package reactor

import "github.com/talostrading/reactor/internal"

type EventMask = internal.EventMask

const (
	NoEvents  = internal.NoEvents
	Readable  = internal.Readable
	Writable  = internal.Writable
	AllEvents = internal.AllEvents
)

type (
	Interest = internal.Interest
	Change   = internal.Change
	Ready    = internal.Ready
)

// WatchCallback is invoked when a watched descriptor becomes ready. ready is the intersection of what the backend
// reported and what the descriptor is currently watched for; it is never empty.
type WatchCallback func(d *Dispatcher, fd int, ready EventMask, ctx any)

// TimerCallback is invoked once when a timer expires. The timer is already detached when the callback runs.
type TimerCallback func(d *Dispatcher, t *Timer, ctx any)

// IdleCallback is invoked once, in the dispatch step following the one in which it was added, after all readiness
// callbacks and before any timer callback.
type IdleCallback func(d *Dispatcher, i *Idle, ctx any)

// Source is the view a Backend has of the Dispatcher's interest.
type Source interface {
	// Changes returns the coalesced interest edits since the last dispatch step, at most one per descriptor.
	//
	// The slice is owned by the Dispatcher and must not be modified or retained across calls to Step.
	Changes() []Change

	// Desired returns every registered descriptor with the events it is watched for, in no particular order.
	//
	// The slice is owned by the Dispatcher and must not be modified or retained across calls to Step.
	Desired() []Interest
}

// Backend waits for readiness on the descriptors a Dispatcher is interested in.
type Backend interface {
	// Wait applies the Source's changes, if the backend is stateful, and blocks until at least one descriptor is ready
	// or the timeout expires.
	//
	// timeoutMs is -1 for no timeout, 0 to poll without blocking. The ready descriptors are appended to events and
	// the resulting slice is returned, empty on timeout. A wait interrupted before completion, for example by a
	// signal, returns reactorerrors.ErrInterrupted: the caller should simply wait again.
	//
	// Changes are only flushed by the next Step, so a change the backend cannot apply fails every later Wait too,
	// until the caller stops watching the descriptor. Backends should report which change failed.
	Wait(src Source, timeoutMs int, events []Ready) ([]Ready, error)

	// Close releases the backend's resources. No calls to Wait should be made after Close.
	Close() error
}
