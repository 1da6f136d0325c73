package reactor

import (
	"github.com/talostrading/reactor/reactorerrors"
)

// registration is the side-table record of a descriptor.
//
// A record is live while desiredIx >= 0. It may outlive the registration, as a tombstone, while it still has a
// pending change or while it is flagged closed for the current pass.
type registration struct {
	fd   int
	mask EventMask
	cb   WatchCallback
	ctx  any

	desiredIx int
	changeIx  int

	// closed is set by CloseNotify; notifications for the descriptor later in the same batch are discarded.
	closed bool
}

// Watch installs, updates or removes the registration of fd.
//
// A non-empty mask together with a non-nil callback installs the registration, or updates it in place if fd is
// already watched. An empty mask together with a nil callback removes it; removing an unwatched descriptor is a
// no-op. Any other combination is a contract violation and fails with reactorerrors.ErrInvalidArgument, leaving the
// Dispatcher untouched.
//
// Every edit is recorded in the change list, coalesced to one Change per descriptor until the next dispatch step.
func (d *Dispatcher) Watch(fd int, mask EventMask, cb WatchCallback, ctx any) error {
	if d.closed {
		return reactorerrors.ErrClosed
	}
	if !mask.Valid() || (mask == NoEvents) != (cb == nil) {
		return reactorerrors.ErrInvalidArgument
	}

	r := d.store.Get(fd)

	if mask == NoEvents {
		if r == nil || r.desiredIx < 0 {
			return nil
		}
		d.changes.Record(fd, r.mask, NoEvents, &r.changeIx)
		d.desired.Remove(&r.desiredIx)
		r.mask, r.cb, r.ctx = NoEvents, nil, nil
		d.tombstones = append(d.tombstones, fd)

		d.log.Debug().
			Int("fd", fd).
			Log("unwatch")
		return nil
	}

	if r == nil {
		r = &registration{
			fd:        fd,
			desiredIx: -1,
			changeIx:  -1,
		}
		if err := d.store.Put(fd, r); err != nil {
			return err
		}
	}

	old := r.mask
	d.changes.Record(fd, old, mask, &r.changeIx)
	d.desired.Set(fd, mask, &r.desiredIx)
	r.mask, r.cb, r.ctx = mask, cb, ctx

	d.log.Debug().
		Int("fd", fd).
		Stringer("old", old).
		Stringer("mask", mask).
		Log("watch")

	return nil
}

// CloseNotify stops watching fd because the caller is about to invalidate it, for example by closing it.
//
// The registration and any pending change for fd are dropped, and notifications for fd delivered later in the
// current dispatch step are discarded, even if fd is watched again in the meantime. This is the only safe way to
// stop watching a descriptor whose number may be recycled before a stale notification is delivered.
func (d *Dispatcher) CloseNotify(fd int) {
	if d.closed {
		return
	}

	r := d.store.Get(fd)
	if r == nil {
		if !d.dispatching {
			return
		}
		// fd is not watched, but it may be watched again by a later callback of this pass.
		r = &registration{
			fd:        fd,
			desiredIx: -1,
			changeIx:  -1,
		}
		if d.store.Put(fd, r) != nil {
			return
		}
	}

	d.changes.Remove(&r.changeIx)
	d.desired.Remove(&r.desiredIx)
	r.mask, r.cb, r.ctx = NoEvents, nil, nil
	r.closed = true
	d.tombstones = append(d.tombstones, fd)

	d.log.Debug().
		Int("fd", fd).
		Log("close notify")
}

// dropTombstones forgets the records which no longer back a registration, once no notification of the current
// batch is left to filter. A record whose removal is still pending for the backend is kept until the change is
// flushed by the next step.
func (d *Dispatcher) dropTombstones() {
	kept := d.tombstones[:0]
	for _, fd := range d.tombstones {
		r := d.store.Get(fd)
		if r == nil {
			continue
		}
		r.closed = false
		switch {
		case r.desiredIx >= 0:
		case r.changeIx >= 0:
			kept = append(kept, fd)
		default:
			d.store.Delete(fd)
		}
	}
	d.tombstones = kept
}

// Registered returns true if fd is watched.
func (d *Dispatcher) Registered(fd int) bool {
	r := d.store.Get(fd)
	return r != nil && r.desiredIx >= 0
}

// Lookup returns the events fd is watched for. ok is false if fd is not watched.
func (d *Dispatcher) Lookup(fd int) (mask EventMask, ok bool) {
	r := d.store.Get(fd)
	if r == nil || r.desiredIx < 0 {
		return NoEvents, false
	}
	return r.mask, true
}

// Len returns the number of watched descriptors.
func (d *Dispatcher) Len() int {
	return d.desired.Len()
}

// Desired returns every watched descriptor along with the events it is watched for.
//
// The slice is owned by the Dispatcher: it must not be modified and is only valid until the next registration
// change.
func (d *Dispatcher) Desired() []Interest {
	return d.desired.Entries()
}

// Changes returns the interest edits made since the last dispatch step, at most one per descriptor.
//
// The slice is owned by the Dispatcher: it must not be modified and is only valid until the next registration
// change.
func (d *Dispatcher) Changes() []Change {
	return d.changes.Changes()
}
