package reactor

import (
	"fmt"
	"io"
	"time"

	"github.com/valyala/bytebufferpool"
)

// Stats are the counters of a Dispatcher.
type Stats struct {
	Steps uint64

	// Readiness, Idles and Timers count the callbacks invoked.
	Readiness uint64
	Idles     uint64
	Timers    uint64

	// Discarded counts notifications for descriptors that were not watched, or closed earlier in the same pass.
	Discarded uint64

	Registrations  int
	PendingTimers  int
	PendingIdles   int
	PendingChanges int
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"steps=%d readiness=%d idles=%d timers=%d discarded=%d registrations=%d pending_timers=%d pending_idles=%d pending_changes=%d",
		s.Steps, s.Readiness, s.Idles, s.Timers, s.Discarded,
		s.Registrations, s.PendingTimers, s.PendingIdles, s.PendingChanges,
	)
}

func (d *Dispatcher) Stats() Stats {
	s := d.stats
	s.Registrations = d.desired.Len()
	s.PendingTimers = d.timers.Len()
	s.PendingIdles = d.Idles()
	s.PendingChanges = d.changes.Len()
	return s
}

// WriteState writes a human readable snapshot of the Dispatcher: its counters, watched descriptors, pending
// changes and the next timeout.
func (d *Dispatcher) WriteState(w io.Writer) error {
	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)

	fmt.Fprintf(b, "%s\n", d.Stats())
	for _, in := range d.desired.Entries() {
		fmt.Fprintf(b, "watch fd=%d mask=%s\n", in.Fd, in.Mask)
	}
	for _, c := range d.changes.Changes() {
		fmt.Fprintf(b, "change fd=%d old=%s new=%s\n", c.Fd, c.Old, c.New)
	}
	if d.hasTimeout {
		fmt.Fprintf(b, "timeout=%s\n", d.timeout.UTC().Format(time.RFC3339Nano))
	} else {
		b.WriteString("timeout=none\n")
	}

	_, err := b.WriteTo(w)
	return err
}
