// Package poller provides reactor.Backend implementations.
//
// Epoll (linux) and Kqueue (darwin and the BSDs) are stateful: every Wait first applies the coalesced change list
// of the Dispatcher to the kernel, then blocks. Applying a change is idempotent, so a Wait that is interrupted and
// retried before the next dispatch step re-applies the same changes harmlessly.
//
// Scripted replays a queue of canned results against a mock clock. It is meant for tests and simulations.
package poller

import (
	"fmt"

	"github.com/talostrading/reactor"
)

// ChangeError is returned by a stateful backend's Wait when the kernel rejects a change, for example a regular file
// or a descriptor closed without CloseNotify. The change stays pending and is submitted again by every later Wait,
// so the caller must stop watching Change.Fd, with CloseNotify, before waiting again.
type ChangeError struct {
	Change reactor.Change
	Err    error
}

func (e *ChangeError) Error() string {
	return fmt.Sprintf("apply change fd=%d old=%s new=%s: %v", e.Change.Fd, e.Change.Old, e.Change.New, e.Err)
}

func (e *ChangeError) Unwrap() error {
	return e.Err
}

type op uint8

const (
	opNone op = iota
	opAdd
	opModify
	opDelete
)

// opFor returns the kernel operation needed to bring a descriptor from c.Old to c.New.
func opFor(c reactor.Change) op {
	switch {
	case c.Old == c.New:
		return opNone
	case c.New == reactor.NoEvents:
		return opDelete
	case c.Old == reactor.NoEvents:
		return opAdd
	default:
		return opModify
	}
}

// appendReady appends a notification to events, merging it into the last one if it targets the same descriptor.
func appendReady(events []reactor.Ready, fd int, mask reactor.EventMask) []reactor.Ready {
	if mask == reactor.NoEvents {
		return events
	}
	if n := len(events); n > 0 && events[n-1].Fd == fd {
		events[n-1].Mask |= mask
		return events
	}
	return append(events, reactor.Ready{Fd: fd, Mask: mask})
}
