package poller

import (
	"errors"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/eapache/queue"

	"github.com/talostrading/reactor"
	"github.com/talostrading/reactor/reactorerrors"
)

var _ reactor.Backend = &Scripted{}

// ErrScriptExhausted is returned by Scripted.Wait when nothing is scripted and the wait has no timeout, i.e. when a
// real backend would block forever.
var ErrScriptExhausted = errors.New("scripted backend has nothing left to deliver")

type resultKind uint8

const (
	resultBatch resultKind = iota
	resultInterrupt
	resultError
)

type result struct {
	kind  resultKind
	after time.Duration
	batch []reactor.Ready
	err   error
}

// WaitRecord is what a Scripted backend saw on one Wait call.
type WaitRecord struct {
	TimeoutMs int
	Changes   []reactor.Change
	Desired   []reactor.Interest
}

// Scripted is a Backend that replays queued results, in order, against a mock clock.
//
// A queued batch is delivered after its delay, by which the clock is advanced. When nothing is queued, a wait with
// a timeout advances the clock by the timeout and reports a timeout.
type Scripted struct {
	clock   *clock.Mock
	script  *queue.Queue
	records []WaitRecord
	closed  bool
}

func NewScripted(clk *clock.Mock) *Scripted {
	return &Scripted{
		clock:  clk,
		script: queue.New(),
	}
}

// Deliver queues a batch delivered without advancing the clock.
func (s *Scripted) Deliver(batch ...reactor.Ready) *Scripted {
	return s.DeliverAfter(0, batch...)
}

// DeliverAfter queues a batch delivered once the clock advanced by after.
func (s *Scripted) DeliverAfter(after time.Duration, batch ...reactor.Ready) *Scripted {
	s.script.Add(result{kind: resultBatch, after: after, batch: batch})
	return s
}

// Interrupt queues an interrupted wait.
func (s *Scripted) Interrupt() *Scripted {
	s.script.Add(result{kind: resultInterrupt})
	return s
}

// Fail queues a failed wait.
func (s *Scripted) Fail(err error) *Scripted {
	s.script.Add(result{kind: resultError, err: err})
	return s
}

// Pending returns the number of queued results.
func (s *Scripted) Pending() int {
	return s.script.Length()
}

// Records returns every wait seen so far, oldest first.
func (s *Scripted) Records() []WaitRecord {
	return s.records
}

func (s *Scripted) Wait(src reactor.Source, timeoutMs int, events []reactor.Ready) ([]reactor.Ready, error) {
	if s.closed {
		return events, reactorerrors.ErrClosed
	}

	s.records = append(s.records, WaitRecord{
		TimeoutMs: timeoutMs,
		Changes:   append([]reactor.Change(nil), src.Changes()...),
		Desired:   append([]reactor.Interest(nil), src.Desired()...),
	})

	if s.script.Length() == 0 {
		if timeoutMs < 0 {
			return events, ErrScriptExhausted
		}
		s.clock.Add(time.Duration(timeoutMs) * time.Millisecond)
		return events, nil
	}

	r := s.script.Remove().(result)
	switch r.kind {
	case resultInterrupt:
		return events, reactorerrors.ErrInterrupted
	case resultError:
		return events, r.err
	}

	if r.after > 0 {
		if limit := time.Duration(timeoutMs) * time.Millisecond; timeoutMs >= 0 && r.after > limit {
			// The wait times out first; the batch stays at the head of the script, due that much sooner.
			s.clock.Add(limit)
			r.after -= limit
			s.pushFront(r)
			return events, nil
		}
		s.clock.Add(r.after)
	}

	return append(events, r.batch...), nil
}

func (s *Scripted) pushFront(r result) {
	rest := make([]result, 0, s.script.Length())
	for s.script.Length() > 0 {
		rest = append(rest, s.script.Remove().(result))
	}
	s.script.Add(r)
	for _, x := range rest {
		s.script.Add(x)
	}
}

func (s *Scripted) Close() error {
	if s.closed {
		return io.EOF
	}
	s.closed = true
	return nil
}
