//go:build darwin || netbsd || freebsd || openbsd || dragonfly

package poller

import (
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/talostrading/reactor"
	"github.com/talostrading/reactor/reactorerrors"
)

var _ reactor.Backend = &Kqueue{}

const defaultEvents = 128

type Kqueue struct {
	kq int

	changelist []unix.Kevent_t
	sources    []reactor.Change
	receipts   []unix.Kevent_t
	eventlist  []unix.Kevent_t

	closed uint32
}

func NewKqueue() (*Kqueue, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	unix.CloseOnExec(kq)

	return &Kqueue{
		kq:         kq,
		changelist: make([]unix.Kevent_t, 0, 8),
		eventlist:  make([]unix.Kevent_t, defaultEvents),
	}, nil
}

func (p *Kqueue) Wait(src reactor.Source, timeoutMs int, events []reactor.Ready) ([]reactor.Ready, error) {
	if p.Closed() {
		return events, reactorerrors.ErrClosed
	}

	p.changelist = p.changelist[:0]
	p.sources = p.sources[:0]
	for _, c := range src.Changes() {
		if opFor(c) == opNone {
			continue
		}
		p.filter(c, reactor.Readable, unix.EVFILT_READ)
		p.filter(c, reactor.Writable, unix.EVFILT_WRITE)
	}

	if err := p.applyChanges(); err != nil {
		return events, err
	}

	var timeout *unix.Timespec
	if timeoutMs >= 0 { // 0 does a poll
		ts := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		timeout = &ts
	}

	n, err := unix.Kevent(p.kq, nil, p.eventlist, timeout)
	if err != nil {
		if err == unix.EINTR {
			return events, reactorerrors.ErrInterrupted
		}
		return events, os.NewSyscallError("kevent", err)
	}

	for i := 0; i < n; i++ {
		event := &p.eventlist[i]

		var mask reactor.EventMask
		switch event.Filter {
		case unix.EVFILT_READ:
			mask = reactor.Readable
		case unix.EVFILT_WRITE:
			mask = reactor.Writable
		}
		if event.Flags&unix.EV_EOF != 0 {
			mask |= reactor.Readable
		}
		events = appendReady(events, int(event.Ident), mask)
	}

	if n == len(p.eventlist) {
		p.eventlist = make([]unix.Kevent_t, 2*n)
	}

	return events, nil
}

// applyChanges submits the changelist on its own, with EV_RECEIPT, so that pending events are not consumed and
// every change reports its own status.
func (p *Kqueue) applyChanges() error {
	if len(p.changelist) == 0 {
		return nil
	}
	if len(p.receipts) < len(p.changelist) {
		p.receipts = make([]unix.Kevent_t, len(p.changelist))
	}

	n, err := unix.Kevent(p.kq, p.changelist, p.receipts[:len(p.changelist)], nil)
	if err != nil {
		if err == unix.EINTR {
			return reactorerrors.ErrInterrupted
		}
		return os.NewSyscallError("kevent_change", err)
	}

	for i := 0; i < n; i++ {
		receipt := &p.receipts[i]
		if receipt.Flags&unix.EV_ERROR == 0 {
			continue
		}
		errno := unix.Errno(receipt.Data)
		if errno == 0 || errno == unix.ENOENT || errno == unix.EBADF {
			// Deleting a filter of a descriptor that is already closed.
			continue
		}
		return &ChangeError{
			Change: p.source(int(receipt.Ident)),
			Err:    os.NewSyscallError("kevent_change", errno),
		}
	}
	return nil
}

// filter queues the addition or deletion of one kqueue filter, if the bit of mask changed.
func (p *Kqueue) filter(c reactor.Change, mask reactor.EventMask, filter int) {
	was, is := c.Old&mask != 0, c.New&mask != 0
	if was == is {
		return
	}

	var ev unix.Kevent_t
	if is {
		unix.SetKevent(&ev, c.Fd, filter, unix.EV_ADD|unix.EV_RECEIPT)
	} else {
		unix.SetKevent(&ev, c.Fd, filter, unix.EV_DELETE|unix.EV_RECEIPT)
	}
	p.changelist = append(p.changelist, ev)
	p.sources = append(p.sources, c)
}

// source returns the change which queued the filters of fd.
func (p *Kqueue) source(fd int) reactor.Change {
	for _, c := range p.sources {
		if c.Fd == fd {
			return c
		}
	}
	return reactor.Change{Fd: fd}
}

func (p *Kqueue) Close() error {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return io.EOF
	}
	return unix.Close(p.kq)
}

func (p *Kqueue) Closed() bool {
	return atomic.LoadUint32(&p.closed) == 1
}
