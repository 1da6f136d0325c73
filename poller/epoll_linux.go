//go:build linux

package poller

import (
	"errors"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/talostrading/reactor"
	"github.com/talostrading/reactor/reactorerrors"
)

var _ reactor.Backend = &Epoll{}

const defaultEvents = 128

type Epoll struct {
	// fd is the file descriptor returned by calling epoll_create1.
	fd int

	// events receives the events which occurred. It doubles every time a wait fills it.
	events []unix.EpollEvent

	closed uint32
}

func NewEpoll() (*Epoll, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	return &Epoll{
		fd:     fd,
		events: make([]unix.EpollEvent, defaultEvents),
	}, nil
}

func (p *Epoll) Wait(src reactor.Source, timeoutMs int, events []reactor.Ready) ([]reactor.Ready, error) {
	if p.Closed() {
		return events, reactorerrors.ErrClosed
	}

	for _, c := range src.Changes() {
		if err := p.apply(c); err != nil {
			return events, &ChangeError{Change: c, Err: err}
		}
	}

	n, err := unix.EpollWait(p.fd, p.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return events, reactorerrors.ErrInterrupted
		}
		return events, os.NewSyscallError("epoll_wait", err)
	}

	for i := 0; i < n; i++ {
		event := &p.events[i]
		events = appendReady(events, int(event.Fd), fromEpoll(event.Events))
	}

	if n == len(p.events) {
		p.events = make([]unix.EpollEvent, 2*n)
	}

	return events, nil
}

func (p *Epoll) apply(c reactor.Change) error {
	switch opFor(c) {
	case opAdd:
		err := p.ctl(unix.EPOLL_CTL_ADD, c.Fd, c.New)
		if errors.Is(err, unix.EEXIST) {
			err = p.ctl(unix.EPOLL_CTL_MOD, c.Fd, c.New)
		}
		return wrapCtl("epoll_ctl_add", err)
	case opModify:
		err := p.ctl(unix.EPOLL_CTL_MOD, c.Fd, c.New)
		if errors.Is(err, unix.ENOENT) {
			err = p.ctl(unix.EPOLL_CTL_ADD, c.Fd, c.New)
		}
		return wrapCtl("epoll_ctl_mod", err)
	case opDelete:
		err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, c.Fd, nil)
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.EBADF) {
			// Already gone, closing a descriptor removes it from the epoll set.
			err = nil
		}
		return wrapCtl("epoll_ctl_del", err)
	default:
		return nil
	}
}

func (p *Epoll) ctl(op int, fd int, mask reactor.EventMask) error {
	return unix.EpollCtl(p.fd, op, fd, &unix.EpollEvent{
		Events: toEpoll(mask),
		Fd:     int32(fd),
	})
}

func wrapCtl(name string, err error) error {
	if err != nil {
		return os.NewSyscallError(name, err)
	}
	return nil
}

func (p *Epoll) Close() error {
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		return io.EOF
	}
	p.events = nil
	return unix.Close(p.fd)
}

func (p *Epoll) Closed() bool {
	return atomic.LoadUint32(&p.closed) == 1
}

func toEpoll(mask reactor.EventMask) uint32 {
	var events uint32
	if mask&reactor.Readable != 0 {
		events |= unix.EPOLLIN
	}
	if mask&reactor.Writable != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

// fromEpoll maps epoll bits onto readiness. Hangups and errors are reported as readable and writable: the next
// read or write on the descriptor surfaces the condition.
func fromEpoll(events uint32) reactor.EventMask {
	var mask reactor.EventMask
	if events&(unix.EPOLLIN|unix.EPOLLRDHUP|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		mask |= reactor.Readable
	}
	if events&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		mask |= reactor.Writable
	}
	return mask
}
