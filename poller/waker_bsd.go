//go:build darwin || netbsd || freebsd || openbsd || dragonfly

package poller

import (
	"io"
	"sync/atomic"
)

// Waker wakes up a Wait blocked on another goroutine. Watch Fd for Readable and call Drain from the callback.
//
// Wake is the only method safe to call from any goroutine.
type Waker struct {
	pipe   *Pipe
	closed uint32
}

func NewWaker() (*Waker, error) {
	pipe, err := NewPipe()
	if err != nil {
		return nil, err
	}
	return &Waker{pipe: pipe}, nil
}

func (w *Waker) Fd() int {
	return w.pipe.ReadFd()
}

func (w *Waker) Wake() error {
	if atomic.LoadUint32(&w.closed) == 1 {
		return io.EOF
	}
	_, err := w.pipe.Write([]byte{1})
	return err
}

// Drain resets the Waker and returns the number of Wake calls since the last Drain.
func (w *Waker) Drain() uint64 {
	return uint64(w.pipe.Drain())
}

// Close releases the Waker. It returns io.EOF if the Waker is already closed.
func (w *Waker) Close() error {
	if !atomic.CompareAndSwapUint32(&w.closed, 0, 1) {
		return io.EOF
	}
	return w.pipe.Close()
}
