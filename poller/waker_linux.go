//go:build linux

package poller

import (
	"encoding/binary"
	"io"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Waker wakes up a Wait blocked on another goroutine. Watch Fd for Readable and call Drain from the callback.
//
// Wake is the only method safe to call from any goroutine.
type Waker struct {
	fd     int
	closed uint32
}

func NewWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("eventfd", err)
	}
	return &Waker{fd: fd}, nil
}

func (w *Waker) Fd() int {
	return w.fd
}

func (w *Waker) Wake() error {
	if atomic.LoadUint32(&w.closed) == 1 {
		return io.EOF
	}
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	_, err := unix.Write(w.fd, b[:])
	if err == unix.EAGAIN {
		// the counter is saturated, the descriptor is readable anyway
		return nil
	}
	return err
}

// Drain resets the Waker and returns the number of Wake calls since the last Drain.
func (w *Waker) Drain() uint64 {
	var b [8]byte
	if n, err := unix.Read(w.fd, b[:]); n != 8 || err != nil {
		return 0
	}
	return binary.NativeEndian.Uint64(b[:])
}

// Close releases the Waker. It returns io.EOF if the Waker is already closed.
func (w *Waker) Close() error {
	if !atomic.CompareAndSwapUint32(&w.closed, 0, 1) {
		return io.EOF
	}
	return unix.Close(w.fd)
}
