//go:build darwin || netbsd || freebsd || openbsd || dragonfly || linux

package poller

import (
	"os"

	"golang.org/x/sys/unix"
)

// Pipe is a nonblocking pipe. Its read end becomes readable when something is written to the write end.
type Pipe struct {
	pipe [2]int
}

func NewPipe() (*Pipe, error) {
	p := &Pipe{}
	if err := unix.Pipe(p.pipe[:]); err != nil {
		return nil, os.NewSyscallError("pipe", err)
	}
	for _, fd := range p.pipe {
		if err := unix.SetNonblock(fd, true); err != nil {
			p.Close()
			return nil, os.NewSyscallError("pipe set_nonblock", err)
		}
		unix.CloseOnExec(fd)
	}
	return p, nil
}

func (p *Pipe) Write(b []byte) (int, error) {
	return unix.Write(p.pipe[1], b)
}

func (p *Pipe) Read(b []byte) (int, error) {
	return unix.Read(p.pipe[0], b)
}

func (p *Pipe) ReadFd() int {
	return p.pipe[0]
}

func (p *Pipe) WriteFd() int {
	return p.pipe[1]
}

// Drain reads until the pipe is empty, returning the number of bytes read.
func (p *Pipe) Drain() (n int) {
	var b [64]byte
	for {
		k, err := p.Read(b[:])
		if k <= 0 || err != nil {
			return n
		}
		n += k
	}
}

func (p *Pipe) Close() error {
	if err := unix.Close(p.pipe[0]); err != nil {
		return err
	}
	return unix.Close(p.pipe[1])
}
