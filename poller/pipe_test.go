//go:build darwin || netbsd || freebsd || openbsd || dragonfly || linux

package poller

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestPipe(t *testing.T) {
	p, err := NewPipe()
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if n := p.Drain(); n != 0 {
		t.Fatalf("empty pipe drained %d bytes", n)
	}

	// nonblocking: reading an empty pipe fails right away
	var b [8]byte
	if _, err := p.Read(b[:]); err != unix.EAGAIN {
		t.Fatalf("expected EAGAIN, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := p.Write([]byte("ping")); err != nil {
			t.Fatal(err)
		}
	}
	if n := p.Drain(); n != 12 {
		t.Fatalf("expected to drain 12 bytes, got %d", n)
	}
}
