//go:build darwin || netbsd || freebsd || openbsd || dragonfly || linux

package poller

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talostrading/reactor"
)

func TestWakerInterruptsWait(t *testing.T) {
	d := reactor.MustDispatcher()
	defer d.Close()

	b, err := newBackend()
	require.NoError(t, err)
	defer b.Close()

	w, err := NewWaker()
	require.NoError(t, err)
	defer w.Close()

	var woken uint64
	require.NoError(t, d.Watch(w.Fd(), reactor.Readable, func(*reactor.Dispatcher, int, reactor.EventMask, any) {
		woken += w.Drain()
	}, nil))

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = w.Wake()
	}()

	// no timer and no idle entry: only the waker can end this wait
	require.NoError(t, d.RunOnce(b))
	require.Equal(t, uint64(1), woken)

	require.Equal(t, uint64(0), w.Drain())
}

func TestWakerCloseTwice(t *testing.T) {
	w, err := NewWaker()
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.ErrorIs(t, w.Close(), io.EOF)
}
