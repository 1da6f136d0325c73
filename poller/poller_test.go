package poller

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talostrading/reactor"
)

func TestOpFor(t *testing.T) {
	for _, c := range []struct {
		change reactor.Change
		want   op
	}{
		{reactor.Change{Old: reactor.NoEvents, New: reactor.NoEvents}, opNone},
		{reactor.Change{Old: reactor.Readable, New: reactor.Readable}, opNone},
		{reactor.Change{Old: reactor.NoEvents, New: reactor.Readable}, opAdd},
		{reactor.Change{Old: reactor.Readable, New: reactor.AllEvents}, opModify},
		{reactor.Change{Old: reactor.Writable, New: reactor.NoEvents}, opDelete},
	} {
		require.Equal(t, c.want, opFor(c.change), "%+v", c.change)
	}
}

func TestAppendReadyMergesSameDescriptor(t *testing.T) {
	var events []reactor.Ready

	events = appendReady(events, 3, reactor.Readable)
	events = appendReady(events, 3, reactor.Writable)
	events = appendReady(events, 4, reactor.NoEvents)
	events = appendReady(events, 4, reactor.Writable)
	events = appendReady(events, 3, reactor.Readable)

	require.Equal(t, []reactor.Ready{
		{Fd: 3, Mask: reactor.AllEvents},
		{Fd: 4, Mask: reactor.Writable},
		{Fd: 3, Mask: reactor.Readable},
	}, events)
}
