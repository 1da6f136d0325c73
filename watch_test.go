package reactor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talostrading/reactor/reactorerrors"
	"github.com/talostrading/reactor/reactoropts"
)

func nopWatch(*Dispatcher, int, EventMask, any) {}

func TestWatchInvalidArgument(t *testing.T) {
	d, _ := newTestDispatcher(t)

	require.ErrorIs(t, d.Watch(3, Readable, nil, nil), reactorerrors.ErrInvalidArgument)
	require.ErrorIs(t, d.Watch(3, NoEvents, nopWatch, nil), reactorerrors.ErrInvalidArgument)
	require.ErrorIs(t, d.Watch(3, EventMask(4), nopWatch, nil), reactorerrors.ErrInvalidArgument)

	require.Equal(t, 0, d.Len())
	require.Empty(t, d.Changes())
	require.False(t, d.Registered(3))
}

func TestWatchOutOfRange(t *testing.T) {
	d, _ := newTestDispatcher(t, reactoropts.Store(reactoropts.StoreArray), reactoropts.MaxDescriptor(16))

	require.ErrorIs(t, d.Watch(16, Readable, nopWatch, nil), reactorerrors.ErrOutOfRange)
	require.ErrorIs(t, d.Watch(-1, Readable, nopWatch, nil), reactorerrors.ErrOutOfRange)
	require.NoError(t, d.Watch(15, Readable, nopWatch, nil))
	require.Equal(t, 1, d.Len())
}

func TestWatchTreeStoreAcceptsOpaqueHandles(t *testing.T) {
	d, _ := newTestDispatcher(t, reactoropts.Store(reactoropts.StoreTree))

	require.NoError(t, d.Watch(-42, Readable, nopWatch, nil))
	require.NoError(t, d.Watch(1<<30, Writable, nopWatch, nil))

	mask, ok := d.Lookup(1 << 30)
	require.True(t, ok)
	require.Equal(t, Writable, mask)
	require.True(t, d.Registered(-42))
}

func TestWatchUpdateInPlace(t *testing.T) {
	storeKinds(t, func(t *testing.T, opt reactoropts.Option) {
		d, _ := newTestDispatcher(t, opt)

		require.NoError(t, d.Watch(5, Readable, nopWatch, nil))
		require.NoError(t, d.Watch(5, AllEvents, nopWatch, nil))

		require.Equal(t, 1, d.Len())
		require.Equal(t, []Interest{{Fd: 5, Mask: AllEvents}}, d.Desired())

		mask, ok := d.Lookup(5)
		require.True(t, ok)
		require.Equal(t, AllEvents, mask)
	})
}

func TestWatchCoalescesChanges(t *testing.T) {
	storeKinds(t, func(t *testing.T, opt reactoropts.Option) {
		d, _ := newTestDispatcher(t, opt)

		require.NoError(t, d.Watch(5, Readable, nopWatch, nil))
		require.NoError(t, d.Step(nil))
		require.Empty(t, d.Changes())

		require.NoError(t, d.Watch(5, AllEvents, nopWatch, nil))
		require.NoError(t, d.Watch(5, Writable, nopWatch, nil))
		require.NoError(t, d.Watch(7, Readable, nopWatch, nil))
		require.NoError(t, d.Watch(7, NoEvents, nil, nil))

		require.ElementsMatch(t, []Change{
			{Fd: 5, Old: Readable, New: Writable},
			{Fd: 7, Old: NoEvents, New: NoEvents},
		}, d.Changes())

		require.NoError(t, d.Step(nil))
		require.Empty(t, d.Changes())
		require.False(t, d.Registered(7))
	})
}

func TestWatchRemoveUnwatchedIsNoop(t *testing.T) {
	d, _ := newTestDispatcher(t)

	require.NoError(t, d.Watch(9, NoEvents, nil, nil))
	require.Empty(t, d.Changes())
	require.Equal(t, 0, d.Len())

	d.CloseNotify(9)
	require.Empty(t, d.Changes())
}

// The number of registrations always equals the number of installs minus the number of removals.
func TestWatchRegistrationCount(t *testing.T) {
	storeKinds(t, func(t *testing.T, opt reactoropts.Option) {
		d, _ := newTestDispatcher(t, opt)

		rng := rand.New(rand.NewSource(7))
		live := make(map[int]EventMask)

		for i := 0; i < 5000; i++ {
			fd := rng.Intn(64)
			switch rng.Intn(4) {
			case 0, 1:
				mask := EventMask(rng.Intn(3) + 1)
				require.NoError(t, d.Watch(fd, mask, nopWatch, nil))
				live[fd] = mask
			case 2:
				require.NoError(t, d.Watch(fd, NoEvents, nil, nil))
				delete(live, fd)
			case 3:
				d.CloseNotify(fd)
				delete(live, fd)
			}

			if i%100 == 0 {
				require.NoError(t, d.Step(nil))
			}
		}

		require.Equal(t, len(live), d.Len())
		for fd := 0; fd < 64; fd++ {
			mask, ok := d.Lookup(fd)
			want, watched := live[fd]
			require.Equal(t, watched, ok, "fd=%d", fd)
			require.Equal(t, want, mask, "fd=%d", fd)
		}

		seen := make(map[int]bool)
		for _, in := range d.Desired() {
			require.False(t, seen[in.Fd], "fd=%d appears twice", in.Fd)
			seen[in.Fd] = true
			require.Equal(t, live[in.Fd], in.Mask)
		}

		fds := make(map[int]bool)
		for _, c := range d.Changes() {
			require.False(t, fds[c.Fd], "fd=%d has two pending changes", c.Fd)
			fds[c.Fd] = true
		}
	})
}

func TestCloseNotifyDropsStaleNotifications(t *testing.T) {
	storeKinds(t, func(t *testing.T, opt reactoropts.Option) {
		d, _ := newTestDispatcher(t, opt)

		var (
			calls int
			got   EventMask
		)
		cb := func(_ *Dispatcher, fd int, ready EventMask, _ any) {
			calls++
			got = ready
		}

		require.NoError(t, d.Watch(5, Readable, cb, nil))

		batch := []Ready{{Fd: 5, Mask: Readable}}
		require.NoError(t, d.Step(batch))
		require.Equal(t, 1, calls)
		require.Equal(t, Readable, got)

		d.CloseNotify(5)
		require.False(t, d.Registered(5))
		require.Empty(t, d.Changes())

		require.NoError(t, d.Step(batch))
		require.Equal(t, 1, calls)
		require.Equal(t, uint64(1), d.Stats().Discarded)
	})
}

func TestCloseNotifyDuringStepDiscardsRestOfBatch(t *testing.T) {
	storeKinds(t, func(t *testing.T, opt reactoropts.Option) {
		d, _ := newTestDispatcher(t, opt)

		var order []int
		first := func(d *Dispatcher, fd int, _ EventMask, _ any) {
			order = append(order, fd)
			// the descriptor is closed and its number reused by a new registration
			d.CloseNotify(7)
			require.NoError(t, d.Watch(7, Readable, func(_ *Dispatcher, fd int, _ EventMask, _ any) {
				order = append(order, -fd)
			}, nil))
		}
		second := func(_ *Dispatcher, fd int, _ EventMask, _ any) {
			order = append(order, fd)
		}

		require.NoError(t, d.Watch(3, Readable, first, nil))
		require.NoError(t, d.Watch(7, Readable, second, nil))
		require.NoError(t, d.Step(nil))

		require.NoError(t, d.Step([]Ready{
			{Fd: 3, Mask: Readable},
			{Fd: 7, Mask: Readable},
		}))
		require.Equal(t, []int{3}, order)
		require.True(t, d.Registered(7))

		// the new registration is notified in later steps
		require.NoError(t, d.Step([]Ready{{Fd: 7, Mask: Readable}}))
		require.Equal(t, []int{3, -7}, order)
	})
}

func TestCloseNotifyUnwatchedDuringStep(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var calls int
	require.NoError(t, d.Watch(1, Readable, func(d *Dispatcher, _ int, _ EventMask, _ any) {
		d.CloseNotify(8)
		require.NoError(t, d.Watch(8, Readable, func(*Dispatcher, int, EventMask, any) {
			calls++
		}, nil))
	}, nil))

	require.NoError(t, d.Step([]Ready{{Fd: 1, Mask: Readable}, {Fd: 8, Mask: Readable}}))
	require.Equal(t, 0, calls)

	require.NoError(t, d.Step([]Ready{{Fd: 8, Mask: Readable}}))
	require.Equal(t, 1, calls)
}

func TestWatchCallbackSeesCurrentMask(t *testing.T) {
	d, _ := newTestDispatcher(t)

	var got []EventMask
	cb := func(_ *Dispatcher, _ int, ready EventMask, _ any) {
		got = append(got, ready)
	}

	require.NoError(t, d.Watch(4, Readable, cb, nil))
	require.NoError(t, d.Step([]Ready{{Fd: 4, Mask: AllEvents}}))
	require.Equal(t, []EventMask{Readable}, got)

	// readiness the descriptor is no longer watched for is not reported
	require.NoError(t, d.Step([]Ready{{Fd: 4, Mask: Writable}}))
	require.Equal(t, []EventMask{Readable}, got)
}

func TestWatchCallbackContext(t *testing.T) {
	d, _ := newTestDispatcher(t)

	type conn struct{ name string }
	c := &conn{name: "upstream"}

	var got any
	require.NoError(t, d.Watch(4, Readable, func(_ *Dispatcher, _ int, _ EventMask, ctx any) {
		got = ctx
	}, c))
	require.NoError(t, d.Step([]Ready{{Fd: 4, Mask: Readable}}))
	require.Same(t, c, got)
}
