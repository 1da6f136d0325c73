package reactor

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/talostrading/reactor/reactoropts"
)

// fakeBackend replays one result per Wait call.
type fakeBackend struct {
	results []fakeResult
	waits   []int
	changes [][]Change
	closed  bool
}

type fakeResult struct {
	batch []Ready
	err   error
}

func (b *fakeBackend) push(batch ...Ready) *fakeBackend {
	b.results = append(b.results, fakeResult{batch: batch})
	return b
}

func (b *fakeBackend) fail(err error) *fakeBackend {
	b.results = append(b.results, fakeResult{err: err})
	return b
}

func (b *fakeBackend) Wait(src Source, timeoutMs int, events []Ready) ([]Ready, error) {
	b.waits = append(b.waits, timeoutMs)
	b.changes = append(b.changes, append([]Change(nil), src.Changes()...))

	if len(b.results) == 0 {
		return events, errors.New("fake backend: nothing to deliver")
	}
	r := b.results[0]
	b.results = b.results[1:]
	if r.err != nil {
		return events, r.err
	}
	return append(events, r.batch...), nil
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestDispatcher(t *testing.T, opts ...reactoropts.Option) (*Dispatcher, *clock.Mock) {
	t.Helper()

	clk := clock.NewMock()
	clk.Set(testEpoch)

	d, err := New(append([]reactoropts.Option{reactoropts.Clock(clk)}, opts...)...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = d.Close()
	})
	return d, clk
}

// storeKinds runs fn against every descriptor store.
func storeKinds(t *testing.T, fn func(t *testing.T, opt reactoropts.Option)) {
	for _, kind := range []reactoropts.StoreKind{reactoropts.StoreArray, reactoropts.StoreTree} {
		t.Run(kind.String(), func(t *testing.T) {
			fn(t, reactoropts.Store(kind))
		})
	}
}
