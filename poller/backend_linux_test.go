//go:build linux

package poller

import "github.com/talostrading/reactor"

func newBackend() (reactor.Backend, error) {
	return NewEpoll()
}
