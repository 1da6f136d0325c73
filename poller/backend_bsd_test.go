//go:build darwin || netbsd || freebsd || openbsd || dragonfly

package poller

import "github.com/talostrading/reactor"

func newBackend() (reactor.Backend, error) {
	return NewKqueue()
}
