//go:build darwin || netbsd || freebsd || openbsd || dragonfly

package main

import (
	"github.com/talostrading/reactor"
	"github.com/talostrading/reactor/poller"
)

const backendName = "kqueue"

func newBackend() (reactor.Backend, error) {
	return poller.NewKqueue()
}
