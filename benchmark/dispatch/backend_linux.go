//go:build linux

package main

import (
	"github.com/talostrading/reactor"
	"github.com/talostrading/reactor/poller"
)

const backendName = "epoll"

func newBackend() (reactor.Backend, error) {
	return poller.NewEpoll()
}
