package reactoropts

import "github.com/benbjohnson/clock"

type optionClock struct {
	v clock.Clock
}

// Clock sets the time source of a Dispatcher. Tests pass a *clock.Mock to drive timers with virtual time.
func Clock(v clock.Clock) Option {
	return &optionClock{
		v: v,
	}
}

func (o *optionClock) Type() OptionType {
	return TypeClock
}

func (o *optionClock) Value() interface{} {
	return o.v
}
