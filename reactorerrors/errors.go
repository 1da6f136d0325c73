package reactorerrors

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfRange      = errors.New("descriptor out of range")
	ErrClosed          = errors.New("dispatcher closed")

	// ErrInterrupted is returned by a backend whose wait was interrupted, for example by a signal.
	// It is not a failure: the caller should retry the wait.
	ErrInterrupted = errors.New("wait interrupted")

	// ErrReentrant is the panic value of a Step invoked from inside another Step.
	ErrReentrant = errors.New("dispatch step invoked reentrantly")
)
