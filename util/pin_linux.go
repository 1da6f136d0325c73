//go:build linux

package util

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinDispatcher locks the calling goroutine to its OS thread and pins that thread to cpu. Call it first thing on
// the goroutine that owns the Dispatcher; the goroutine stays locked until it exits.
func PinDispatcher(cpu int) error {
	if cpu < 0 {
		return fmt.Errorf("invalid cpu %d", cpu)
	}

	runtime.LockOSThread()

	set := &unix.CPUSet{}
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, set); err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("could not pin dispatcher to cpu %d: %w", cpu, err)
	}

	verify := &unix.CPUSet{}
	if err := unix.SchedGetaffinity(0, verify); err != nil {
		return err
	}
	if verify.Count() != 1 || !verify.IsSet(cpu) {
		return fmt.Errorf("could not pin dispatcher to cpu %d", cpu)
	}

	return nil
}
