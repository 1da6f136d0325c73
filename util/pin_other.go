//go:build !linux

package util

import "errors"

func PinDispatcher(int) error {
	return errors.New("pinning is only supported on linux")
}
