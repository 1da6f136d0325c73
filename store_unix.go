//go:build !windows

package reactor

import "github.com/talostrading/reactor/reactoropts"

// Unix descriptors are small dense integers.
const defaultStore = reactoropts.StoreArray
