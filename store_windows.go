//go:build windows

package reactor

import "github.com/talostrading/reactor/reactoropts"

// Windows handles are opaque and sparse.
const defaultStore = reactoropts.StoreTree
