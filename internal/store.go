package internal

import (
	"github.com/google/btree"

	"github.com/talostrading/reactor/reactorerrors"
)

// Store is an indexable side table keyed by descriptor.
//
// Two implementations exist: ArrayStore for small, dense integer descriptors (unix file descriptors) and TreeStore
// for sparse or opaque handles (windows sockets). Callers are agnostic to the choice.
type Store[V any] interface {
	// Get returns the value stored for fd, or nil.
	Get(fd int) *V

	// Put stores v for fd, replacing any previous value.
	Put(fd int, v *V) error

	// Delete forgets fd. It is a no-op if fd is not stored.
	Delete(fd int)

	// Len returns the number of stored descriptors.
	Len() int

	// Range calls fn for every stored descriptor, in ascending descriptor order, until fn returns false.
	Range(fn func(fd int, v *V) bool)

	// Clear forgets every descriptor.
	Clear()
}

var (
	_ Store[int] = &ArrayStore[int]{}
	_ Store[int] = &TreeStore[int]{}
)

const (
	DefaultStoreCapacity = 64
	DefaultMaxDescriptor = 1 << 24
)

// ArrayStore is a dense array indexed by descriptor value. It doubles on demand, up to max.
type ArrayStore[V any] struct {
	slots []*V
	n     int
	max   int
}

func NewArrayStore[V any](capacity, maxFd int) *ArrayStore[V] {
	if maxFd <= 0 {
		maxFd = DefaultMaxDescriptor
	}
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	if capacity > maxFd {
		capacity = maxFd
	}
	return &ArrayStore[V]{
		slots: make([]*V, capacity),
		max:   maxFd,
	}
}

func (s *ArrayStore[V]) Get(fd int) *V {
	if fd < 0 || fd >= len(s.slots) {
		return nil
	}
	return s.slots[fd]
}

func (s *ArrayStore[V]) Put(fd int, v *V) error {
	if fd < 0 || fd >= s.max {
		return reactorerrors.ErrOutOfRange
	}
	if v == nil {
		s.Delete(fd)
		return nil
	}
	if fd >= len(s.slots) {
		s.grow(fd)
	}
	if s.slots[fd] == nil {
		s.n++
	}
	s.slots[fd] = v
	return nil
}

func (s *ArrayStore[V]) grow(fd int) {
	size := len(s.slots) * 2
	if size <= fd {
		size = fd + 1
	}
	if size > s.max {
		size = s.max
	}
	slots := make([]*V, size)
	copy(slots, s.slots)
	s.slots = slots
}

func (s *ArrayStore[V]) Delete(fd int) {
	if fd < 0 || fd >= len(s.slots) || s.slots[fd] == nil {
		return
	}
	s.slots[fd] = nil
	s.n--
}

func (s *ArrayStore[V]) Len() int {
	return s.n
}

func (s *ArrayStore[V]) Range(fn func(fd int, v *V) bool) {
	for fd, v := range s.slots {
		if v == nil {
			continue
		}
		if !fn(fd, v) {
			return
		}
	}
}

func (s *ArrayStore[V]) Clear() {
	clear(s.slots)
	s.n = 0
}

type treeItem[V any] struct {
	fd int
	v  *V
}

// TreeStore is a balanced tree keyed by descriptor. Any int is a valid key.
type TreeStore[V any] struct {
	tree *btree.BTreeG[treeItem[V]]
}

const treeDegree = 32

func NewTreeStore[V any]() *TreeStore[V] {
	return &TreeStore[V]{
		tree: btree.NewG(treeDegree, func(a, b treeItem[V]) bool {
			return a.fd < b.fd
		}),
	}
}

func (s *TreeStore[V]) Get(fd int) *V {
	item, ok := s.tree.Get(treeItem[V]{fd: fd})
	if !ok {
		return nil
	}
	return item.v
}

func (s *TreeStore[V]) Put(fd int, v *V) error {
	if v == nil {
		s.Delete(fd)
		return nil
	}
	s.tree.ReplaceOrInsert(treeItem[V]{fd: fd, v: v})
	return nil
}

func (s *TreeStore[V]) Delete(fd int) {
	s.tree.Delete(treeItem[V]{fd: fd})
}

func (s *TreeStore[V]) Len() int {
	return s.tree.Len()
}

func (s *TreeStore[V]) Range(fn func(fd int, v *V) bool) {
	s.tree.Ascend(func(item treeItem[V]) bool {
		return fn(item.fd, item.v)
	})
}

func (s *TreeStore[V]) Clear() {
	s.tree.Clear(false)
}
