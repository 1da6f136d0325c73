package internal

// IdleNode is the intrusive link of an IdleList entry.
type IdleNode[T any] struct {
	prev, next *IdleNode[T]
	list       *IdleList[T]

	Value T
}

// IdleList is an intrusive doubly-linked FIFO. Nodes remember the list they belong to, so a node can be unlinked
// in O(1) without knowing which list holds it.
type IdleList[T any] struct {
	head, tail *IdleNode[T]
	n          int
}

func (l *IdleList[T]) PushBack(n *IdleNode[T]) {
	if n.list != nil {
		return
	}
	n.list = l
	n.prev = l.tail
	n.next = nil
	if l.tail == nil {
		l.head = n
	} else {
		l.tail.next = n
	}
	l.tail = n
	l.n++
}

// PopFront unlinks and returns the first node, or nil if the list is empty.
func (l *IdleList[T]) PopFront() *IdleNode[T] {
	n := l.head
	if n != nil {
		Unlink(n)
	}
	return n
}

// Unlink removes n from whichever list holds it. It returns false if n is not linked.
func Unlink[T any](n *IdleNode[T]) bool {
	l := n.list
	if l == nil {
		return false
	}
	if n.prev == nil {
		l.head = n.next
	} else {
		n.prev.next = n.next
	}
	if n.next == nil {
		l.tail = n.prev
	} else {
		n.next.prev = n.prev
	}
	n.prev, n.next, n.list = nil, nil, nil
	l.n--
	return true
}

func (l *IdleList[T]) Len() int {
	return l.n
}
