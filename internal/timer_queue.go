package internal

import "github.com/google/btree"

// Deadline is an entry of a TimerQueue: an absolute expiry and the value to hand back once it is due.
//
// Seq is assigned by the queue on Push and breaks ties between equal expiries, so entries form a strict total
// order on (Sec, Nsec, Seq). Equal expiries therefore pop in insertion order.
type Deadline[T any] struct {
	Sec   int64
	Nsec  int64
	Seq   uint64
	Value T

	queued bool
}

// Due returns true if the deadline is at or before (sec, nsec).
func (d *Deadline[T]) Due(sec, nsec int64) bool {
	return d.Sec < sec || (d.Sec == sec && d.Nsec <= nsec)
}

func deadlineLess[T any](a, b *Deadline[T]) bool {
	if a.Sec != b.Sec {
		return a.Sec < b.Sec
	}
	if a.Nsec != b.Nsec {
		return a.Nsec < b.Nsec
	}
	return a.Seq < b.Seq
}

// TimerQueue orders deadlines by expiry. Push, Remove and PopDue are O(log n), Min is O(log n) on the tree height.
type TimerQueue[T any] struct {
	tree *btree.BTreeG[*Deadline[T]]
	seq  uint64
}

func NewTimerQueue[T any]() *TimerQueue[T] {
	return &TimerQueue[T]{
		tree: btree.NewG(treeDegree, deadlineLess[T]),
	}
}

// Push inserts d. A deadline that is already queued is left untouched.
func (q *TimerQueue[T]) Push(d *Deadline[T]) {
	if d.queued {
		return
	}
	q.seq++
	d.Seq = q.seq
	d.queued = true
	q.tree.ReplaceOrInsert(d)
}

// Remove unlinks d, returning false if it was not queued.
func (q *TimerQueue[T]) Remove(d *Deadline[T]) bool {
	if !d.queued {
		return false
	}
	q.tree.Delete(d)
	d.queued = false
	return true
}

// Min returns the earliest deadline without removing it, or nil if the queue is empty.
func (q *TimerQueue[T]) Min() *Deadline[T] {
	d, ok := q.tree.Min()
	if !ok {
		return nil
	}
	return d
}

// PopDue removes and returns the earliest deadline if it is due at (sec, nsec), nil otherwise.
func (q *TimerQueue[T]) PopDue(sec, nsec int64) *Deadline[T] {
	d := q.Min()
	if d == nil || !d.Due(sec, nsec) {
		return nil
	}
	q.tree.DeleteMin()
	d.queued = false
	return d
}

func (q *TimerQueue[T]) Len() int {
	return q.tree.Len()
}

// Ascend visits queued deadlines in expiry order until fn returns false.
func (q *TimerQueue[T]) Ascend(fn func(d *Deadline[T]) bool) {
	q.tree.Ascend(fn)
}

// Clear unlinks every deadline.
func (q *TimerQueue[T]) Clear() {
	q.tree.Ascend(func(d *Deadline[T]) bool {
		d.queued = false
		return true
	})
	q.tree.Clear(false)
}
