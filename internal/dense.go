package internal

// InterestList is the dense list of desired descriptors.
//
// Every entry is owned by a registration which stores the entry's position. The list keeps a pointer to that
// position so that a swap-with-last removal can patch the index of the entry that moved.
type InterestList struct {
	entries []Interest
	owners  []*int
}

func NewInterestList(capacity int) *InterestList {
	return &InterestList{
		entries: make([]Interest, 0, capacity),
		owners:  make([]*int, 0, capacity),
	}
}

// Set installs or updates the interest of fd. ix is the owner's index, -1 if the owner is not in the list.
func (l *InterestList) Set(fd int, mask EventMask, ix *int) {
	if *ix >= 0 {
		l.entries[*ix].Mask = mask
		return
	}
	*ix = len(l.entries)
	l.entries = append(l.entries, Interest{Fd: fd, Mask: mask})
	l.owners = append(l.owners, ix)
}

// Remove drops the entry at *ix, if any, and sets *ix to -1.
func (l *InterestList) Remove(ix *int) {
	i := *ix
	if i < 0 {
		return
	}
	last := len(l.entries) - 1
	if i != last {
		l.entries[i] = l.entries[last]
		l.owners[i] = l.owners[last]
		*l.owners[i] = i
	}
	l.owners[last] = nil
	l.entries = l.entries[:last]
	l.owners = l.owners[:last]
	*ix = -1
}

func (l *InterestList) Entries() []Interest {
	return l.entries
}

func (l *InterestList) Len() int {
	return len(l.entries)
}

func (l *InterestList) Reset() {
	for i := range l.owners {
		*l.owners[i] = -1
		l.owners[i] = nil
	}
	l.entries = l.entries[:0]
	l.owners = l.owners[:0]
}

// ChangeList coalesces interest edits into at most one Change per descriptor between two flushes.
type ChangeList struct {
	changes []Change
	owners  []*int
}

func NewChangeList(capacity int) *ChangeList {
	return &ChangeList{
		changes: make([]Change, 0, capacity),
		owners:  make([]*int, 0, capacity),
	}
}

// Record notes that fd's mask went from `from` to `to`. If fd already has a record in this window, only its
// New mask is updated.
func (l *ChangeList) Record(fd int, from, to EventMask, ix *int) {
	if *ix >= 0 {
		l.changes[*ix].New = to
		return
	}
	*ix = len(l.changes)
	l.changes = append(l.changes, Change{Fd: fd, Old: from, New: to})
	l.owners = append(l.owners, ix)
}

// Remove drops the record at *ix, if any, and sets *ix to -1.
func (l *ChangeList) Remove(ix *int) {
	i := *ix
	if i < 0 {
		return
	}
	last := len(l.changes) - 1
	if i != last {
		l.changes[i] = l.changes[last]
		l.owners[i] = l.owners[last]
		*l.owners[i] = i
	}
	l.owners[last] = nil
	l.changes = l.changes[:last]
	l.owners = l.owners[:last]
	*ix = -1
}

func (l *ChangeList) Changes() []Change {
	return l.changes
}

func (l *ChangeList) Len() int {
	return len(l.changes)
}

// Flush forgets every record, resetting the owners' indices.
func (l *ChangeList) Flush() {
	for i := range l.owners {
		*l.owners[i] = -1
		l.owners[i] = nil
	}
	l.changes = l.changes[:0]
	l.owners = l.owners[:0]
}
