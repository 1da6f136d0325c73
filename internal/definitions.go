package internal

// EventMask is a bitmask of the readiness conditions a descriptor can be watched for.
type EventMask uint8

const (
	Readable EventMask = 1 << iota
	Writable

	NoEvents  EventMask = 0
	AllEvents           = Readable | Writable
)

func (m EventMask) Valid() bool {
	return m&^AllEvents == 0
}

func (m EventMask) String() string {
	switch m {
	case NoEvents:
		return "-"
	case Readable:
		return "r"
	case Writable:
		return "w"
	case AllEvents:
		return "rw"
	default:
		return "invalid"
	}
}

// Interest is an entry of the desired list: a registered descriptor and the events it is watched for.
type Interest struct {
	Fd   int
	Mask EventMask
}

// Change is the net edit of a descriptor's interest since the last flush.
//
// Old is captured on the first edit after a flush and never touched again until the next flush. New is
// overwritten by every subsequent edit.
type Change struct {
	Fd  int
	Old EventMask
	New EventMask
}

// Ready is a readiness notification produced by a backend.
type Ready struct {
	Fd   int
	Mask EventMask
}
