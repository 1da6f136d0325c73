package reactoropts

import "fmt"

type OptionType uint8

type Option interface {
	Type() OptionType
	Value() interface{}
}

const (
	TypeStore OptionType = iota
	TypeClock
	TypeLogger
	TypeStepHistogram
	TypeMaxDescriptor
	TypeInitialCapacity
	MaxOption
)

func (t OptionType) String() string {
	switch t {
	case TypeStore:
		return "store"
	case TypeClock:
		return "clock"
	case TypeLogger:
		return "logger"
	case TypeStepHistogram:
		return "step_histogram"
	case TypeMaxDescriptor:
		return "max_descriptor"
	case TypeInitialCapacity:
		return "initial_capacity"
	default:
		panic(fmt.Errorf("invalid option %d", t))
	}
}

// AddOption replaces the option of the same type in opts, or appends add if there is none.
func AddOption(add Option, opts []Option) []Option {
	for i, cur := range opts {
		if cur != nil && cur.Type() == add.Type() {
			opts[i] = add
			return opts
		}
	}
	opts = append(opts, add)
	return opts
}

func DelOption(del OptionType, opts []Option) []Option {
	for i := 0; i < len(opts); i++ {
		if opts[i] != nil && opts[i].Type() == del {
			return append(opts[:i], opts[i+1:]...)
		}
	}
	return opts
}
