package reactoropts

type optionMaxDescriptor struct {
	v int
}

// MaxDescriptor bounds the descriptors accepted by the array store: descriptors must be in [0, v).
func MaxDescriptor(v int) Option {
	return &optionMaxDescriptor{
		v: v,
	}
}

func (o *optionMaxDescriptor) Type() OptionType {
	return TypeMaxDescriptor
}

func (o *optionMaxDescriptor) Value() interface{} {
	return o.v
}

type optionInitialCapacity struct {
	v int
}

// InitialCapacity presizes the descriptor tables of a Dispatcher.
func InitialCapacity(v int) Option {
	return &optionInitialCapacity{
		v: v,
	}
}

func (o *optionInitialCapacity) Type() OptionType {
	return TypeInitialCapacity
}

func (o *optionInitialCapacity) Value() interface{} {
	return o.v
}
