package reactoropts

// StoreKind selects the descriptor side table of a Dispatcher.
type StoreKind uint8

const (
	// StoreDefault picks the array on unix and the tree on windows.
	StoreDefault StoreKind = iota

	// StoreArray is a dense array indexed by descriptor. Best for small integer descriptors.
	StoreArray

	// StoreTree is a balanced tree keyed by descriptor. Best for sparse or opaque handles.
	StoreTree
)

func (k StoreKind) String() string {
	switch k {
	case StoreDefault:
		return "default"
	case StoreArray:
		return "array"
	case StoreTree:
		return "tree"
	default:
		return "store_unknown"
	}
}

type optionStore struct {
	v StoreKind
}

func Store(v StoreKind) Option {
	return &optionStore{
		v: v,
	}
}

func (o *optionStore) Type() OptionType {
	return TypeStore
}

func (o *optionStore) Value() interface{} {
	return o.v
}
