package flyweight

// State is the binding state of a record view. Mutability is tracked
// separately; a KeyLocked record may be mutable or not.
type State uint8

const (
	// Unbound records have no buffer; reads return zero values and writes fail
	Unbound State = iota
	// Bound records have a buffer and offset; key fields are writable
	Bound
	// KeyLocked records reject writes to key fields until the next Bind
	KeyLocked
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Bound:
		return "bound"
	case KeyLocked:
		return "key-locked"
	default:
		return "unknown"
	}
}
