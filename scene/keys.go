package scene

// Key is a key press the scene reacts to.
type Key int

const (
	KeyOther Key = iota
	KeySpace
	KeyC
	KeyDelete
	KeyBackspace
)

func (k Key) String() string {
	switch k {
	case KeySpace:
		return "space"
	case KeyC:
		return "c"
	case KeyDelete:
		return "delete"
	case KeyBackspace:
		return "backspace"
	default:
		return "other"
	}
}
