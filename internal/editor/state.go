package editor

// State is the interaction state of a single field.
type State int

const (
	StateIdle State = iota
	StateSelected
	StateDragging
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateSelected:
		return "selected"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	default:
		return "idle"
	}
}
