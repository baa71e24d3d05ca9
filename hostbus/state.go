package hostbus

// State is the lifecycle state of one bus instance.
type State uint32

const (
	Uninitialized State = iota // no hardware access permitted
	Ready                      // hardware up, interrupts disarmed
	Active                     // hardware up, interrupts armed; notifications accepted
	ShuttingDown               // deinit in progress; notifications rejected
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Active:
		return "active"
	case ShuttingDown:
		return "shutting_down"
	default:
		return "unknown"
	}
}

// Initialized reports whether the platform bus hardware is up.
func (s State) Initialized() bool { return s == Ready || s == Active }

// Transition is reported to Config.OnTransition after each committed change.
type Transition struct {
	Bus  string
	From State
	To   State
	TSms int64
}
