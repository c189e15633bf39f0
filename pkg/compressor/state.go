package compressor

// State is the lifecycle state of a Worker.
//
//	Uninitialized -> Running -> Stopping -> Stopped
//	Uninitialized -> Stopped
//
// There is no transition out of Stopped.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateStopping
	StateStopped
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
