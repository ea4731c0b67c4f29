package train

// State is the lifecycle position of a Service.
type State int

const (
	// Unconfigured is the state of a zero Service.
	Unconfigured State = iota
	// Configured means options are set and no index has been trained under them.
	Configured
	// Trained means the last training run or import succeeded.
	Trained
)

func (s State) String() string {
	switch s {
	case Configured:
		return "configured"
	case Trained:
		return "trained"
	default:
		return "unconfigured"
	}
}
