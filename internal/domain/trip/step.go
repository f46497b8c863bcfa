package trip

// Step is one driver-triggered checkpoint call.
type Step int

const (
	StepArrivedAtPickup Step = iota
	StepStartTrip
	StepArrivedAtDrop
	StepEndTrip
)

// Steps lists every step in forward order.
var Steps = [...]Step{StepArrivedAtPickup, StepStartTrip, StepArrivedAtDrop, StepEndTrip}

// Target is the checkpoint a successful step moves the trip to.
func (step Step) Target() Checkpoint {
	switch step {
	case StepArrivedAtPickup:
		return CheckpointArrivedAtPickup
	case StepStartTrip:
		return CheckpointStarted
	case StepArrivedAtDrop:
		return CheckpointArrivedAtDrop
	case StepEndTrip:
		return CheckpointCompleted
	default:
		return CheckpointUnknown
	}
}

func (step Step) Valid() bool {
	return step >= StepArrivedAtPickup && step <= StepEndTrip
}

func (step Step) String() string {
	switch step {
	case StepArrivedAtPickup:
		return "arrived-pickup"
	case StepStartTrip:
		return "start-trip"
	case StepArrivedAtDrop:
		return "arrived-drop"
	case StepEndTrip:
		return "end-trip"
	default:
		return "unknown-step"
	}
}

// Phase of a step result slot.
type Phase string

const (
	PhaseUnset   Phase = "UNSET"
	PhaseLoading Phase = "LOADING"
	PhaseSuccess Phase = "SUCCESS"
	PhaseError   Phase = "ERROR"
)

// Result is the observable value of one step slot.
type Result struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message,omitempty"`
}

func Unset() Result { return Result{Phase: PhaseUnset} }
func Loading() Result { return Result{Phase: PhaseLoading} }
func Success(message string) Result { return Result{Phase: PhaseSuccess, Message: message} }
func Failure(message string) Result { return Result{Phase: PhaseError, Message: message} }

// Terminal reports whether the slot holds a final outcome of an attempt.
func (result Result) Terminal() bool {
	return result.Phase == PhaseSuccess || result.Phase == PhaseError
}
