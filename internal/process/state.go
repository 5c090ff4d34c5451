package process

import "fmt"

// State is the lifecycle position of a Session.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateStopping
	StateExited
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateExited:
		return "exited"
	case StateCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome classifies how a session ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeStopped
	OutcomeFailed
	OutcomeCrashed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeStopped:
		return "stopped"
	case OutcomeFailed:
		return "failed"
	case OutcomeCrashed:
		return "crashed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// EventKind distinguishes session events.
type EventKind int

const (
	EventStdout EventKind = iota
	EventStderr
	EventTerminated
)

// Event is delivered on Session.Events. Data is set for stdout and stderr
// chunks; Result is set on the single final EventTerminated.
type Event struct {
	Kind   EventKind
	Data   []byte
	Result *Result
}

// Result summarizes a finished session.
type Result struct {
	Outcome Outcome
	// ExitCode is the process exit status, or -1 when it was killed by a signal.
	ExitCode          int
	Crashed           bool
	Signal            string
	SuccessMarkerSeen bool
	RequestedStop     bool
}

// classify applies the outcome precedence: a requested stop wins, then a
// success marker (even over a crash), then a clean exit.
func classify(requestedStop, markerSeen, signaled bool, exitCode int) Outcome {
	switch {
	case requestedStop:
		return OutcomeStopped
	case markerSeen:
		return OutcomeSuccess
	case !signaled && exitCode == 0:
		return OutcomeSuccess
	case signaled:
		return OutcomeCrashed
	default:
		return OutcomeFailed
	}
}
