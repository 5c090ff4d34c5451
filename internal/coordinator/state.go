package coordinator

import (
	"errors"
	"fmt"

	"scribe/internal/history"
)

// State is the coordinator's current activity.
type State int

const (
	StateIdle State = iota
	StateBootstrapping
	StateFetching
	StateTranscribing
	StateCancelling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBootstrapping:
		return "bootstrapping"
	case StateFetching:
		return "fetching"
	case StateTranscribing:
		return "transcribing"
	case StateCancelling:
		return "cancelling"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrBusy is returned when a task is already running.
var ErrBusy = errors.New("another task is already running")

// Final console lines.
const (
	MsgCompleted      = "Process completed successfully."
	MsgStopped        = "Process stopped by user."
	MsgSetupCompleted = "Setup completed successfully."
	MsgSetupCancelled = "Setup cancelled by user."
)

// Outcome is the terminal result of one task.
type Outcome struct {
	Status history.Status
	// Message is the final console line.
	Message string
	// Err is set when Status is failed.
	Err      error
	ExitCode *int
	// Input is the file that was transcribed, when one was reached.
	Input   string
	Outputs []string
}

// Succeeded reports whether the task completed.
func (o Outcome) Succeeded() bool { return o.Status == history.StatusSucceeded }

// Cancelled reports whether the user stopped the task.
func (o Outcome) Cancelled() bool { return o.Status == history.StatusCancelled }
