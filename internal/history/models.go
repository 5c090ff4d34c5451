package history

import "time"

// Kind identifies the task type of a run.
type Kind string

const (
	KindBootstrap  Kind = "bootstrap"
	KindTranscribe Kind = "transcribe"
	KindFetch      Kind = "fetch"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the run has finished.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusCancelled || s == StatusFailed
}

// Run is one recorded task.
type Run struct {
	ID     string
	Kind   Kind
	Input  string
	Status Status
	// ExitCode is set for transcription runs that reached process exit.
	ExitCode   *int
	Detail     string
	Output     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the elapsed time of a finished run, or zero.
func (r *Run) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
