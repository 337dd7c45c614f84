package core

import (
	"errors"
	"fmt"
)

var (
	// ErrCancelled reports that the user declined to provide input, or that an
	// action asked for the run to be cancelled.
	ErrCancelled = errors.New("cancelled")

	// ErrAlreadyRun is returned when Run is called on a sequencer that has
	// already been started.
	ErrAlreadyRun = errors.New("sequencer has already been run")

	// ErrQueueStopped is returned by MainQueue.Dispatch after Stop.
	ErrQueueStopped = errors.New("main queue stopped")
)

// ActionFailedError wraps an error reported by an action, a predicate or the
// presentation collaborator while a step was running.
type ActionFailedError struct {
	StepID StepID
	Title  string
	Err    error
}

func (e *ActionFailedError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.StepID, e.Title, e.Err)
}

func (e *ActionFailedError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a chain that cannot be run as built. It is
// returned by Builder.Build, before any step executes.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid step chain: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}
