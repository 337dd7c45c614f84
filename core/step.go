package core

import (
	"context"
	"fmt"
)

// StepID identifies a step within the sequencer that owns it.
type StepID int

// ExecutionContext names where a step must run.
type ExecutionContext int

const (
	// Worker is the goroutine driving the sequencer.
	Worker ExecutionContext = iota
	// Presentation is the UI-affine context reached through a Dispatcher.
	Presentation
)

func (c ExecutionContext) String() string {
	switch c {
	case Worker:
		return "worker"
	case Presentation:
		return "presentation"
	default:
		return fmt.Sprintf("ExecutionContext(%d)", int(c))
	}
}

// RunEnv is what a step receives when it runs.
type RunEnv struct {
	State     *State
	Presenter Presenter
}

// Step is a single unit of a chain. Steps never call other steps; what runs
// next is decided by the Outcome they return.
type Step interface {
	Title() string
	Affinity() ExecutionContext
	Run(ctx context.Context, env RunEnv) Outcome
}

// Action is the work performed by a UnitStep. Returning ErrCancelled cancels
// the run; any other error fails it.
type Action func(ctx context.Context, state *State) error

// Predicate decides whether a ConditionalStep activates its predicated steps.
type Predicate func(ctx context.Context, state *State) (bool, error)

type OutcomeKind int

const (
	OutcomeContinue OutcomeKind = iota
	OutcomeBranch
	OutcomeCancel
	OutcomeFail
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeBranch:
		return "branch"
	case OutcomeCancel:
		return "cancel"
	case OutcomeFail:
		return "fail"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", int(k))
	}
}

// Outcome is what a step reports back to the sequencer.
type Outcome struct {
	Kind      OutcomeKind
	Activated []StepID
	Err       error
}

func Continue() Outcome {
	return Outcome{Kind: OutcomeContinue}
}

// Branch activates steps, in order, ahead of the rest of the chain.
func Branch(steps ...StepID) Outcome {
	return Outcome{Kind: OutcomeBranch, Activated: steps}
}

func Cancel() Outcome {
	return Outcome{Kind: OutcomeCancel}
}

func Fail(err error) Outcome {
	return Outcome{Kind: OutcomeFail, Err: err}
}

// Option configures a step at construction.
type Option func(*stepOptions)

type stepOptions struct {
	affinity         ExecutionContext
	errorIfCancelled bool
}

// OnPresentation makes a unit or conditional step run on the presentation
// context. Input steps always do.
func OnPresentation() Option {
	return func(o *stepOptions) {
		o.affinity = Presentation
	}
}

// ErrorIfCancelled makes an input step fail the run when the user cancels.
func ErrorIfCancelled() Option {
	return func(o *stepOptions) {
		o.errorIfCancelled = true
	}
}

func applyOptions(opts []Option) stepOptions {
	var o stepOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
