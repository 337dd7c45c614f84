package core

import "time"

// StepEvent describes a step as it starts or finishes.
type StepEvent struct {
	RunID    string
	ID       StepID
	Title    string
	Affinity ExecutionContext
	// Outcome and Duration are only set once the step has finished.
	Outcome  OutcomeKind
	Duration time.Duration
}

type StepPublisher interface {
	StepStarted(ev StepEvent)
	PublishStep(ev StepEvent)
	Error(ev StepEvent, err error)
}

type DefaultStepPublisher struct{}

func (p *DefaultStepPublisher) StepStarted(ev StepEvent) {}

func (p *DefaultStepPublisher) PublishStep(ev StepEvent) {}

func (p *DefaultStepPublisher) Error(ev StepEvent, err error) {}
