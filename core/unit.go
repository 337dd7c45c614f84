package core

import (
	"context"
	"errors"
)

// UnitStep runs an Action.
type UnitStep struct {
	title    string
	action   Action
	affinity ExecutionContext
}

func NewUnitStep(title string, action Action, opts ...Option) *UnitStep {
	o := applyOptions(opts)
	return &UnitStep{
		title:    title,
		action:   action,
		affinity: o.affinity,
	}
}

func (s *UnitStep) Title() string              { return s.title }
func (s *UnitStep) Affinity() ExecutionContext { return s.affinity }

func (s *UnitStep) Run(ctx context.Context, env RunEnv) Outcome {
	if s.action == nil {
		return Continue()
	}
	err := s.action(ctx, env.State)
	switch {
	case err == nil:
		return Continue()
	case errors.Is(err, ErrCancelled):
		return Cancel()
	default:
		return Fail(&ActionFailedError{Title: s.title, Err: err})
	}
}
