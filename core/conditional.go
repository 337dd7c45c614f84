package core

import "context"

// ConditionalStep evaluates a predicate and, when it holds, activates its
// predicated steps. When it does not hold the chain simply continues.
type ConditionalStep struct {
	title      string
	predicate  Predicate
	affinity   ExecutionContext
	result     bool
	predicated []StepID
	members    map[StepID]struct{}
}

func NewConditionalStep(title string, predicate Predicate, opts ...Option) *ConditionalStep {
	o := applyOptions(opts)
	return &ConditionalStep{
		title:     title,
		predicate: predicate,
		affinity:  o.affinity,
		members:   make(map[StepID]struct{}),
	}
}

func (s *ConditionalStep) Title() string              { return s.title }
func (s *ConditionalStep) Affinity() ExecutionContext { return s.affinity }

// AddPredicatedStep adds id to the set activated on a true result. Adding the
// same id again has no effect; activation order is first insertion order.
func (s *ConditionalStep) AddPredicatedStep(id StepID) {
	if _, ok := s.members[id]; ok {
		return
	}
	s.members[id] = struct{}{}
	s.predicated = append(s.predicated, id)
}

// PredicatedSteps returns a copy of the predicated set in activation order.
func (s *ConditionalStep) PredicatedSteps() []StepID {
	return append([]StepID(nil), s.predicated...)
}

// Result is the value of the last evaluation, false before the first.
func (s *ConditionalStep) Result() bool {
	return s.result
}

func (s *ConditionalStep) Run(ctx context.Context, env RunEnv) Outcome {
	if s.predicate == nil {
		s.result = false
		return Continue()
	}
	ok, err := s.predicate(ctx, env.State)
	if err != nil {
		s.result = false
		return Fail(&ActionFailedError{Title: s.title, Err: err})
	}
	s.result = ok
	if !ok {
		return Continue()
	}
	return Branch(s.PredicatedSteps()...)
}
