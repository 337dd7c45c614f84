package core

import (
	"context"
	"errors"
)

// inputStep holds what prompt and path selection steps share: the output key,
// the cancellation policy and the widget handle.
type inputStep struct {
	title            string
	key              string
	errorIfCancelled bool
	widget           any
}

func (s *inputStep) Title() string { return s.title }

// Affinity is always Presentation: input steps touch presentation widgets.
func (s *inputStep) Affinity() ExecutionContext { return Presentation }

// Key is the state key the accepted value is written to.
func (s *inputStep) Key() string { return s.key }

func (s *inputStep) ErrorIfCancelled() bool { return s.errorIfCancelled }

// Widget returns the handle of the input surface, nil until first realized.
func (s *inputStep) Widget() any { return s.widget }

func (s *inputStep) complete(env RunEnv, resp Response, err error) Outcome {
	if err != nil {
		return Fail(&ActionFailedError{Title: s.title, Err: err})
	}
	if s.widget == nil && resp.Widget != nil {
		s.widget = resp.Widget
	}
	if !resp.Accepted {
		if s.errorIfCancelled {
			return Fail(ErrCancelled)
		}
		return Continue()
	}
	env.State.Set(s.key, resp.Value)
	return Continue()
}

func (s *inputStep) presenter(env RunEnv) (Presenter, error) {
	if env.Presenter == nil {
		return nil, errors.New("no presenter available for input step")
	}
	return env.Presenter, nil
}

// PromptStep asks for a line of text.
type PromptStep struct {
	inputStep
	initial string
}

// NewPromptStep builds a text prompt pre-filled with initial. Cancelling
// leaves key untouched unless ErrorIfCancelled is given.
func NewPromptStep(title, initial, key string, opts ...Option) *PromptStep {
	o := applyOptions(opts)
	return &PromptStep{
		inputStep: inputStep{
			title:            title,
			key:              key,
			errorIfCancelled: o.errorIfCancelled,
		},
		initial: initial,
	}
}

func (s *PromptStep) Initial() string { return s.initial }

func (s *PromptStep) Run(ctx context.Context, env RunEnv) Outcome {
	p, err := s.presenter(env)
	if err != nil {
		return s.complete(env, Response{}, err)
	}
	resp, err := p.RequestTextInput(ctx, s.title, s.initial)
	return s.complete(env, resp, err)
}

// PathSelectionStep asks for a file-system path.
type PathSelectionStep struct {
	inputStep
	allowedTypes     []string
	allowDirectories bool
}

func NewPathSelectionStep(title, key string, allowedTypes []string, allowDirectories, errorIfCancelled bool) *PathSelectionStep {
	return &PathSelectionStep{
		inputStep: inputStep{
			title:            title,
			key:              key,
			errorIfCancelled: errorIfCancelled,
		},
		allowedTypes:     append([]string(nil), allowedTypes...),
		allowDirectories: allowDirectories,
	}
}

func (s *PathSelectionStep) Request() PathRequest {
	return PathRequest{
		Title:            s.title,
		AllowedTypes:     append([]string(nil), s.allowedTypes...),
		AllowDirectories: s.allowDirectories,
	}
}

func (s *PathSelectionStep) Run(ctx context.Context, env RunEnv) Outcome {
	p, err := s.presenter(env)
	if err != nil {
		return s.complete(env, Response{}, err)
	}
	resp, err := p.RequestPathSelection(ctx, s.Request())
	return s.complete(env, resp, err)
}
