package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/santiagomed/stepseq/logger"
)

// RunState is the state of a Sequencer's single run.
type RunState int

const (
	Idle RunState = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s RunState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// Terminal reports whether the run is over.
func (s RunState) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

// Sequencer drives one run over a chain of steps. Steps execute strictly one
// at a time; activated branches run before the remainder of the chain.
type Sequencer struct {
	steps      []Step
	chain      []StepID
	state      *State
	presenter  Presenter
	dispatcher Dispatcher
	publisher  StepPublisher
	logger     logger.Logger
	dedupe     bool
	runID      string
	tracer     trace.Tracer

	mu      sync.Mutex
	status  RunState
	visited []StepID
	err     error
}

func (s *Sequencer) RunID() string { return s.runID }

// State returns the shared state. Read it only when no run is in progress.
func (s *Sequencer) State() *State { return s.state }

// Chain returns the ids of the top-level chain in order.
func (s *Sequencer) Chain() []StepID { return append([]StepID(nil), s.chain...) }

// Step returns the step with the given id, or nil.
func (s *Sequencer) Step(id StepID) Step {
	if id < 0 || int(id) >= len(s.steps) {
		return nil
	}
	return s.steps[id]
}

func (s *Sequencer) Status() RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Trace returns the ids of the steps executed so far, in execution order.
func (s *Sequencer) Trace() []StepID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StepID(nil), s.visited...)
}

// Err returns the error that ended the run, nil while running or on success.
func (s *Sequencer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Run executes the chain. It returns nil on Completed, an error wrapping
// ErrCancelled on Cancelled, and the failing step's error on Failed. A
// sequencer runs at most once. ctx is checked between steps only; a step that
// has started always runs to completion.
func (s *Sequencer) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.status != Idle {
		s.mu.Unlock()
		return ErrAlreadyRun
	}
	s.status = Running
	s.mu.Unlock()

	ctx, span := s.tracer.Start(ctx, "sequencer.run", trace.WithAttributes(
		attribute.String("run_id", s.runID),
		attribute.Int("chain.length", len(s.chain)),
	))
	defer span.End()

	log := s.logger.WithField("run_id", s.runID)
	log.Info("Starting sequencer run")

	queue := append([]StepID(nil), s.chain...)
	ran := make(map[StepID]struct{})

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			log.Info("Sequencer run cancelled")
			return s.finish(span, Cancelled, fmt.Errorf("%w: %w", ErrCancelled, err))
		}

		id := queue[0]
		queue = queue[1:]

		if s.dedupe {
			if _, ok := ran[id]; ok {
				log.Debug(fmt.Sprintf("Skipping step %d, already ran in this run", id))
				continue
			}
		}
		ran[id] = struct{}{}

		outcome := s.runStep(ctx, log, id)

		switch outcome.Kind {
		case OutcomeContinue:
		case OutcomeBranch:
			for _, next := range outcome.Activated {
				if s.Step(next) == nil {
					err := &ActionFailedError{StepID: id, Title: s.steps[id].Title(), Err: configErrorf("activated step %d was never registered", next)}
					return s.finish(span, Failed, err)
				}
			}
			if len(outcome.Activated) > 0 {
				log.Info(fmt.Sprintf("Step %d activated steps %s", id, formatIDs(outcome.Activated)))
			}
			queue = append(append([]StepID(nil), outcome.Activated...), queue...)
		case OutcomeCancel:
			log.Info(fmt.Sprintf("Step %d cancelled the run", id))
			return s.finish(span, Cancelled, ErrCancelled)
		case OutcomeFail:
			err := outcome.Err
			if err == nil {
				err = &ActionFailedError{StepID: id, Title: s.steps[id].Title(), Err: errors.New("step reported failure")}
			}
			log.Error(fmt.Sprintf("Step %d failed: %v", id, err))
			return s.finish(span, Failed, err)
		default:
			return s.finish(span, Failed, fmt.Errorf("step %d returned unknown outcome %v", id, outcome.Kind))
		}

		if len(queue) > 0 {
			log.Debug(fmt.Sprintf("Transitioning from step %d to step %d", id, queue[0]))
		}
	}

	log.Info("Sequencer run completed")
	log.Debug(fmt.Sprintf("Final state keys: %v", s.state.Keys()))
	return s.finish(span, Completed, nil)
}

func (s *Sequencer) runStep(ctx context.Context, log logger.Logger, id StepID) Outcome {
	step := s.steps[id]
	ev := StepEvent{
		RunID:    s.runID,
		ID:       id,
		Title:    step.Title(),
		Affinity: step.Affinity(),
	}

	ctx, span := s.tracer.Start(ctx, "step", trace.WithAttributes(
		attribute.Int("step.id", int(id)),
		attribute.String("step.title", ev.Title),
		attribute.String("step.affinity", ev.Affinity.String()),
	))
	defer span.End()

	log.Info(fmt.Sprintf("Attempting to execute step %d: %s", id, ev.Title))
	s.publisher.StepStarted(ev)

	s.mu.Lock()
	s.visited = append(s.visited, id)
	s.mu.Unlock()

	env := RunEnv{State: s.state, Presenter: s.presenter}
	startTime := time.Now()

	var outcome Outcome
	run := func() {
		outcome = step.Run(ctx, env)
	}
	if ev.Affinity == Presentation {
		if err := s.dispatcher.Dispatch(ctx, run); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				outcome = Cancel()
			} else {
				outcome = Fail(&ActionFailedError{Title: ev.Title, Err: fmt.Errorf("dispatch to presentation context: %w", err)})
			}
		}
	} else {
		run()
	}

	var failed *ActionFailedError
	if errors.As(outcome.Err, &failed) && failed.StepID == 0 {
		failed.StepID = id
	}

	ev.Outcome = outcome.Kind
	ev.Duration = time.Since(startTime)
	span.SetAttributes(attribute.String("step.outcome", outcome.Kind.String()))

	if outcome.Kind == OutcomeFail {
		if outcome.Err != nil {
			span.RecordError(outcome.Err)
			span.SetStatus(codes.Error, strings.TrimSpace(outcome.Err.Error()))
		}
		s.publisher.Error(ev, outcome.Err)
		return outcome
	}

	log.Info(fmt.Sprintf("Step %d completed in %v with outcome %s", id, ev.Duration, outcome.Kind))
	s.publisher.PublishStep(ev)
	return outcome
}

func (s *Sequencer) finish(span trace.Span, status RunState, err error) error {
	s.mu.Lock()
	s.status = status
	s.err = err
	s.mu.Unlock()

	span.SetAttributes(attribute.String("run.status", status.String()))
	if status == Failed && err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	return err
}

func formatIDs(ids []StepID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(int(id))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
