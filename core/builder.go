package core

import (
	"go.opentelemetry.io/otel"

	"github.com/santiagomed/stepseq/logger"
	"github.com/santiagomed/stepseq/utils"
)

// Builder assembles the step arena and the chain, then validates them into a
// Sequencer. Steps added with Append form the chain; steps added with
// Register only run when a conditional activates them.
type Builder struct {
	steps      []Step
	chain      []StepID
	presenter  Presenter
	dispatcher Dispatcher
	publisher  StepPublisher
	logger     logger.Logger
	dedupe     bool
	values     map[string]any
	runID      string
}

type BuilderOption func(*Builder)

func WithPresenter(p Presenter) BuilderOption {
	return func(b *Builder) { b.presenter = p }
}

func WithDispatcher(d Dispatcher) BuilderOption {
	return func(b *Builder) { b.dispatcher = d }
}

func WithPublisher(p StepPublisher) BuilderOption {
	return func(b *Builder) { b.publisher = p }
}

func WithLogger(l logger.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithDedupeActivations makes a run skip any step that already ran in it,
// instead of running a step once per activation.
func WithDedupeActivations(dedupe bool) BuilderOption {
	return func(b *Builder) { b.dedupe = dedupe }
}

// WithValues seeds the shared state before the first step runs.
func WithValues(values map[string]any) BuilderOption {
	return func(b *Builder) {
		for k, v := range values {
			b.values[k] = v
		}
	}
}

// WithRunID sets the run ID reported in logs, spans and step events. An ID
// not produced by utils.NewRunID is replaced with a fresh one.
func WithRunID(id string) BuilderOption {
	return func(b *Builder) { b.runID = id }
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		publisher: &DefaultStepPublisher{},
		logger:    logger.NewNullLogger(),
		values:    make(map[string]any),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register adds step to the arena without placing it in the chain.
func (b *Builder) Register(step Step) StepID {
	b.steps = append(b.steps, step)
	return StepID(len(b.steps) - 1)
}

// Append registers step and places it at the end of the chain.
func (b *Builder) Append(step Step) StepID {
	id := b.Register(step)
	b.chain = append(b.chain, id)
	return id
}

// Step returns the registered step with the given id, or nil.
func (b *Builder) Step(id StepID) Step {
	if id < 0 || int(id) >= len(b.steps) {
		return nil
	}
	return b.steps[id]
}

// Build validates the arena and returns a Sequencer ready to run once.
func (b *Builder) Build() (*Sequencer, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	state := NewState()
	for k, v := range b.values {
		state.Set(k, v)
	}

	return &Sequencer{
		steps:      append([]Step(nil), b.steps...),
		chain:      append([]StepID(nil), b.chain...),
		state:      state,
		presenter:  b.presenter,
		dispatcher: b.dispatcher,
		publisher:  b.publisher,
		logger:     b.logger,
		dedupe:     b.dedupe,
		runID:      utils.EnsureRunID(b.runID),
		tracer:     otel.Tracer("stepseq/core"),
		status:     Idle,
	}, nil
}
