package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPresenter is a mock implementation of the presentation collaborator
type MockPresenter struct {
	mock.Mock
}

func (m *MockPresenter) RequestTextInput(ctx context.Context, title, initial string) (Response, error) {
	args := m.Called(title, initial)
	return args.Get(0).(Response), args.Error(1)
}

func (m *MockPresenter) RequestPathSelection(ctx context.Context, req PathRequest) (Response, error) {
	args := m.Called(req)
	return args.Get(0).(Response), args.Error(1)
}

// recorder collects the titles of the unit steps it creates, in run order.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) step(title string, opts ...Option) *UnitStep {
	return NewUnitStep(title, func(ctx context.Context, state *State) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.order = append(r.order, title)
		return nil
	}, opts...)
}

func (r *recorder) titles() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type countingDispatcher struct {
	calls int
}

func (d *countingDispatcher) Dispatch(ctx context.Context, fn func()) error {
	d.calls++
	fn()
	return nil
}

func always(v bool) Predicate {
	return func(ctx context.Context, state *State) (bool, error) {
		return v, nil
	}
}

func TestSequencer_LinearChainRunsInOrder(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder()
	b.Append(rec.step("one"))
	b.Append(rec.step("two"))
	b.Append(rec.step("three"))

	seq, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, Idle, seq.Status())

	err = seq.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, Completed, seq.Status())
	assert.Equal(t, []string{"one", "two", "three"}, rec.titles())
	assert.Equal(t, []StepID{0, 1, 2}, seq.Trace())
}

func TestSequencer_EmptyChainCompletes(t *testing.T) {
	seq, err := NewBuilder().Build()
	require.NoError(t, err)

	assert.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, Completed, seq.Status())
	assert.Empty(t, seq.Trace())
}

func TestSequencer_FailStopsRunAndKeepsState(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("boom")

	b := NewBuilder()
	b.Append(NewUnitStep("write", func(ctx context.Context, state *State) error {
		state.Set("written", true)
		return nil
	}))
	failing := b.Append(NewUnitStep("explode", func(ctx context.Context, state *State) error {
		return boom
	}))
	b.Append(rec.step("never"))

	seq, err := b.Build()
	require.NoError(t, err)

	err = seq.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var failed *ActionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, failing, failed.StepID)
	assert.Equal(t, "explode", failed.Title)

	assert.Equal(t, Failed, seq.Status())
	assert.Equal(t, err, seq.Err())
	assert.Empty(t, rec.titles())
	assert.Equal(t, true, seq.State().Get("written"))
}

func TestSequencer_ActionCancelsRun(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder()
	b.Append(NewUnitStep("stop", func(ctx context.Context, state *State) error {
		return ErrCancelled
	}))
	b.Append(rec.step("never"))

	seq, err := b.Build()
	require.NoError(t, err)

	err = seq.Run(context.Background())
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, Cancelled, seq.Status())
	assert.Empty(t, rec.titles())
}

func TestSequencer_RunsOnlyOnce(t *testing.T) {
	seq, err := NewBuilder().Build()
	require.NoError(t, err)

	require.NoError(t, seq.Run(context.Background()))
	assert.ErrorIs(t, seq.Run(context.Background()), ErrAlreadyRun)
}

func TestSequencer_ContextCheckedBetweenSteps(t *testing.T) {
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBuilder()
	b.Append(NewUnitStep("cancel context", func(stepCtx context.Context, state *State) error {
		cancel()
		state.Set("finished", true)
		return nil
	}))
	b.Append(rec.step("never"))

	seq, err := b.Build()
	require.NoError(t, err)

	err = seq.Run(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Cancelled, seq.Status())
	assert.Equal(t, true, seq.State().Get("finished"))
	assert.Empty(t, rec.titles())
}

func TestConditional_TrueActivatesEachPredicatedStepOnce(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder()

	a := b.Register(rec.step("A"))
	c := b.Register(rec.step("C"))
	cond := NewConditionalStep("check", always(true))
	cond.AddPredicatedStep(a)
	cond.AddPredicatedStep(c)
	cond.AddPredicatedStep(a)
	b.Append(cond)
	b.Append(rec.step("B"))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.True(t, cond.Result())
	assert.Equal(t, []StepID{a, c}, cond.PredicatedSteps())
	assert.Equal(t, []string{"A", "C", "B"}, rec.titles())
}

func TestConditional_FalseFallsThrough(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder()

	a := b.Register(rec.step("A"))
	cond := NewConditionalStep("check", always(false))
	cond.AddPredicatedStep(a)
	b.Append(cond)
	b.Append(rec.step("B"))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.False(t, cond.Result())
	assert.Equal(t, []string{"B"}, rec.titles())
}

func TestConditional_EmptyBranchIsNoOp(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder()
	cond := NewConditionalStep("check", always(true))
	b.Append(cond)
	b.Append(rec.step("B"))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.True(t, cond.Result())
	assert.Equal(t, []string{"B"}, rec.titles())
}

func TestConditional_PredicateErrorFailsRun(t *testing.T) {
	b := NewBuilder()
	b.Append(NewConditionalStep("broken", func(ctx context.Context, state *State) (bool, error) {
		return false, errors.New("cannot decide")
	}))

	seq, err := b.Build()
	require.NoError(t, err)

	err = seq.Run(context.Background())
	var failed *ActionFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "broken", failed.Title)
	assert.Equal(t, Failed, seq.Status())
}

func TestSequencer_NestedBranchesRunDepthFirst(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder()

	inner := b.Register(rec.step("inner"))
	innerCond := NewConditionalStep("inner check", always(true))
	innerCond.AddPredicatedStep(inner)
	innerCondID := b.Register(innerCond)
	sibling := b.Register(rec.step("sibling"))

	outer := NewConditionalStep("outer check", always(true))
	outer.AddPredicatedStep(innerCondID)
	outer.AddPredicatedStep(sibling)
	b.Append(outer)
	b.Append(rec.step("tail"))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.Equal(t, []string{"inner", "sibling", "tail"}, rec.titles())
}

func TestSequencer_StepReachableFromTwoBranchesRunsTwice(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder()

	shared := b.Register(rec.step("shared"))
	first := NewConditionalStep("first", always(true))
	first.AddPredicatedStep(shared)
	second := NewConditionalStep("second", always(true))
	second.AddPredicatedStep(shared)
	b.Append(first)
	b.Append(second)

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.Equal(t, []string{"shared", "shared"}, rec.titles())
}

func TestSequencer_DedupeActivations(t *testing.T) {
	rec := &recorder{}
	b := NewBuilder(WithDedupeActivations(true))

	shared := b.Register(rec.step("shared"))
	first := NewConditionalStep("first", always(true))
	first.AddPredicatedStep(shared)
	second := NewConditionalStep("second", always(true))
	second.AddPredicatedStep(shared)
	b.Append(first)
	b.Append(second)
	b.Append(rec.step("tail"))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.Equal(t, []string{"shared", "tail"}, rec.titles())
}

func TestSequencer_PresentationStepsAreDispatched(t *testing.T) {
	rec := &recorder{}
	d := &countingDispatcher{}
	b := NewBuilder(WithDispatcher(d))
	b.Append(rec.step("worker"))
	b.Append(rec.step("ui", OnPresentation()))
	b.Append(NewConditionalStep("ui check", always(false), OnPresentation()))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.Equal(t, 2, d.calls)
	assert.Equal(t, []string{"worker", "ui"}, rec.titles())
}

func TestSequencer_PresentationStepsRunOnMainQueue(t *testing.T) {
	q := NewMainQueue(nil)
	q.Start()
	defer q.Stop()

	var onQueue, onWorker bool
	b := NewBuilder(WithDispatcher(q))
	b.Append(NewUnitStep("ui", func(ctx context.Context, state *State) error {
		// while this runs as a queue task the queue cannot accept another
		probe, cancel := context.WithCancel(ctx)
		cancel()
		onQueue = q.Dispatch(probe, func() {}) != nil
		return nil
	}, OnPresentation()))
	b.Append(NewUnitStep("worker", func(ctx context.Context, state *State) error {
		onWorker = true
		return nil
	}))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))

	assert.True(t, onQueue)
	assert.True(t, onWorker)
}

type recordingPublisher struct {
	started  []string
	finished []OutcomeKind
	errs     []error
}

func (p *recordingPublisher) StepStarted(ev StepEvent) { p.started = append(p.started, ev.Title) }
func (p *recordingPublisher) PublishStep(ev StepEvent) { p.finished = append(p.finished, ev.Outcome) }
func (p *recordingPublisher) Error(ev StepEvent, err error) {
	p.errs = append(p.errs, err)
}

func TestSequencer_PublishesStepEvents(t *testing.T) {
	pub := &recordingPublisher{}
	b := NewBuilder(WithPublisher(pub))
	b.Append(NewConditionalStep("check", always(true)))
	b.Append(NewUnitStep("explode", func(ctx context.Context, state *State) error {
		return errors.New("boom")
	}))

	seq, err := b.Build()
	require.NoError(t, err)
	require.Error(t, seq.Run(context.Background()))

	assert.Equal(t, []string{"check", "explode"}, pub.started)
	assert.Equal(t, []OutcomeKind{OutcomeBranch}, pub.finished)
	require.Len(t, pub.errs, 1)
	assert.Contains(t, pub.errs[0].Error(), "boom")
}

func TestSequencer_WithValuesSeedsState(t *testing.T) {
	var seen string
	b := NewBuilder(WithValues(map[string]any{"name": "Bob"}))
	b.Append(NewUnitStep("read", func(ctx context.Context, state *State) error {
		seen = state.String("name")
		return nil
	}))

	seq, err := b.Build()
	require.NoError(t, err)
	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, "Bob", seen)
}
