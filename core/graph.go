package core

import (
	"fmt"

	"go.arcalot.io/dgraph"
)

func nodeID(id StepID) string {
	return fmt.Sprintf("step-%d", id)
}

// validate checks the arena before a run: every step is non-nil, every
// predicated reference points at a registered step, the collaborators the
// steps need are present, and no conditional can activate itself again
// through its predicated steps.
func (b *Builder) validate() error {
	dag := dgraph.New[Step]()
	nodes := make([]dgraph.Node[Step], len(b.steps))
	needsDispatcher := false
	needsPresenter := false

	for i, step := range b.steps {
		id := StepID(i)
		if step == nil {
			return configErrorf("step %d is nil", id)
		}
		node, err := dag.AddNode(nodeID(id), step)
		if err != nil {
			return configErrorf("failed to add step %d (%s) to graph (%v)", id, step.Title(), err)
		}
		nodes[i] = node

		if step.Affinity() == Presentation {
			needsDispatcher = true
		}
		switch step.(type) {
		case *PromptStep, *PathSelectionStep:
			needsPresenter = true
		}
	}

	for i, step := range b.steps {
		cond, ok := step.(*ConditionalStep)
		if !ok {
			continue
		}
		for _, target := range cond.PredicatedSteps() {
			if target < 0 || int(target) >= len(b.steps) {
				return configErrorf("step %d (%s) activates step %d which was never registered", i, cond.Title(), target)
			}
			if int(target) == i {
				return configErrorf("step %d (%s) activates itself", i, cond.Title())
			}
			if err := nodes[i].Connect(nodeID(target)); err != nil {
				return configErrorf("failed to connect step %d to step %d (%v)", i, target, err)
			}
		}
	}

	if dag.HasCycles() {
		return configErrorf("conditional steps activate each other in a cycle")
	}
	if needsDispatcher && b.dispatcher == nil {
		return configErrorf("chain has presentation steps but no dispatcher")
	}
	if needsPresenter && b.presenter == nil {
		return configErrorf("chain has input steps but no presenter")
	}
	return nil
}
