package workflow

import (
	"errors"
	"fmt"

	"github.com/santiagomed/stepseq/actions"
	"github.com/santiagomed/stepseq/core"
)

type branchTarget struct {
	id  core.StepID
	ref string
}

type pendingBranch struct {
	location string
	cond     *core.ConditionalStep
	targets  []branchTarget
}

type compiler struct {
	b       *core.Builder
	env     *actions.Env
	ids     map[string]core.StepID
	pending []pendingBranch
}

// Builder registers every step of wf on a new core.Builder. Top-level
// entries are appended to the chain; entries under then are only registered.
// Problems with the declarations are returned as *core.ConfigurationError.
func (wf *Workflow) Builder(env *actions.Env, opts ...core.BuilderOption) (*core.Builder, error) {
	opts = append([]core.BuilderOption{core.WithValues(wf.Values)}, opts...)
	c := &compiler{
		b:   core.NewBuilder(opts...),
		env: env,
		ids: make(map[string]core.StepID),
	}

	for i, e := range wf.Steps {
		if _, _, err := c.compile(e, fmt.Sprintf("steps[%d]", i), true); err != nil {
			return nil, err
		}
	}

	for _, p := range c.pending {
		for _, t := range p.targets {
			id := t.id
			if t.ref != "" {
				resolved, ok := c.ids[t.ref]
				if !ok {
					return nil, configError(p.location, fmt.Errorf("ref %q does not name any step", t.ref))
				}
				id = resolved
			}
			p.cond.AddPredicatedStep(id)
		}
	}
	return c.b, nil
}

// Build compiles wf and validates it into a Sequencer.
func (wf *Workflow) Build(env *actions.Env, opts ...core.BuilderOption) (*core.Sequencer, error) {
	b, err := wf.Builder(env, opts...)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

// compile adds the step declared by e. For a ref it registers nothing and
// returns the referenced name instead.
func (c *compiler) compile(e Entry, location string, top bool) (core.StepID, string, error) {
	kind, err := e.kind()
	if err != nil {
		return 0, "", configError(location, err)
	}

	if kind == "ref" {
		switch {
		case top:
			return 0, "", configError(location, errors.New("ref is only allowed under then"))
		case e.ID != "":
			return 0, "", configError(location, errors.New("a ref cannot declare an id"))
		}
		return 0, e.Ref, nil
	}

	if e.ID != "" {
		if _, dup := c.ids[e.ID]; dup {
			return 0, "", configError(location, fmt.Errorf("duplicate id %q", e.ID))
		}
	}

	var step core.Step
	switch kind {
	case "prompt":
		step, err = c.promptStep(e.Prompt)
	case "path":
		step, err = c.pathStep(e.Path)
	case "do":
		step, err = c.unitStep(e.Do)
	case "if":
		step, err = c.conditionalStep(e.If)
	}
	if err != nil {
		return 0, "", configError(location, err)
	}

	var id core.StepID
	if top {
		id = c.b.Append(step)
	} else {
		id = c.b.Register(step)
	}
	if e.ID != "" {
		c.ids[e.ID] = id
	}

	if cond, ok := step.(*core.ConditionalStep); ok {
		p := pendingBranch{location: location, cond: cond}
		for i, child := range e.If.Then {
			childID, ref, err := c.compile(child, fmt.Sprintf("%s.then[%d]", location, i), false)
			if err != nil {
				return 0, "", err
			}
			p.targets = append(p.targets, branchTarget{id: childID, ref: ref})
		}
		c.pending = append(c.pending, p)
	}
	return id, "", nil
}

func (c *compiler) promptStep(def *PromptDef) (core.Step, error) {
	if def.Key == "" {
		return nil, errors.New("prompt requires a key")
	}
	title := def.Title
	if title == "" {
		title = def.Key
	}
	var opts []core.Option
	if def.ErrorIfCancelled {
		opts = append(opts, core.ErrorIfCancelled())
	}
	return core.NewPromptStep(title, def.Initial, def.Key, opts...), nil
}

func (c *compiler) pathStep(def *PathDef) (core.Step, error) {
	if def.Key == "" {
		return nil, errors.New("path requires a key")
	}
	title := def.Title
	if title == "" {
		title = def.Key
	}
	return core.NewPathSelectionStep(title, def.Key, def.Types, def.Directories, def.ErrorIfCancelled), nil
}

func (c *compiler) unitStep(def *DoDef) (core.Step, error) {
	action, err := actions.Build(def.Action, c.env, actions.Params(def.Params))
	if err != nil {
		return nil, err
	}
	title := def.Title
	if title == "" {
		title = def.Action
	}
	var opts []core.Option
	if def.Presentation {
		opts = append(opts, core.OnPresentation())
	}
	return core.NewUnitStep(title, action, opts...), nil
}

func (c *compiler) conditionalStep(def *IfDef) (core.Step, error) {
	pred, err := def.When.Predicate()
	if err != nil {
		return nil, err
	}
	title := def.Title
	if title == "" {
		title = "if " + def.When.String()
	}
	var opts []core.Option
	if def.Presentation {
		opts = append(opts, core.OnPresentation())
	}
	return core.NewConditionalStep(title, pred, opts...), nil
}

func configError(location string, err error) *core.ConfigurationError {
	return &core.ConfigurationError{Reason: fmt.Sprintf("%s: %v", location, err)}
}
