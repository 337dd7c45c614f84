package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/list"

	"github.com/santiagomed/stepseq/config"
	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/fs"
	"github.com/santiagomed/stepseq/logger"
	"github.com/santiagomed/stepseq/utils"
	"github.com/santiagomed/stepseq/workflow"
)

// validateWorkflow builds the workflow at path without running it and prints
// the chain. Actions are bound to an in-memory file system.
func validateWorkflow(fsys *fs.FileSystem, path string, cfg *config.Config, out io.Writer) error {
	log := logger.GetLogger()
	wf, err := workflow.Load(fsys, path)
	if err != nil {
		return err
	}

	env, err := newActionEnv(cfg, io.Discard, log)
	if err != nil {
		return err
	}
	env.FS = fs.NewMemoryFileSystem()

	seq, err := wf.Build(env,
		core.WithPresenter(NewTeaPresenter(log)),
		core.WithDispatcher(core.InlineDispatcher{}),
	)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render(wf.Name)+" "+mutedStyle.Render(fmt.Sprintf("(%d steps in chain)", len(seq.Chain()))))
	fmt.Fprintln(out, describeChain(seq, seq.Chain()))
	return nil
}

func describeChain(seq *core.Sequencer, ids []core.StepID) *list.List {
	l := list.New().Enumerator(list.Arabic)
	for _, id := range ids {
		l.Item(describeStep(id, seq.Step(id)))
		if cond, ok := seq.Step(id).(*core.ConditionalStep); ok && len(cond.PredicatedSteps()) > 0 {
			l.Item(describeBranch(seq, cond.PredicatedSteps()))
		}
	}
	return l
}

func describeBranch(seq *core.Sequencer, ids []core.StepID) *list.List {
	l := describeChain(seq, ids)
	return l.Enumerator(list.Bullet)
}

func describeStep(id core.StepID, step core.Step) string {
	var desc string
	switch s := step.(type) {
	case *core.PromptStep:
		desc = fmt.Sprintf("prompt %q → %s", s.Title(), s.Key())
		if s.Initial() != "" {
			desc += fmt.Sprintf(" (default %q)", s.Initial())
		}
	case *core.PathSelectionStep:
		desc = fmt.Sprintf("path %q → %s", s.Title(), s.Key())
		if req := s.Request(); len(req.AllowedTypes) > 0 {
			desc += " " + mutedStyle.Render(strings.Join(utils.NormalizeExtensions(req.AllowedTypes), " "))
		}
	case *core.ConditionalStep:
		desc = "conditional " + s.Title()
	default:
		desc = step.Title()
	}
	tag := mutedStyle.Render(fmt.Sprintf("[%d]", id))
	if step.Affinity() == core.Presentation {
		tag += " " + accentStyle.Render(step.Affinity().String())
	}
	return tag + " " + desc
}
