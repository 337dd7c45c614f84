package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/santiagomed/stepseq/actions"
	"github.com/santiagomed/stepseq/answers"
	"github.com/santiagomed/stepseq/config"
	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/fs"
	"github.com/santiagomed/stepseq/llm"
	"github.com/santiagomed/stepseq/logger"
	"github.com/santiagomed/stepseq/workflow"
)

const shutdownTimeout = 5 * time.Second

type runFlags struct {
	config  string
	answers string
	dedupe  bool
}

// loadSettings applies command-line overrides on top of the loaded config.
func loadSettings(f runFlags) (*config.Config, error) {
	return config.LoadConfig(f.config, func(cfg *config.Config) {
		if f.answers != "" {
			cfg.Presenter = config.PresenterScript
			cfg.AnswersFile = f.answers
		}
		if f.dedupe {
			cfg.DedupeActivations = true
		}
	})
}

func newActionEnv(cfg *config.Config, out io.Writer, l logger.Logger) (*actions.Env, error) {
	env := &actions.Env{
		FS:     fs.NewRootedFileSystem(cfg.OutputDir),
		Out:    out,
		Logger: l,
	}
	if cfg.OpenAIAPIKey != "" {
		client, err := llm.NewOpenAIClient(&llm.Config{APIKey: cfg.OpenAIAPIKey, ModelName: cfg.ModelName, BaseURL: cfg.OpenAIBaseURL}, l)
		if err != nil {
			return nil, err
		}
		env.LLM = client
	}
	return env, nil
}

// runWorkflow loads the workflow at path and runs it once, with the TUI or
// with scripted answers depending on cfg.
func runWorkflow(ctx context.Context, path string, cfg *config.Config, stdout io.Writer) error {
	log := logger.GetLogger()
	log.Info(fmt.Sprintf("Running workflow %s", path))

	osFs := fs.NewOsFileSystem()
	wf, err := workflow.Load(osFs, path)
	if err != nil {
		return err
	}

	engine := core.NewEngine(log, 1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	engine.Start(ctx)
	defer engine.Shutdown(shutdownTimeout)

	if cfg.Presenter == config.PresenterScript {
		return runScripted(wf, cfg, engine, osFs, stdout, log)
	}
	return runInteractive(ctx, cancel, wf, cfg, engine, log)
}

func runScripted(wf *workflow.Workflow, cfg *config.Config, engine *core.Engine, osFs *fs.FileSystem, stdout io.Writer, log logger.Logger) error {
	presenter, err := answers.Load(osFs, cfg.AnswersFile, log)
	if err != nil {
		return err
	}
	env, err := newActionEnv(cfg, stdout, log)
	if err != nil {
		return err
	}

	seq, err := wf.Build(env,
		core.WithPresenter(presenter),
		core.WithDispatcher(core.InlineDispatcher{}),
		core.WithPublisher(NewTextStepPublisher(stdout)),
		core.WithLogger(log),
		core.WithDedupeActivations(cfg.DedupeActivations),
	)
	if err != nil {
		return err
	}

	err = <-engine.AddRequest(seq)
	if n := presenter.Remaining(); n > 0 {
		log.Warn(fmt.Sprintf("%d scripted answers were not used", n))
	}
	printSummary(stdout, wf.Name, seq)
	return err
}

func runInteractive(ctx context.Context, cancel context.CancelFunc, wf *workflow.Workflow, cfg *config.Config, engine *core.Engine, log logger.Logger) error {
	queue := core.NewMainQueue(log)
	queue.Start()
	defer queue.Stop()

	publisher := NewCliStepPublisher(log)
	presenter := NewTeaPresenter(log)

	// out is bound to the program once it exists.
	out := &programWriter{}
	env, err := newActionEnv(cfg, out, log)
	if err != nil {
		return err
	}
	seq, err := wf.Build(env,
		core.WithPresenter(presenter),
		core.WithDispatcher(queue),
		core.WithPublisher(publisher),
		core.WithLogger(log),
		core.WithDedupeActivations(cfg.DedupeActivations),
	)
	if err != nil {
		return err
	}

	name := wf.Name
	if name == "" {
		name = "workflow"
	}
	model := newRunModel(name, seq.Chain(), publisher, presenter, cancel, log)
	p := tea.NewProgram(model, tea.WithContext(ctx))
	out.program = p

	resultChan := engine.AddRequest(seq)
	model.result = resultChan

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		cancel()
		return fmt.Errorf("error running program: %w", err)
	}
	if model.done {
		return model.err
	}

	// Interrupted: the sequencer stops at the next step boundary.
	cancel()
	select {
	case err := <-resultChan:
		return err
	case <-time.After(shutdownTimeout):
		log.Warn("Run did not stop in time")
		return fmt.Errorf("%w: interrupted", core.ErrCancelled)
	}
}

// programWriter prints action output above the TUI.
type programWriter struct {
	program *tea.Program
}

func (w *programWriter) Write(b []byte) (int, error) {
	if w.program != nil {
		w.program.Send(tea.Println(strings.TrimRight(string(b), "\n"))())
	}
	return len(b), nil
}

func printSummary(out io.Writer, name string, seq *core.Sequencer) {
	status := seq.Status()
	var line string
	switch status {
	case core.Completed:
		line = checkStyle.Render(fmt.Sprintf("Workflow %s completed", name))
	case core.Cancelled:
		line = mutedStyle.Render(fmt.Sprintf("Workflow %s cancelled", name))
	default:
		line = errorStyle.Render(fmt.Sprintf("Workflow %s %s", name, status))
	}
	fmt.Fprintf(out, "%s %s\n", line, mutedStyle.Render("run "+seq.RunID()))
}
