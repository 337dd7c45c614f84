package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/logger"
)

// stepMsg carries a step event from the sequencer to the model.
type stepMsg struct {
	event   core.StepEvent
	started bool
	err     error
}

// CliStepPublisher forwards step events to the TUI model.
type CliStepPublisher struct {
	stepChan chan stepMsg
	logger   logger.Logger
}

func NewCliStepPublisher(logger logger.Logger) *CliStepPublisher {
	return &CliStepPublisher{
		stepChan: make(chan stepMsg, 100), // Buffer size of 100
		logger:   logger,
	}
}

func (p *CliStepPublisher) StepStarted(ev core.StepEvent) {
	p.publish(stepMsg{event: ev, started: true})
}

func (p *CliStepPublisher) PublishStep(ev core.StepEvent) {
	p.publish(stepMsg{event: ev})
}

func (p *CliStepPublisher) Error(ev core.StepEvent, err error) {
	p.publish(stepMsg{event: ev, err: err})
}

func (p *CliStepPublisher) publish(msg stepMsg) {
	select {
	case p.stepChan <- msg:
		p.logger.Debug(fmt.Sprintf("Successfully published step: %d", msg.event.ID))
	default:
		p.logger.Warn(fmt.Sprintf("Failed to publish step: %d. Channel full.", msg.event.ID))
	}
}

// listen waits for the next step event.
func (p *CliStepPublisher) listen() tea.Cmd {
	return func() tea.Msg {
		return <-p.stepChan
	}
}

// TextStepPublisher prints one line per finished step. It is used when no
// TUI is running.
type TextStepPublisher struct {
	out io.Writer
}

func NewTextStepPublisher(out io.Writer) *TextStepPublisher {
	return &TextStepPublisher{out: out}
}

func (p *TextStepPublisher) StepStarted(ev core.StepEvent) {}

func (p *TextStepPublisher) PublishStep(ev core.StepEvent) {
	mark := checkStyle.Render("✓")
	if ev.Outcome == core.OutcomeCancel {
		mark = mutedStyle.Render("-")
	}
	fmt.Fprintf(p.out, "%s %s %s\n", mark, ev.Title, mutedStyle.Render(ev.Duration.Round(msRound).String()))
}

func (p *TextStepPublisher) Error(ev core.StepEvent, err error) {
	fmt.Fprintf(p.out, "%s %s\n", errorStyle.Render("✗"), ev.Title)
}
