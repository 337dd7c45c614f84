package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss/list"

	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/logger"
	"github.com/santiagomed/stepseq/utils"
)

const (
	padding  = 2
	maxWidth = 80
)

type state int

const (
	Running state = iota
	Prompting
	Picking
	Finished
)

// runFinishedMsg reports the result of the sequencer run.
type runFinishedMsg struct{ err error }

type finishedStep struct {
	title   string
	outcome core.OutcomeKind
	failed  bool
}

type runModel struct {
	name      string
	chain     map[core.StepID]int
	chainLen  int
	chainDone int

	spinner   spinner.Model
	progress  progress.Model
	textInput textinput.Model
	picker    filepicker.Model
	pickerMsg string

	state    state
	pending  *inputRequestMsg
	current  *core.StepEvent
	finished []finishedStep

	publisher *CliStepPublisher
	presenter *TeaPresenter
	result    <-chan error
	cancel    context.CancelFunc

	err         error
	done        bool
	interrupted bool
	logger      logger.Logger
}

func newRunModel(name string, chain []core.StepID, pub *CliStepPublisher, pres *TeaPresenter, cancel context.CancelFunc, l logger.Logger) *runModel {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 60

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = accentStyle

	index := make(map[core.StepID]int, len(chain))
	for i, id := range chain {
		index[id] = i
	}

	return &runModel{
		name:      name,
		chain:     index,
		chainLen:  len(chain),
		spinner:   s,
		progress:  progress.New(progress.WithGradient("#FFBA08", "#F48C06")),
		textInput: ti,
		state:     Running,
		publisher: pub,
		presenter: pres,
		cancel:    cancel,
		logger:    l,
	}
}

func (m *runModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.publisher.listen(), m.presenter.listen(), m.waitForResult())
}

func (m *runModel) waitForResult() tea.Cmd {
	return func() tea.Msg {
		if m.result == nil {
			return nil
		}
		return runFinishedMsg{err: <-m.result}
	}
}

func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.progress.Width = msg.Width - padding*2 - 4
		if m.progress.Width > maxWidth {
			m.progress.Width = maxWidth
		}
		return m, nil
	case inputRequestMsg:
		return m.handleInputRequest(msg)
	case stepMsg:
		return m.handleStep(msg)
	case runFinishedMsg:
		m.logger.Debug("Received run result")
		m.done = true
		m.err = msg.err
		m.state = Finished
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Directory listings and other picker internals.
	if m.state == Picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyPress handles key presses for the active widget.
func (m *runModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m.handleInterrupt()
	}

	switch m.state {
	case Prompting:
		switch msg.Type {
		case tea.KeyEnter:
			return m.reply(core.Response{Value: m.textInput.Value(), Accepted: true, Widget: "textinput"})
		case tea.KeyEsc:
			return m.reply(core.Response{Widget: "textinput"})
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	case Picking:
		if msg.Type == tea.KeyEsc {
			return m.reply(core.Response{Widget: "filepicker"})
		}
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		if ok, path := m.picker.DidSelectFile(msg); ok {
			return m.reply(core.Response{Value: path, Accepted: true, Widget: "filepicker"})
		}
		if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
			m.pickerMsg = fmt.Sprintf("%s is not allowed here", path)
		}
		return m, cmd
	}
	return m, nil
}

// handleInterrupt declines any pending input and stops the run at the next
// step boundary.
func (m *runModel) handleInterrupt() (tea.Model, tea.Cmd) {
	m.logger.Debug("User interrupted the run")
	m.interrupted = true
	if m.pending != nil {
		m.pending.reply <- core.Response{}
		m.pending = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	message := mutedStyle.Render("Interrupted. Exiting application...")
	return m, tea.Sequence(tea.Printf("%s", message), tea.Quit)
}

func (m *runModel) handleInputRequest(req inputRequestMsg) (tea.Model, tea.Cmd) {
	m.pending = &req
	switch req.kind {
	case pathRequest:
		m.state = Picking
		m.pickerMsg = ""
		m.picker = newPicker(req.path)
		return m, m.picker.Init()
	default:
		m.state = Prompting
		m.textInput.SetValue(req.initial)
		m.textInput.CursorEnd()
		return m, tea.Batch(m.textInput.Focus(), textinput.Blink)
	}
}

func (m *runModel) reply(resp core.Response) (tea.Model, tea.Cmd) {
	if m.pending == nil {
		return m, nil
	}
	m.pending.reply <- resp
	title := m.pending.title
	m.pending = nil
	m.state = Running
	m.textInput.Blur()
	m.textInput.SetValue("")

	var line string
	if resp.Accepted {
		line = fmt.Sprintf("%s %s", title, nameStyle.Render(resp.Value))
	} else {
		line = fmt.Sprintf("%s %s", title, mutedStyle.Render("(skipped)"))
	}
	return m, tea.Batch(tea.Printf("%s", line), m.presenter.listen())
}

func (m *runModel) handleStep(msg stepMsg) (tea.Model, tea.Cmd) {
	ev := msg.event
	if msg.started {
		m.current = &ev
		return m, m.publisher.listen()
	}

	m.logger.Debug(fmt.Sprintf("Received step: %d", ev.ID))
	m.current = nil
	m.finished = append(m.finished, finishedStep{
		title:   ev.Title,
		outcome: ev.Outcome,
		failed:  msg.err != nil || ev.Outcome == core.OutcomeFail,
	})
	if i, ok := m.chain[ev.ID]; ok && i+1 > m.chainDone {
		m.chainDone = i + 1
	}
	return m, m.publisher.listen()
}

func (m *runModel) ratio() float64 {
	if m.chainLen == 0 {
		return 1
	}
	return float64(m.chainDone) / float64(m.chainLen)
}

func (m *runModel) View() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.name) + "\n\n")

	enumerator := func(items list.Items, i int) string {
		if i < len(m.finished) {
			if m.finished[i].failed {
				return errorStyle.Render("✗")
			}
			if m.finished[i].outcome == core.OutcomeCancel {
				return mutedStyle.Render("-")
			}
			return checkStyle.Render("✓")
		}
		return m.spinner.View()
	}
	l := list.New().Enumerator(enumerator)
	for _, step := range m.finished {
		l.Item(step.title)
	}
	if m.current != nil && m.state != Finished {
		l.Item(m.current.Title)
	}
	if len(m.finished) > 0 || m.current != nil {
		sb.WriteString(fmt.Sprint(l) + "\n\n")
	}

	switch m.state {
	case Prompting:
		sb.WriteString(accentStyle.Render("?") + " " + m.pending.title + "\n")
		sb.WriteString(m.textInput.View() + "\n\n")
		sb.WriteString(mutedStyle.Render("(press enter to accept or esc to skip)"))
	case Picking:
		sb.WriteString(accentStyle.Render("?") + " " + m.pending.title + "\n")
		sb.WriteString(mutedStyle.Render(m.picker.CurrentDirectory) + "\n")
		sb.WriteString(m.picker.View() + "\n")
		if m.pickerMsg != "" {
			sb.WriteString(errorStyle.Render(m.pickerMsg) + "\n")
		}
		sb.WriteString(mutedStyle.Render("(enter to select, esc to skip)"))
	case Finished:
		if m.err != nil {
			sb.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		} else {
			sb.WriteString(checkStyle.Render("Done."))
		}
	default:
		sb.WriteString(m.progress.ViewAs(m.ratio()))
	}
	return sb.String() + "\n"
}

func newPicker(req core.PathRequest) filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = utils.NormalizeExtensions(req.AllowedTypes)
	fp.DirAllowed = req.AllowDirectories
	fp.FileAllowed = true
	fp.AutoHeight = false
	fp.Height = 10
	if dir, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = dir
	}
	return fp
}
