package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/logger"
)

type inputKind int

const (
	textRequest inputKind = iota
	pathRequest
)

// inputRequestMsg asks the model to show an input widget. The model answers
// on reply exactly once.
type inputRequestMsg struct {
	kind    inputKind
	title   string
	initial string
	path    core.PathRequest
	reply   chan core.Response
}

// TeaPresenter is the core.Presenter backed by the bubbletea program. Each
// request is handed to the model and the caller blocks until the user
// answers or ctx is done.
type TeaPresenter struct {
	requests chan inputRequestMsg
	logger   logger.Logger
}

func NewTeaPresenter(l logger.Logger) *TeaPresenter {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &TeaPresenter{
		requests: make(chan inputRequestMsg),
		logger:   l,
	}
}

func (p *TeaPresenter) RequestTextInput(ctx context.Context, title, initial string) (core.Response, error) {
	return p.request(ctx, inputRequestMsg{kind: textRequest, title: title, initial: initial})
}

func (p *TeaPresenter) RequestPathSelection(ctx context.Context, req core.PathRequest) (core.Response, error) {
	return p.request(ctx, inputRequestMsg{kind: pathRequest, title: req.Title, path: req})
}

func (p *TeaPresenter) request(ctx context.Context, req inputRequestMsg) (core.Response, error) {
	req.reply = make(chan core.Response, 1)
	p.logger.Debug("Requesting input: " + req.title)

	select {
	case p.requests <- req:
	case <-ctx.Done():
		return core.Response{}, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp, nil
	case <-ctx.Done():
		return core.Response{}, ctx.Err()
	}
}

// listen waits for the next input request.
func (p *TeaPresenter) listen() tea.Cmd {
	return func() tea.Msg {
		return <-p.requests
	}
}
