package answers

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/fs"
	"github.com/santiagomed/stepseq/logger"
)

// Answer is one scripted reply, consumed by the first request with a
// matching title.
type Answer struct {
	Title  string `yaml:"title"`
	Value  string `yaml:"value,omitempty"`
	Cancel bool   `yaml:"cancel,omitempty"`
}

type file struct {
	Answers []Answer `yaml:"answers"`
}

// Presenter answers input requests from a script instead of a terminal.
// Answers for the same title are handed out in file order.
type Presenter struct {
	fs     *fs.FileSystem
	logger logger.Logger

	mu     sync.Mutex
	queues map[string][]Answer
}

// NewPresenter builds a Presenter over answers. Path answers are checked
// against fsys.
func NewPresenter(answers []Answer, fsys *fs.FileSystem, l logger.Logger) *Presenter {
	if l == nil {
		l = logger.NewNullLogger()
	}
	p := &Presenter{
		fs:     fsys,
		logger: l,
		queues: make(map[string][]Answer),
	}
	for _, a := range answers {
		p.queues[a.Title] = append(p.queues[a.Title], a)
	}
	return p
}

// Parse decodes an answers document.
func Parse(data []byte) ([]Answer, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("invalid answers file: %w", err)
	}
	for i, a := range f.Answers {
		if a.Title == "" {
			return nil, fmt.Errorf("invalid answers file: answer %d has no title", i)
		}
	}
	return f.Answers, nil
}

// Load reads the answers file at path from fsys.
func Load(fsys *fs.FileSystem, path string, l logger.Logger) (*Presenter, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	answers, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewPresenter(answers, fsys, l), nil
}

// Remaining returns how many answers have not been consumed.
func (p *Presenter) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

func (p *Presenter) next(title string) (Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q := p.queues[title]
	if len(q) == 0 {
		return Answer{}, fmt.Errorf("no scripted answer left for %q", title)
	}
	p.queues[title] = q[1:]
	return q[0], nil
}

func (p *Presenter) RequestTextInput(ctx context.Context, title, initial string) (core.Response, error) {
	if err := ctx.Err(); err != nil {
		return core.Response{}, err
	}
	a, err := p.next(title)
	if err != nil {
		return core.Response{}, err
	}
	if a.Cancel {
		p.logger.Debug(fmt.Sprintf("Scripted cancel for %q", title))
		return core.Response{}, nil
	}
	p.logger.Debug(fmt.Sprintf("Scripted answer for %q", title))
	return core.Response{Value: a.Value, Accepted: true}, nil
}

func (p *Presenter) RequestPathSelection(ctx context.Context, req core.PathRequest) (core.Response, error) {
	if err := ctx.Err(); err != nil {
		return core.Response{}, err
	}
	a, err := p.next(req.Title)
	if err != nil {
		return core.Response{}, err
	}
	if a.Cancel {
		p.logger.Debug(fmt.Sprintf("Scripted cancel for %q", req.Title))
		return core.Response{}, nil
	}
	if p.fs != nil {
		if err := p.fs.CheckSelection(a.Value, req.AllowedTypes, req.AllowDirectories); err != nil {
			return core.Response{}, err
		}
	}
	p.logger.Debug(fmt.Sprintf("Scripted path %s for %q", a.Value, req.Title))
	return core.Response{Value: a.Value, Accepted: true}, nil
}
