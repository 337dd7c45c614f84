package answers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/fs"
)

const script = `
answers:
  - title: "Your name?"
    value: ada
  - title: "Your name?"
    cancel: true
  - title: "Pick a file"
    value: notes/todo.txt
  - title: "Pick a dir"
    value: notes
`

func newPresenter(t *testing.T) (*Presenter, *fs.FileSystem) {
	t.Helper()
	fsys := fs.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("notes/todo.txt", "buy milk"))
	require.NoError(t, fsys.WriteFile("answers.yaml", script))

	p, err := Load(fsys, "answers.yaml", nil)
	require.NoError(t, err)
	return p, fsys
}

func TestRequestTextInput_InOrder(t *testing.T) {
	p, _ := newPresenter(t)
	ctx := context.Background()

	resp, err := p.RequestTextInput(ctx, "Your name?", "")
	require.NoError(t, err)
	assert.Equal(t, core.Response{Value: "ada", Accepted: true}, resp)

	resp, err = p.RequestTextInput(ctx, "Your name?", "")
	require.NoError(t, err)
	assert.False(t, resp.Accepted)

	_, err = p.RequestTextInput(ctx, "Your name?", "")
	assert.ErrorContains(t, err, "no scripted answer left")
}

func TestRequestTextInput_ValueUnchanged(t *testing.T) {
	answers, err := Parse([]byte(`
answers:
  - title: "Your name?"
    value: "  Al\tice  "
`))
	require.NoError(t, err)
	p := NewPresenter(answers, nil, nil)

	resp, err := p.RequestTextInput(context.Background(), "Your name?", "")
	require.NoError(t, err)
	assert.Equal(t, "  Al\tice  ", resp.Value)
	assert.True(t, resp.Accepted)
}

func TestRequestPathSelection(t *testing.T) {
	p, _ := newPresenter(t)
	ctx := context.Background()

	resp, err := p.RequestPathSelection(ctx, core.PathRequest{Title: "Pick a file", AllowedTypes: []string{"txt"}})
	require.NoError(t, err)
	assert.Equal(t, "notes/todo.txt", resp.Value)
	assert.True(t, resp.Accepted)

	_, err = p.RequestPathSelection(ctx, core.PathRequest{Title: "Pick a dir"})
	assert.ErrorContains(t, err, "directories are not allowed")
}

func TestRequestPathSelection_WrongType(t *testing.T) {
	fsys := fs.NewMemoryFileSystem()
	require.NoError(t, fsys.WriteFile("a.md", "# a"))
	p := NewPresenter([]Answer{{Title: "pick", Value: "a.md"}}, fsys, nil)

	_, err := p.RequestPathSelection(context.Background(), core.PathRequest{Title: "pick", AllowedTypes: []string{".txt"}})
	assert.ErrorContains(t, err, "allowed types are .txt")
}

func TestRequest_ContextDone(t *testing.T) {
	p, _ := newPresenter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.RequestTextInput(ctx, "Your name?", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, p.Remaining())
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("answers:\n  - value: x\n"))
	assert.ErrorContains(t, err, "has no title")

	_, err = Parse([]byte("answer: []\n"))
	assert.ErrorContains(t, err, "invalid answers file")
}

func TestPresenter_DrivesSequencer(t *testing.T) {
	p, _ := newPresenter(t)

	b := core.NewBuilder(core.WithPresenter(p), core.WithDispatcher(core.InlineDispatcher{}))
	b.Append(core.NewPromptStep("Your name?", "", "name"))
	b.Append(core.NewPathSelectionStep("Pick a file", "file", []string{"txt"}, false, true))
	seq, err := b.Build()
	require.NoError(t, err)

	require.NoError(t, seq.Run(context.Background()))
	assert.Equal(t, "ada", seq.State().String("name"))
	assert.Equal(t, "notes/todo.txt", seq.State().String("file"))
	assert.Equal(t, 2, p.Remaining())
}
