package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santiagomed/stepseq/config"
	"github.com/santiagomed/stepseq/core"
)

func scriptedConfig(t *testing.T, answers string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "answers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(answers), 0644))

	cfg := config.DefaultConfig()
	cfg.Presenter = config.PresenterScript
	cfg.AnswersFile = path
	cfg.OutputDir = filepath.Join(dir, "out")
	return cfg
}

func TestRunWorkflow_ScriptedExample(t *testing.T) {
	answers, err := os.ReadFile(filepath.Join("..", "examples", "greet.answers.yaml"))
	require.NoError(t, err)
	cfg := scriptedConfig(t, string(answers))

	var out bytes.Buffer
	err = runWorkflow(context.Background(), filepath.Join("..", "examples", "greet.yaml"), cfg, &out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Hello ada")
	assert.NotContains(t, out.String(), "Using")
	assert.Contains(t, out.String(), "completed")

	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "greetings", "ada.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Hello ada", string(data))
}

func TestRunWorkflow_ScriptedCancel(t *testing.T) {
	dir := t.TempDir()
	wfPath := filepath.Join(dir, "flow.yaml")
	require.NoError(t, os.WriteFile(wfPath, []byte(`
name: strict
steps:
  - prompt: {title: "Token?", key: token, error_if_cancelled: true}
  - do: {action: print, message: "never"}
`), 0644))
	cfg := scriptedConfig(t, "answers:\n  - title: \"Token?\"\n    cancel: true\n")

	var out bytes.Buffer
	err := runWorkflow(context.Background(), wfPath, cfg, &out)

	assert.ErrorIs(t, err, core.ErrCancelled)
	assert.Equal(t, exitCancelled, ExitCode(err))
	assert.NotContains(t, out.String(), "never")
}

func TestRunWorkflow_MissingAnswer(t *testing.T) {
	dir := t.TempDir()
	wfPath := filepath.Join(dir, "flow.yaml")
	require.NoError(t, os.WriteFile(wfPath, []byte("name: x\nsteps:\n  - prompt: {title: \"Name?\", key: name}\n"), 0644))
	cfg := scriptedConfig(t, "answers: []\n")

	err := runWorkflow(context.Background(), wfPath, cfg, &bytes.Buffer{})

	var failed *core.ActionFailedError
	require.ErrorAs(t, err, &failed)
	assert.ErrorContains(t, err, "no scripted answer left")
	assert.Equal(t, 1, ExitCode(err))
}
