package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, PresenterTUI, cfg.Presenter)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "gpt-4o-mini", cfg.ModelName)
	assert.False(t, cfg.DedupeActivations)
}

func TestLoadConfig_FromFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	content := `
log_level: debug
dedupe_activations: true
presenter: script
answers_file: answers.yaml
output_dir: out
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DedupeActivations)
	assert.Equal(t, PresenterScript, cfg.Presenter)
	assert.Equal(t, "answers.yaml", cfg.AnswersFile)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, "gpt-4o-mini", cfg.ModelName)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STEPSEQ_LOG_LEVEL", "warn")
	t.Setenv("STEPSEQ_DEDUPE_ACTIVATIONS", "true")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.DedupeActivations)
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "unknown presenter", content: "presenter: gui\n", wantErr: "unknown presenter"},
		{name: "script without answers", content: "presenter: script\n", wantErr: "requires answers_file"},
		{name: "malformed yaml", content: "presenter: [\n", wantErr: "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.content), 0644))

			_, err := LoadConfig(dir)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_OverridesBeforeValidation(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("presenter: script\n"), 0644))

	cfg, err := LoadConfig(dir, func(c *Config) { c.AnswersFile = "answers.yaml" })
	require.NoError(t, err)
	assert.Equal(t, PresenterScript, cfg.Presenter)
	assert.Equal(t, "answers.yaml", cfg.AnswersFile)
}
