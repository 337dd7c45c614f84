package actions

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/santiagomed/stepseq/core"
)

// Template is a text/template rendered against a snapshot of the shared
// state. A reference to a key that is not in the state is an error.
type Template struct {
	source string
	tmpl   *template.Template
}

// ParseTemplate compiles text. Syntax errors surface here, before any step runs.
func ParseTemplate(name, text string) (*Template, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{source: text, tmpl: tmpl}, nil
}

func (t *Template) Source() string { return t.source }

func (t *Template) Render(state *core.State) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, state.Snapshot()); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.tmpl.Name(), err)
	}
	return sb.String(), nil
}
