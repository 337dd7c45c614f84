package workflow

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/santiagomed/stepseq/fs"
)

// ErrEmptyWorkflowFile is returned when the workflow file has no content.
var ErrEmptyWorkflowFile = errors.New("empty workflow file")

// ErrInvalidWorkflowYAML wraps a YAML syntax or shape error.
type ErrInvalidWorkflowYAML struct {
	Cause error
}

func (e *ErrInvalidWorkflowYAML) Error() string {
	return fmt.Sprintf("invalid workflow YAML: %v", e.Cause)
}

func (e *ErrInvalidWorkflowYAML) Unwrap() error {
	return e.Cause
}

// FromYAML parses a workflow. Unknown keys are rejected.
func FromYAML(data []byte) (*Workflow, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyWorkflowFile
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	wf := &Workflow{}
	if err := dec.Decode(wf); err != nil {
		return nil, &ErrInvalidWorkflowYAML{Cause: err}
	}
	return wf, nil
}

// Load reads and parses the workflow file at path.
func Load(fsys *fs.FileSystem, path string) (*Workflow, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	wf, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}
