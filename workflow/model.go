package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Workflow is a parsed workflow file. Its top-level steps form the chain.
type Workflow struct {
	Name string `yaml:"name"`
	// Values seed the shared state before the first step.
	Values map[string]any `yaml:"values,omitempty"`
	Steps  []Entry        `yaml:"steps"`
}

// Entry is one step declaration. Exactly one of Prompt, Path, If, Do or Ref
// is set.
type Entry struct {
	ID     string     `yaml:"id,omitempty"`
	Prompt *PromptDef `yaml:"prompt,omitempty"`
	Path   *PathDef   `yaml:"path,omitempty"`
	If     *IfDef     `yaml:"if,omitempty"`
	Do     *DoDef     `yaml:"do,omitempty"`
	Ref    string     `yaml:"ref,omitempty"`
}

type PromptDef struct {
	Title            string `yaml:"title"`
	Key              string `yaml:"key"`
	Initial          string `yaml:"initial,omitempty"`
	ErrorIfCancelled bool   `yaml:"error_if_cancelled,omitempty"`
}

type PathDef struct {
	Title            string   `yaml:"title"`
	Key              string   `yaml:"key"`
	Types            []string `yaml:"types,omitempty"`
	Directories      bool     `yaml:"directories,omitempty"`
	ErrorIfCancelled bool     `yaml:"error_if_cancelled,omitempty"`
}

type IfDef struct {
	Title        string    `yaml:"title,omitempty"`
	When         Condition `yaml:"when"`
	Presentation bool      `yaml:"presentation,omitempty"`
	Then         []Entry   `yaml:"then"`
}

// Condition is a test over one state key.
type Condition struct {
	Key   string `yaml:"key"`
	Op    string `yaml:"op"`
	Value string `yaml:"value,omitempty"`
	Not   bool   `yaml:"not,omitempty"`
}

// DoDef runs a built-in action. Every key other than action, title and
// presentation is passed to the action as a parameter.
type DoDef struct {
	Action       string
	Title        string
	Presentation bool
	Params       map[string]any
}

func (d *DoDef) UnmarshalYAML(value *yaml.Node) error {
	raw := map[string]any{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	action, ok := raw["action"].(string)
	if !ok || action == "" {
		return fmt.Errorf("line %d: do requires an action name", value.Line)
	}
	d.Action = action
	delete(raw, "action")

	if v, found := raw["title"]; found {
		title, ok := v.(string)
		if !ok {
			return fmt.Errorf("line %d: do title must be a string", value.Line)
		}
		d.Title = title
		delete(raw, "title")
	}
	if v, found := raw["presentation"]; found {
		presentation, ok := v.(bool)
		if !ok {
			return fmt.Errorf("line %d: do presentation must be a boolean", value.Line)
		}
		d.Presentation = presentation
		delete(raw, "presentation")
	}
	d.Params = raw
	return nil
}

func (e Entry) kind() (string, error) {
	var kinds []string
	if e.Prompt != nil {
		kinds = append(kinds, "prompt")
	}
	if e.Path != nil {
		kinds = append(kinds, "path")
	}
	if e.If != nil {
		kinds = append(kinds, "if")
	}
	if e.Do != nil {
		kinds = append(kinds, "do")
	}
	if e.Ref != "" {
		kinds = append(kinds, "ref")
	}
	switch len(kinds) {
	case 0:
		return "", fmt.Errorf("step declares none of prompt, path, if, do or ref")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("step declares more than one of %v", kinds)
	}
}
