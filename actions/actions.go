package actions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/santiagomed/stepseq/core"
	"github.com/santiagomed/stepseq/fs"
	"github.com/santiagomed/stepseq/llm"
	"github.com/santiagomed/stepseq/logger"
	"github.com/santiagomed/stepseq/utils"
)

// Env holds the collaborators built-in actions use.
type Env struct {
	FS     *fs.FileSystem
	LLM    llm.Client
	Out    io.Writer
	Logger logger.Logger
}

// Params are the settings of one action as written in a workflow file.
type Params map[string]any

// Factory validates params and returns the action they describe.
type Factory func(env *Env, params Params) (core.Action, error)

var actionMap = map[string]Factory{
	"set":      newSetAction,
	"print":    newPrintAction,
	"write":    newWriteAction,
	"mkdir":    newMkdirAction,
	"complete": newCompleteAction,
	"fail":     newFailAction,
	"cancel":   newCancelAction,
}

// Names returns the built-in action names, sorted.
func Names() []string {
	names := make([]string, 0, len(actionMap))
	for name := range actionMap {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownActionError is returned by Build for a name with no built-in action.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// Build returns the named action configured with params.
func Build(name string, env *Env, params Params) (core.Action, error) {
	factory, ok := actionMap[name]
	if !ok {
		return nil, &UnknownActionError{Name: name}
	}
	if env == nil {
		env = &Env{}
	}
	if env.Out == nil {
		env.Out = os.Stdout
	}
	if env.Logger == nil {
		env.Logger = logger.NewNullLogger()
	}
	action, err := factory(env, params)
	if err != nil {
		return nil, fmt.Errorf("action %s: %w", name, err)
	}
	return action, nil
}

// Lookup returns the scalar parameter under key as a string.
func (p Params) Lookup(key string) (string, bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", false, nil
	}
	switch t := v.(type) {
	case string:
		return t, true, nil
	case int, int64, float64, bool:
		return fmt.Sprint(t), true, nil
	default:
		return "", false, fmt.Errorf("parameter %s must be a scalar, got %T", key, v)
	}
}

func (p Params) requiredString(key string) (string, error) {
	s, ok, err := p.Lookup(key)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", fmt.Errorf("missing required parameter %s", key)
	}
	return s, nil
}

func (p Params) template(key string, required bool) (*Template, error) {
	var (
		text string
		err  error
	)
	if required {
		text, err = p.requiredString(key)
	} else {
		text, _, err = p.Lookup(key)
	}
	if err != nil {
		return nil, err
	}
	return ParseTemplate(key, text)
}

func newSetAction(env *Env, params Params) (core.Action, error) {
	key, err := params.requiredString("key")
	if err != nil {
		return nil, err
	}
	value, err := params.template("value", false)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, state *core.State) error {
		v, err := value.Render(state)
		if err != nil {
			return err
		}
		state.Set(key, v)
		env.Logger.Debug(fmt.Sprintf("Set %s", key))
		return nil
	}, nil
}

func newPrintAction(env *Env, params Params) (core.Action, error) {
	message, err := params.template("message", true)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, state *core.State) error {
		msg, err := message.Render(state)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(env.Out, msg); err != nil {
			return fmt.Errorf("failed to print message: %w", err)
		}
		return nil
	}, nil
}

func newWriteAction(env *Env, params Params) (core.Action, error) {
	if env.FS == nil {
		return nil, errors.New("no file system configured")
	}
	target, err := params.template("path", true)
	if err != nil {
		return nil, err
	}
	content, err := params.template("content", false)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, state *core.State) error {
		p, err := renderPath(target, state)
		if err != nil {
			return err
		}
		if env.FS.IsDir(p) {
			return fmt.Errorf("cannot write %s: is a directory", p)
		}
		body, err := content.Render(state)
		if err != nil {
			return err
		}
		env.Logger.Debug(fmt.Sprintf("Writing file %s", p))
		return env.FS.WriteFile(p, body)
	}, nil
}

func newMkdirAction(env *Env, params Params) (core.Action, error) {
	if env.FS == nil {
		return nil, errors.New("no file system configured")
	}
	target, err := params.template("path", true)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, state *core.State) error {
		p, err := renderPath(target, state)
		if err != nil {
			return err
		}
		if env.FS.Exists(p) && !env.FS.IsDir(p) {
			return fmt.Errorf("cannot create directory %s: a file is in the way", p)
		}
		env.Logger.Debug(fmt.Sprintf("Creating directory %s", p))
		return env.FS.MkdirAll(p)
	}, nil
}

func newCompleteAction(env *Env, params Params) (core.Action, error) {
	if env.LLM == nil {
		return nil, errors.New("no completion client configured, set openai_api_key")
	}
	key, err := params.requiredString("key")
	if err != nil {
		return nil, err
	}
	prompt, err := params.template("prompt", true)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, state *core.State) error {
		p, err := prompt.Render(state)
		if err != nil {
			return err
		}
		env.Logger.Debug(fmt.Sprintf("Requesting completion for %s", key))
		out, err := env.LLM.GetCompletion(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to complete prompt for %s: %w", key, err)
		}
		state.Set(key, out)
		return nil
	}, nil
}

func newFailAction(env *Env, params Params) (core.Action, error) {
	message, err := params.template("message", false)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, state *core.State) error {
		msg, err := message.Render(state)
		if err != nil {
			return err
		}
		if msg == "" {
			msg = "workflow requested failure"
		}
		return errors.New(msg)
	}, nil
}

func newCancelAction(env *Env, params Params) (core.Action, error) {
	return func(ctx context.Context, state *core.State) error {
		return core.ErrCancelled
	}, nil
}

// renderPath renders t and confines the result below the file system root.
func renderPath(t *Template, state *core.State) (string, error) {
	raw, err := t.Render(state)
	if err != nil {
		return "", err
	}
	p := utils.SanitizeFilePath(raw)
	if p == "" {
		return "", fmt.Errorf("path %q resolves to nothing", raw)
	}
	return path.Clean(p), nil
}
