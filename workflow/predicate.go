package workflow

import (
	"context"
	"fmt"
	"regexp"

	"github.com/santiagomed/stepseq/core"
)

const (
	OpExists    = "exists"
	OpNonEmpty  = "nonempty"
	OpEquals    = "equals"
	OpNotEquals = "not_equals"
	OpMatches   = "matches"
)

// Predicate turns c into a core.Predicate. Regular expressions are compiled
// here so a bad pattern is reported while building.
func (c Condition) Predicate() (core.Predicate, error) {
	if c.Key == "" {
		return nil, fmt.Errorf("condition has no key")
	}

	var test func(state *core.State) bool
	switch c.Op {
	case OpExists:
		test = func(state *core.State) bool { return state.Has(c.Key) }
	case OpNonEmpty, "":
		test = func(state *core.State) bool { return state.String(c.Key) != "" }
	case OpEquals:
		test = func(state *core.State) bool { return state.Has(c.Key) && state.String(c.Key) == c.Value }
	case OpNotEquals:
		test = func(state *core.State) bool { return state.String(c.Key) != c.Value }
	case OpMatches:
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return nil, fmt.Errorf("condition on %s: invalid pattern: %w", c.Key, err)
		}
		test = func(state *core.State) bool { return state.Has(c.Key) && re.MatchString(state.String(c.Key)) }
	default:
		return nil, fmt.Errorf("condition on %s: unknown op %q", c.Key, c.Op)
	}

	return func(ctx context.Context, state *core.State) (bool, error) {
		return test(state) != c.Not, nil
	}, nil
}

func (c Condition) String() string {
	op := c.Op
	if op == "" {
		op = OpNonEmpty
	}
	s := c.Key + " " + op
	if c.Op == OpEquals || c.Op == OpNotEquals || c.Op == OpMatches {
		s += fmt.Sprintf(" %q", c.Value)
	}
	if c.Not {
		s = "not " + s
	}
	return s
}
