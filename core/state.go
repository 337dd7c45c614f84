package core

import (
	"fmt"
	"sort"
)

// State is the key/value bag shared by every step of one run. It is not
// safe for concurrent use; the sequencer only ever runs one step at a time.
type State struct {
	values map[string]any
}

func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Set stores value under key, replacing any previous value.
func (s *State) Set(key string, value any) {
	s.values[key] = value
}

// Get returns the value under key, or nil.
func (s *State) Get(key string) any {
	return s.values[key]
}

func (s *State) Lookup(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the value under key formatted as a string. Absent keys and
// nil values yield "".
func (s *State) String(key string) string {
	v, ok := s.values[key]
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

func (s *State) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *State) Delete(key string) {
	delete(s.values, key)
}

func (s *State) Len() int {
	return len(s.values)
}

// Keys returns the keys in sorted order.
func (s *State) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a shallow copy of the values.
func (s *State) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}
