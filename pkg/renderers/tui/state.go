package tui

import (
	"maps"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// State tracks collected answers and server-provided errors keyed by field
// id. Answers are visible to later conditional fields as they are collected.
type State struct {
	values map[string]any
	errors map[string][]string
}

// NewState seeds the state with prefilled values and errors.
func NewState(prefill map[string]any, errs map[string][]string) *State {
	values := model.CloneValues(prefill)
	if values == nil {
		values = make(map[string]any)
	}
	out := make(map[string][]string, len(errs))
	for key, messages := range errs {
		out[key] = append([]string(nil), messages...)
	}
	return &State{values: values, errors: out}
}

// Values returns the current value map (mutable).
func (s *State) Values() map[string]any {
	if s == nil {
		return nil
	}
	return s.values
}

// Snapshot returns a copy of the answers collected so far.
func (s *State) Snapshot() map[string]any {
	if s == nil {
		return nil
	}
	return maps.Clone(s.values)
}

// ErrorsFor returns the errors attached to a field id.
func (s *State) ErrorsFor(id string) []string {
	if s == nil || len(s.errors) == 0 {
		return nil
	}
	return s.errors[id]
}

// GetValue returns the answer for a field id.
func (s *State) GetValue(id string) (any, bool) {
	if s == nil {
		return nil, false
	}
	value, ok := s.values[id]
	return value, ok
}

// SetValue records an answer and clears any stale server error for it.
func (s *State) SetValue(id string, value any) {
	if s == nil {
		return
	}
	s.values[id] = value
	delete(s.errors, id)
}

// Drop forgets an answer, used for fields hidden by earlier answers.
func (s *State) Drop(id string) {
	if s == nil {
		return
	}
	delete(s.values, id)
}
