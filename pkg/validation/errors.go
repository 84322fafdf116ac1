package validation

import (
	"sort"
	"strings"
)

// ErrorMap maps a key (field id for submissions, dotted schema path for
// forms) to its violation messages.
type ErrorMap map[string][]string

// Add appends messages under key, skipping blanks.
func (m ErrorMap) Add(key string, messages ...string) {
	for _, message := range messages {
		message = strings.TrimSpace(message)
		if message == "" {
			continue
		}
		m[key] = append(m[key], message)
	}
}

// Merge copies every entry of other into m, prefixing keys when prefix is
// non-empty.
func (m ErrorMap) Merge(prefix string, other ErrorMap) {
	for key, messages := range other {
		if prefix != "" {
			key = prefix + "." + key
		}
		m.Add(key, messages...)
	}
}

// Empty reports whether the map holds no messages.
func (m ErrorMap) Empty() bool {
	for _, messages := range m {
		if len(messages) > 0 {
			return false
		}
	}
	return true
}

// Keys returns the keys with messages, sorted.
func (m ErrorMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for key, messages := range m {
		if len(messages) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// First returns the first message for key.
func (m ErrorMap) First(key string) string {
	if messages := m[key]; len(messages) > 0 {
		return messages[0]
	}
	return ""
}

// Issue is a flattened, serialisable violation.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Issues flattens the map in key order. Field is set when the key addresses a
// field (`fields.<id>.<attr>` or a bare submission field id).
func (m ErrorMap) Issues() []Issue {
	var out []Issue
	for _, key := range m.Keys() {
		field := fieldFromKey(key)
		for _, message := range m[key] {
			out = append(out, Issue{Path: key, Field: field, Message: message})
		}
	}
	return out
}

func fieldFromKey(key string) string {
	if !strings.HasPrefix(key, "fields.") {
		if key == "title" || key == "fields" {
			return ""
		}
		return key
	}
	rest := strings.TrimPrefix(key, "fields.")
	if idx := strings.LastIndex(rest, "."); idx > 0 {
		return rest[:idx]
	}
	return rest
}

// SchemaValidationError blocks a save: the form fails its completeness
// checks.
type SchemaValidationError struct {
	Errors ErrorMap
}

func (e *SchemaValidationError) Error() string {
	return "validation: form schema invalid: " + summarize(e.Errors)
}

// Fields returns the offending keys.
func (e *SchemaValidationError) Fields() []string {
	return e.Errors.Keys()
}

// FieldValidationError reports per-field submit-time violations keyed by
// field id.
type FieldValidationError struct {
	Errors ErrorMap
}

func (e *FieldValidationError) Error() string {
	return "validation: submission invalid: " + summarize(e.Errors)
}

// Fields returns the offending field ids.
func (e *FieldValidationError) Fields() []string {
	return e.Errors.Keys()
}

func summarize(errs ErrorMap) string {
	keys := errs.Keys()
	if len(keys) == 0 {
		return "no details"
	}
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+strings.Join(errs[key], ", "))
	}
	return strings.Join(parts, "; ")
}
