package render

import (
	"strings"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
)

// FieldSubset limits rendering to fields matching any of the listed ids,
// types or palette categories. An empty subset matches everything.
type FieldSubset struct {
	IDs        []string
	Types      []string
	Categories []string
}

// Empty reports whether no filter is configured.
func (s FieldSubset) Empty() bool {
	return len(normaliseTokens(s.IDs)) == 0 &&
		len(normaliseTokens(s.Types)) == 0 &&
		len(normaliseTokens(s.Categories)) == 0
}

// ParseFieldSubset reads comma separated lists, as passed on the command
// line or in query strings.
func ParseFieldSubset(ids, types, categories string) FieldSubset {
	return FieldSubset{
		IDs:        parseTokenList(ids),
		Types:      parseTokenList(types),
		Categories: parseTokenList(categories),
	}
}

// ApplySubset removes fields that do not match subset. Order is preserved.
func ApplySubset(form *model.Form, subset FieldSubset) {
	if form == nil || subset.Empty() {
		return
	}
	ids := normaliseTokens(subset.IDs)
	types := normaliseTokens(subset.Types)
	categories := normaliseTokens(subset.Categories)

	filtered := make([]model.Field, 0, len(form.Fields))
	for _, field := range form.Fields {
		if matchesSubset(field, ids, types, categories) {
			filtered = append(filtered, field)
		}
	}
	if len(filtered) == 0 {
		filtered = nil
	}
	form.Fields = filtered
}

func matchesSubset(field model.Field, ids, types, categories map[string]struct{}) bool {
	if _, ok := ids[normaliseToken(field.ID)]; ok {
		return true
	}
	if _, ok := types[normaliseToken(string(field.Type))]; ok {
		return true
	}
	if len(categories) > 0 {
		if desc, err := fieldtypes.Describe(field.Type); err == nil {
			if _, ok := categories[string(desc.Category)]; ok {
				return true
			}
		}
	}
	return false
}

func normaliseTokens(values []string) map[string]struct{} {
	result := make(map[string]struct{}, len(values))
	for _, value := range values {
		if token := normaliseToken(value); token != "" {
			result[token] = struct{}{}
		}
	}
	return result
}

func normaliseToken(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func parseTokenList(raw string) []string {
	var tokens []string
	for _, part := range strings.Split(raw, ",") {
		if token := strings.TrimSpace(part); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
