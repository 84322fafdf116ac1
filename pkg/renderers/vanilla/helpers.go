package vanilla

import (
	"sort"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

func componentControlID(fieldID string) string {
	trimmed := strings.TrimSpace(fieldID)
	if trimmed == "" {
		return ""
	}
	return "fs-" + trimmed
}

// labelSupportsFor reports whether the control is a single labellable
// element. Groups and composite widgets get a plain caption instead.
func labelSupportsFor(typ model.FieldType) bool {
	switch typ {
	case model.FieldTypeRadio, model.FieldTypeCheckbox, model.FieldTypeRating, model.FieldTypeSignature:
		return false
	default:
		return true
	}
}

// WidthClass returns the layout class for a field width, defaulting to full.
func WidthClass(width model.FieldWidth) string {
	switch width {
	case model.WidthHalf, model.WidthThird, model.WidthQuarter:
		return "fs-w-" + string(width)
	default:
		return "fs-w-full"
	}
}

// AlignClass returns the alignment class, defaulting to left.
func AlignClass(alignment model.Alignment) string {
	switch alignment {
	case model.AlignCenter, model.AlignRight:
		return "fs-align-" + string(alignment)
	default:
		return "fs-align-left"
	}
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value := strings.TrimSpace(vars[key])
		if value == "" || strings.ContainsAny(value, ";{}<>") {
			continue
		}
		parts = append(parts, key+": "+value)
	}
	return strings.Join(parts, "; ")
}

func mergeValues(form model.Form, values map[string]any) map[string]any {
	out := make(map[string]any, len(form.Fields)+len(values))
	for _, field := range form.Fields {
		if field.DefaultValue != nil {
			out[field.ID] = model.CloneValue(field.DefaultValue)
		}
	}
	for key, value := range values {
		out[key] = value
	}
	return out
}
