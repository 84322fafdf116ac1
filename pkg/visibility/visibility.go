package visibility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// Evaluator determines whether a field should be visible given the current
// values of the form and optional extra context.
type Evaluator interface {
	Eval(field model.Field, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current answers
// keyed by field id while Extras allows callers to inject arbitrary context
// such as user roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field model.Field, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(field model.Field, ctx Context) (bool, error) {
	return fn(field, ctx)
}

// Rules evaluates the declarative conditional attached to each field.
type Rules struct{}

// Eval implements Evaluator.
func (Rules) Eval(field model.Field, ctx Context) (bool, error) {
	rule := field.Conditional
	if !rule.Enabled || strings.TrimSpace(rule.Field) == "" {
		return true, nil
	}
	matched := Matches(ctx.Values[rule.Field], rule.Value)
	switch rule.Action {
	case model.ConditionalShow, "":
		return matched, nil
	case model.ConditionalHide:
		return !matched, nil
	default:
		return false, fmt.Errorf("visibility: field %q: unsupported action %q", field.ID, rule.Action)
	}
}

// Visible reports whether field renders under values. Rules with an unknown
// action hide the field.
func Visible(field model.Field, values map[string]any) bool {
	ok, err := Rules{}.Eval(field, Context{Values: values})
	return err == nil && ok
}

// VisibleFields returns the fields of form that render under values, in
// order.
func VisibleFields(form model.Form, values map[string]any) []model.Field {
	out := make([]model.Field, 0, len(form.Fields))
	for _, field := range form.Fields {
		if Visible(field, values) {
			out = append(out, field)
		}
	}
	return out
}

// Conditional reports whether the field carries an active rule.
func Conditional(field model.Field) bool {
	return field.Conditional.Enabled && strings.TrimSpace(field.Conditional.Field) != ""
}

// Matches compares a controlling value with the rule target. Multi-value
// answers match when any element equals the target.
func Matches(value any, target string) bool {
	switch v := value.(type) {
	case nil:
		return target == ""
	case []any:
		for _, item := range v {
			if Matches(item, target) {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if item == target {
				return true
			}
		}
		return false
	default:
		return coerceString(value) == target
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(value)
	}
}
