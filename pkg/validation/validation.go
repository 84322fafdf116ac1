package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/visibility"
)

// Messages shared by every surface.
const (
	MsgRequired      = "This field is required"
	MsgEmail         = "Please enter a valid email address"
	MsgPhone         = "Please enter a valid phone number"
	MsgURL           = "Please enter a valid URL"
	MsgNumber        = "Please enter a valid number"
	MsgOption        = "Please select a valid option"
	MsgRating        = "Rating must be between 1 and 5"
	MsgDate          = "Please enter a valid date"
	MsgTime          = "Please enter a valid time"
	MsgDatetime      = "Please enter a valid date and time"
	MsgTitle         = "Form title is required"
	MsgNoFields      = "Add at least one field"
	MsgLabel         = "Field label is required"
	MsgOptionsNeeded = "At least 2 options are required"
	MsgDuplicateID   = "Field id must be unique"
	MsgUnknownType   = "Unknown field type"
	MsgRedirectURL   = "Redirect URL must be an absolute http(s) URL"
)

// Accepted layouts for temporal fields.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DatetimeLayout = "2006-01-02T15:04"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

// MinLengthMessage formats the minimum length violation.
func MinLengthMessage(n int) string { return fmt.Sprintf("Minimum %d characters required", n) }

// MaxLengthMessage formats the maximum length violation.
func MaxLengthMessage(n int) string { return fmt.Sprintf("Maximum %d characters allowed", n) }

// MinValueMessage formats the minimum value violation.
func MinValueMessage(v float64) string { return "Minimum value is " + formatNumber(v) }

// MaxValueMessage formats the maximum value violation.
func MaxValueMessage(v float64) string { return "Maximum value is " + formatNumber(v) }

// Option configures a Validator.
type Option func(*Validator)

// WithRegistry swaps the field type registry consulted for structural rules.
func WithRegistry(reg *fieldtypes.Registry) Option {
	return func(v *Validator) {
		if reg != nil {
			v.registry = reg
		}
	}
}

// WithEvaluator swaps the visibility evaluator used by ValidateSubmission.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(v *Validator) {
		if eval != nil {
			v.evaluator = eval
		}
	}
}

// Validator applies field, form and submission rules. It holds no mutable
// state and is safe for concurrent use.
type Validator struct {
	registry  *fieldtypes.Registry
	evaluator visibility.Evaluator
}

// New constructs a Validator backed by the default registry.
func New(opts ...Option) *Validator {
	v := &Validator{
		registry:  fieldtypes.Default(),
		evaluator: visibility.Rules{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

var std = New()

// ValidateField checks value against field using the default validator.
func ValidateField(field model.Field, value any) []string {
	return std.ValidateField(field, value)
}

// ValidateForm checks schema completeness using the default validator.
func ValidateForm(form model.Form) ErrorMap {
	return std.ValidateForm(form)
}

// ValidateDefinition checks a single field definition using the default
// validator.
func ValidateDefinition(field model.Field) ErrorMap {
	return std.ValidateDefinition(field)
}

// ValidateSubmission checks every visible field using the default validator.
func ValidateSubmission(form model.Form, values map[string]any) ErrorMap {
	return std.ValidateSubmission(form, values)
}

// ValidateField returns the violations for value. Required short-circuits;
// the remaining type checks are independent.
func (v *Validator) ValidateField(field model.Field, value any) []string {
	desc, err := v.registry.Describe(field.Type)
	if err == nil && desc.Presentational {
		return nil
	}
	if IsEmpty(value) {
		if field.Required {
			return []string{MsgRequired}
		}
		return nil
	}

	var errs []string
	switch field.Type {
	case model.FieldTypeEmail:
		if !emailPattern.MatchString(stringValue(value)) {
			errs = append(errs, MsgEmail)
		}
	case model.FieldTypePhone:
		if !phonePattern.MatchString(stringValue(value)) {
			errs = append(errs, MsgPhone)
		}
	case model.FieldTypeURL:
		if !absoluteURI(stringValue(value)) {
			errs = append(errs, MsgURL)
		}
	case model.FieldTypeNumber:
		errs = append(errs, checkNumber(field, value, desc)...)
	case model.FieldTypeSelect, model.FieldTypeRadio, model.FieldTypeCheckbox:
		if !validChoice(field, value) {
			errs = append(errs, MsgOption)
		}
	case model.FieldTypeRating:
		if !validRating(value) {
			errs = append(errs, MsgRating)
		}
	case model.FieldTypeDate:
		if !parsesAs(stringValue(value), DateLayout) {
			errs = append(errs, MsgDate)
		}
	case model.FieldTypeTime:
		if !parsesAs(stringValue(value), TimeLayout, "15:04:05") {
			errs = append(errs, MsgTime)
		}
	case model.FieldTypeDatetime:
		if !parsesAs(stringValue(value), DatetimeLayout, "2006-01-02T15:04:05", time.RFC3339) {
			errs = append(errs, MsgDatetime)
		}
	}

	if err == nil && (desc.Accepts(fieldtypes.KeyMinLength) || desc.Accepts(fieldtypes.KeyMaxLength)) {
		errs = append(errs, checkLength(field, stringValue(value))...)
	}
	return errs
}

// ValidateDefinition checks the save-time requirements of one field. Keys are
// attribute names (`label`, `options`, `type`).
func (v *Validator) ValidateDefinition(field model.Field) ErrorMap {
	errs := ErrorMap{}
	if strings.TrimSpace(field.Label) == "" {
		errs.Add("label", MsgLabel)
	}
	desc, err := v.registry.Describe(field.Type)
	if err != nil {
		errs.Add("type", MsgUnknownType)
		return errs
	}
	if desc.NeedsOptions && len(field.Options) < fieldtypes.MinOptions {
		errs.Add("options", MsgOptionsNeeded)
	}
	return errs
}

// ValidateForm returns no errors iff the title is non-empty, the form has at
// least one field, every field has a label, every choice field has at least
// two options, field ids are unique and any redirect URL is absolute http(s).
func (v *Validator) ValidateForm(form model.Form) ErrorMap {
	errs := ErrorMap{}
	if strings.TrimSpace(form.Title) == "" {
		errs.Add("title", MsgTitle)
	}
	if len(form.Fields) == 0 {
		errs.Add("fields", MsgNoFields)
	}
	if redirect := strings.TrimSpace(form.Settings.RedirectURL); redirect != "" && !model.SafeRedirectURL(redirect) {
		errs.Add("settings.redirectUrl", MsgRedirectURL)
	}
	seen := make(map[string]int, len(form.Fields))
	for idx, field := range form.Fields {
		key := fieldKey(field, idx)
		if field.ID != "" {
			seen[field.ID]++
			if seen[field.ID] == 2 {
				errs.Add(key+".id", MsgDuplicateID)
			}
		}
		errs.Merge(key, v.ValidateDefinition(field))
	}
	return errs
}

// ValidateSubmission validates every field visible under values, keyed by
// field id. Hidden fields are skipped.
func (v *Validator) ValidateSubmission(form model.Form, values map[string]any) ErrorMap {
	errs := ErrorMap{}
	for _, field := range form.Fields {
		if !v.Visible(field, values) {
			continue
		}
		errs.Add(field.ID, v.ValidateField(field, values[field.ID])...)
	}
	return errs
}

// Visible reports whether field is shown under values according to the
// configured evaluator. Evaluation errors count as hidden.
func (v *Validator) Visible(field model.Field, values map[string]any) bool {
	visible, err := v.evaluator.Eval(field, visibility.Context{Values: values})
	return err == nil && visible
}

func fieldKey(field model.Field, idx int) string {
	if field.ID != "" {
		return "fields." + field.ID
	}
	return "fields." + strconv.Itoa(idx)
}

// IsEmpty reports whether value counts as absent: nil, an empty string, an
// empty collection or a nil file reference.
func IsEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	case *model.FileReference:
		return v == nil || v.URL == ""
	case model.FileReference:
		return v.URL == ""
	default:
		return false
	}
}

func checkLength(field model.Field, value string) []string {
	var errs []string
	length := utf8.RuneCountInString(value)
	if minLen := field.Validation.MinLength; minLen != nil && length < *minLen {
		errs = append(errs, MinLengthMessage(*minLen))
	}
	if maxLen := field.Validation.MaxLength; maxLen != nil && length > *maxLen {
		errs = append(errs, MaxLengthMessage(*maxLen))
	}
	return errs
}

func checkNumber(field model.Field, value any, desc fieldtypes.Descriptor) []string {
	number, ok := numberValue(value)
	if !ok {
		return []string{MsgNumber}
	}
	var errs []string
	if lo := field.Validation.Min; lo != nil && desc.Accepts(fieldtypes.KeyMin) && number < *lo {
		errs = append(errs, MinValueMessage(*lo))
	}
	if hi := field.Validation.Max; hi != nil && desc.Accepts(fieldtypes.KeyMax) && number > *hi {
		errs = append(errs, MaxValueMessage(*hi))
	}
	return errs
}

func numberValue(value any) (float64, bool) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func validChoice(field model.Field, value any) bool {
	if len(field.Options) == 0 {
		return true
	}
	allowed := make(map[string]struct{}, len(field.Options))
	for _, opt := range field.Options {
		allowed[opt.Value] = struct{}{}
	}
	var picked []string
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			picked = append(picked, stringValue(item))
		}
	case []string:
		picked = v
	default:
		picked = []string{stringValue(value)}
	}
	for _, item := range picked {
		if _, ok := allowed[item]; !ok {
			return false
		}
	}
	return true
}

func validRating(value any) bool {
	n, ok := numberValue(value)
	if !ok || n != math.Trunc(n) {
		return false
	}
	return n >= 1 && n <= 5
}

func absoluteURI(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" {
		return false
	}
	return parsed.Host != "" || parsed.Opaque != ""
}

func parsesAs(raw string, layouts ...string) bool {
	raw = strings.TrimSpace(raw)
	for _, layout := range layouts {
		if _, err := time.Parse(layout, raw); err == nil {
			return true
		}
	}
	return false
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return formatNumber(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(value)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
