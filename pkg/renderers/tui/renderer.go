package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/sanitize"
	"github.com/goliatone/go-formsuite/pkg/validation"
	"github.com/goliatone/go-formsuite/pkg/visibility"
)

// Name identifies the terminal renderer in a render.Registry.
const Name = "tui"

const skipLabel = "(skip)"

var _ render.Renderer = (*Renderer)(nil)

// Renderer implements render.Renderer for terminal-driven fill sessions. It
// walks the form in order, asks one prompt per visible field, re-asks until
// the answer validates and serializes the collected submission.
type Renderer struct {
	driver            PromptDriver
	outputFormat      OutputFormat
	uploader          Uploader
	validator         *validation.Validator
	types             *fieldtypes.Registry
	confirmSubmit     bool
	submitTransformer SubmitTransformer
	theme             Theme
}

// New constructs a TUI renderer with defaults (survey driver on stdio, JSON
// output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		driver:       newSurveyDriver(),
		outputFormat: OutputFormatJSON,
		validator:    validation.New(),
		types:        fieldtypes.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every visible field and returns the serialized answers.
// opts.Values prefill defaults and opts.Errors are shown before the matching
// prompt.
func (r *Renderer) Render(ctx context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	values, err := r.Fill(ctx, form, opts)
	if err != nil {
		return nil, err
	}
	return r.serialize(values)
}

// Fill runs the prompt session and returns the answers keyed by field id.
// Answers for fields hidden by earlier answers and for presentational fields
// are omitted.
func (r *Renderer) Fill(ctx context.Context, form model.Form, opts render.RenderOptions) (map[string]any, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	if title := strings.TrimSpace(form.Title); title != "" {
		if err := r.info(ctx, r.theme.InfoPrefix+title); err != nil {
			return nil, err
		}
	}
	for _, message := range opts.FormErrors {
		if err := r.info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return nil, err
		}
	}

	state := NewState(opts.Values, opts.Errors)
	for _, field := range form.Fields {
		if !visibility.Visible(field, state.Values()) {
			state.Drop(field.ID)
			continue
		}
		if err := r.promptField(ctx, field, state); err != nil {
			return nil, err
		}
	}

	values := state.Snapshot()
	if errs := r.validator.ValidateSubmission(form, values); !errs.Empty() {
		return nil, &validation.FieldValidationError{Errors: errs}
	}

	if r.confirmSubmit {
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit this response?", Default: true})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrAborted
		}
	}

	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return values, nil
}

func (r *Renderer) promptField(ctx context.Context, field model.Field, state *State) error {
	desc, err := r.types.Describe(field.Type)
	if err != nil {
		return fmt.Errorf("tui: field %q: %w", field.ID, err)
	}
	if desc.Presentational {
		state.Drop(field.ID)
		return r.presentational(ctx, field)
	}
	for _, message := range state.ErrorsFor(field.ID) {
		if err := r.info(ctx, r.theme.ErrorPrefix+message); err != nil {
			return err
		}
	}

	for {
		value, err := r.ask(ctx, field, state)
		if err != nil {
			if errors.Is(err, ErrNoUploader) {
				if err := r.info(ctx, r.theme.ErrorPrefix+"Enter a URL; local files cannot be uploaded from here"); err != nil {
					return err
				}
				continue
			}
			return err
		}
		problems := r.validator.ValidateField(field, value)
		if len(problems) == 0 {
			if validation.IsEmpty(value) {
				state.Drop(field.ID)
			} else {
				state.SetValue(field.ID, value)
			}
			return nil
		}
		for _, problem := range problems {
			if err := r.info(ctx, fmt.Sprintf("%s%s: %s", r.theme.ErrorPrefix, displayLabel(field), problem)); err != nil {
				return err
			}
		}
	}
}

func (r *Renderer) presentational(ctx context.Context, field model.Field) error {
	switch field.Type {
	case model.FieldTypeDivider:
		if label := strings.TrimSpace(field.Label); label != "" && label != "Divider" {
			return r.info(ctx, "── "+label+" ──")
		}
		return r.info(ctx, "────────")
	case model.FieldTypeHTML:
		if text := strings.TrimSpace(sanitize.Text(field.Content)); text != "" {
			return r.info(ctx, r.theme.InfoPrefix+text)
		}
	}
	return nil
}

func (r *Renderer) ask(ctx context.Context, field model.Field, state *State) (any, error) {
	label := r.theme.PromptPrefix + displayLabel(field)
	help := field.HelpText
	current, _ := state.GetValue(field.ID)
	if current == nil {
		current = field.DefaultValue
	}

	switch field.Type {
	case model.FieldTypeTextarea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: stringValue(current), Help: help})
	case model.FieldTypeSelect, model.FieldTypeRadio:
		return r.askChoice(ctx, field, label, help, current)
	case model.FieldTypeCheckbox:
		return r.askMulti(ctx, field, label, help, current)
	case model.FieldTypeRating:
		return r.askRating(ctx, field, label, help, current)
	case model.FieldTypeNumber:
		raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: stringValue(current), Help: help})
		if err != nil {
			return nil, err
		}
		return numberAnswer(raw), nil
	case model.FieldTypeFile:
		return r.askFile(ctx, label, help, current)
	case model.FieldTypeSignature:
		if help == "" {
			help = "Type your full name to sign"
		}
		raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: stringValue(current), Help: help})
		return strings.TrimSpace(raw), err
	default:
		if help == "" {
			help = field.Placeholder
		}
		raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: stringValue(current), Help: help})
		return strings.TrimSpace(raw), err
	}
}

func (r *Renderer) askChoice(ctx context.Context, field model.Field, label, help string, current any) (any, error) {
	options := optionLabels(field)
	offset := 0
	if !field.Required {
		options = append([]string{skipLabel}, options...)
		offset = 1
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      options,
		DefaultIndex: optionIndex(field, stringValue(current)) + offset,
		Help:         help,
	})
	if err != nil {
		return nil, err
	}
	idx -= offset
	if idx < 0 || idx >= len(field.Options) {
		return "", nil
	}
	return field.Options[idx].Value, nil
}

func (r *Renderer) askMulti(ctx context.Context, field model.Field, label, help string, current any) (any, error) {
	var defaults []int
	for _, value := range stringValues(current) {
		if idx := optionIndex(field, value); idx >= 0 {
			defaults = append(defaults, idx)
		}
	}
	indices, err := r.driver.MultiSelect(ctx, SelectConfig{
		Message:  label,
		Options:  optionLabels(field),
		Defaults: defaults,
		Help:     help,
	})
	if err != nil {
		return nil, err
	}
	picked := make([]any, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(field.Options) {
			picked = append(picked, field.Options[idx].Value)
		}
	}
	return picked, nil
}

func (r *Renderer) askRating(ctx context.Context, field model.Field, label, help string, current any) (any, error) {
	options := []string{"1", "2", "3", "4", "5"}
	offset := 0
	if !field.Required {
		options = append([]string{skipLabel}, options...)
		offset = 1
	}
	def := -1
	if n, err := strconv.Atoi(stringValue(current)); err == nil {
		def = n - 1 + offset
	}
	idx, err := r.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: def, Help: help})
	if err != nil {
		return nil, err
	}
	if idx-offset < 0 {
		return "", nil
	}
	return idx - offset + 1, nil
}

func (r *Renderer) askFile(ctx context.Context, label, help string, current any) (any, error) {
	if help == "" {
		help = "Enter a URL or a local file path"
	}
	def := ""
	switch ref := current.(type) {
	case *model.FileReference:
		if ref != nil {
			def = ref.URL
		}
	case model.FileReference:
		def = ref.URL
	}
	raw, err := r.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: help})
	if err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := url.Parse(raw); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		return &model.FileReference{URL: raw}, nil
	}
	if r.uploader == nil {
		return nil, ErrNoUploader
	}
	ref, err := r.uploader(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("tui: upload %s: %w", raw, err)
	}
	return &ref, nil
}

func (r *Renderer) info(ctx context.Context, msg string) error {
	return r.driver.Info(ctx, msg)
}

func (r *Renderer) serialize(values map[string]any) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(map[string]any{"data": values})
	}
}

func displayLabel(field model.Field) string {
	label := field.Label
	if label == "" {
		label = field.ID
	}
	if field.Required {
		label += " *"
	}
	return label
}

func optionLabels(field model.Field) []string {
	out := make([]string, 0, len(field.Options))
	for _, opt := range field.Options {
		out = append(out, opt.Label)
	}
	return out
}

func optionIndex(field model.Field, value string) int {
	if value == "" {
		return -1
	}
	for idx, opt := range field.Options {
		if opt.Value == value {
			return idx
		}
	}
	return -1
}

func numberAnswer(raw string) any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func stringValues(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, stringValue(item))
		}
		return out
	case nil:
		return nil
	default:
		return []string{stringValue(v)}
	}
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	for key, value := range values {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				flattened.Add(key+"[]", stringValue(item))
			}
		case *model.FileReference:
			if v != nil {
				flattened.Set(key, v.URL)
			}
		default:
			flattened.Set(key, stringValue(v))
		}
	}
	return flattened.Encode()
}

func prettyPrint(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		switch v := values[key].(type) {
		case []any:
			for idx, item := range v {
				fmt.Fprintf(&b, "%s[%d]=%s\n", key, idx, stringValue(item))
			}
		case *model.FileReference:
			if v != nil {
				fmt.Fprintf(&b, "%s=%s\n", key, v.URL)
			}
		default:
			fmt.Fprintf(&b, "%s=%s\n", key, stringValue(v))
		}
	}
	return b.String()
}
