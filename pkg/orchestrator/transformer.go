package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// Transformer mutates a form before decorators run. Implementations can
// relabel fields, localise copy or inject tenant styling.
type Transformer interface {
	Transform(ctx context.Context, form *model.Form) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, form *model.Form) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, form *model.Form) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, form)
}

// PresetTransformer applies declarative overrides loaded from a YAML or JSON
// document. The shape supports form-level copy, styling and per-field
// patches keyed by field id:
//
//	title: Contact us
//	successMessage: Thanks!
//	styling:
//	  theme: classic
//	  primaryColor: "#0055aa"
//	fields:
//	  email:
//	    label: Work email
//	    required: true
//	    width: half
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Title          string                 `yaml:"title"`
	Description    string                 `yaml:"description"`
	SuccessMessage string                 `yaml:"successMessage"`
	ButtonText     string                 `yaml:"buttonText"`
	Styling        presetStyling          `yaml:"styling"`
	Fields         map[string]presetField `yaml:"fields"`
}

type presetStyling struct {
	Theme           string `yaml:"theme"`
	PrimaryColor    string `yaml:"primaryColor"`
	BackgroundColor string `yaml:"backgroundColor"`
	BorderRadius    string `yaml:"borderRadius"`
	Spacing         string `yaml:"spacing"`
}

type presetField struct {
	Label       string `yaml:"label"`
	Placeholder string `yaml:"placeholder"`
	HelpText    string `yaml:"helpText"`
	Required    *bool  `yaml:"required"`
	Width       string `yaml:"width"`
	Alignment   string `yaml:"alignment"`
}

// NewPresetTransformer constructs a transformer from raw YAML or JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the declarative patches onto the supplied form. A patch
// naming an unknown field id is an error.
func (t *PresetTransformer) Transform(ctx context.Context, form *model.Form) error {
	if form == nil {
		return errors.New("preset transformer: form is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := t.document
	setIfPresent(&form.Title, doc.Title)
	setIfPresent(&form.Description, doc.Description)
	setIfPresent(&form.Settings.SuccessMessage, doc.SuccessMessage)
	setIfPresent(&form.EmbedSettings.ButtonText, doc.ButtonText)
	setIfPresent(&form.Styling.Theme, doc.Styling.Theme)
	setIfPresent(&form.Styling.PrimaryColor, doc.Styling.PrimaryColor)
	setIfPresent(&form.Styling.BackgroundColor, doc.Styling.BackgroundColor)
	setIfPresent(&form.Styling.BorderRadius, doc.Styling.BorderRadius)
	setIfPresent(&form.Styling.Spacing, doc.Styling.Spacing)

	for id, patch := range doc.Fields {
		if err := ctx.Err(); err != nil {
			return err
		}
		idx := form.IndexOf(id)
		if idx < 0 {
			return fmt.Errorf("preset transformer: field %q not found", id)
		}
		applyFieldPatch(&form.Fields[idx], patch)
	}
	return nil
}

func applyFieldPatch(field *model.Field, patch presetField) {
	setIfPresent(&field.Label, patch.Label)
	setIfPresent(&field.Placeholder, patch.Placeholder)
	setIfPresent(&field.HelpText, patch.HelpText)
	if patch.Required != nil {
		field.Required = *patch.Required
	}
	if width := strings.TrimSpace(patch.Width); width != "" {
		field.Styling.Width = model.FieldWidth(width)
	}
	if alignment := strings.TrimSpace(patch.Alignment); alignment != "" {
		field.Styling.Alignment = model.Alignment(alignment)
	}
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
