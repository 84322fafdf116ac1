package vanilla

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/render/template"
	"github.com/goliatone/go-formsuite/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formsuite/pkg/visibility"
)

// fieldState is the per-render context shared by every field of a page.
type fieldState struct {
	values    map[string]any
	partials  map[string]string
	uploadURL string
	selected  string
}

type componentRenderer struct {
	templates template.TemplateRenderer
	registry  *components.Registry
	types     *fieldtypes.Registry
	evaluator visibility.Evaluator

	usedTypes map[model.FieldType]struct{}
}

func newComponentRenderer(templates template.TemplateRenderer, registry *components.Registry, types *fieldtypes.Registry, evaluator visibility.Evaluator) *componentRenderer {
	if registry == nil {
		registry = components.NewDefaultRegistry()
	}
	if types == nil {
		types = fieldtypes.Default()
	}
	if evaluator == nil {
		evaluator = visibility.Rules{}
	}
	return &componentRenderer{
		templates: templates,
		registry:  registry,
		types:     types,
		evaluator: evaluator,
		usedTypes: make(map[model.FieldType]struct{}),
	}
}

func (r *componentRenderer) render(field model.Field, value any, errorMessage string, mode render.Mode, state fieldState) (render.FieldView, error) {
	if !mode.Valid() {
		return render.FieldView{}, fmt.Errorf("vanilla renderer: unknown mode %q", mode)
	}
	desc, err := r.types.Describe(field.Type)
	if err != nil {
		return render.FieldView{}, fmt.Errorf("vanilla renderer: field %q: %w", field.ID, err)
	}
	descriptor, ok := r.registry.Descriptor(field.Type)
	if !ok {
		return render.FieldView{}, fmt.Errorf("vanilla renderer: component %q not registered for field %q", field.Type, field.ID)
	}

	view := render.FieldView{
		FieldID:     field.ID,
		Type:        field.Type,
		Mode:        mode,
		Label:       field.Label,
		Required:    field.Required && !desc.Presentational,
		HelpText:    field.HelpText,
		Width:       field.Styling.Width,
		Alignment:   field.Styling.Alignment,
		WidthClass:  WidthClass(field.Styling.Width),
		AlignClass:  AlignClass(field.Styling.Alignment),
		Visible:     true,
		Conditional: field.Conditional.Enabled && strings.TrimSpace(field.Conditional.Field) != "",
	}
	if mode.Bound() {
		view.Error = strings.TrimSpace(errorMessage)
		visible, err := r.evaluator.Eval(field, visibility.Context{Values: state.values})
		view.Visible = err == nil && visible
	}

	data := components.ComponentData{
		Template:      r.templates,
		ThemePartials: state.partials,
		Value:         value,
		Mode:          mode,
		ControlID:     componentControlID(field.ID),
		Invalid:       view.Error != "",
		UploadURL:     state.uploadURL,
	}
	if mode.Bound() && !desc.Presentational {
		data.Name = field.ID
	}

	var control bytes.Buffer
	if err := descriptor.Renderer(&control, field, data); err != nil {
		return render.FieldView{}, fmt.Errorf("vanilla renderer: render %q for field %q: %w", field.Type, field.ID, err)
	}
	r.usedTypes[field.Type] = struct{}{}

	view.Control = control.String()
	view.HTML = buildFieldMarkup(field, desc, view, state.selected == field.ID && mode == render.ModeCanvas)
	return view, nil
}

func (r *componentRenderer) assets() (stylesheets []string, scripts []components.Script) {
	if len(r.usedTypes) == 0 {
		return nil, nil
	}
	types := make([]model.FieldType, 0, len(r.usedTypes))
	for typ := range r.usedTypes {
		types = append(types, typ)
	}
	slices.Sort(types)
	return r.registry.Assets(types)
}

func buildFieldMarkup(field model.Field, desc fieldtypes.Descriptor, view render.FieldView, selected bool) string {
	var builder strings.Builder
	builder.Grow(len(view.Control) + 256)
	controlID := componentControlID(field.ID)

	builder.WriteString(`<div class="`)
	builder.WriteString(classField)
	builder.WriteString(" fs-field--")
	builder.WriteString(html.EscapeString(string(field.Type)))
	builder.WriteByte(' ')
	builder.WriteString(view.WidthClass)
	builder.WriteByte(' ')
	builder.WriteString(view.AlignClass)
	if view.Error != "" {
		builder.WriteString(" " + classInvalid)
	}
	if selected {
		builder.WriteString(" " + classSelected)
	}
	builder.WriteString(`" data-field-id="`)
	builder.WriteString(html.EscapeString(field.ID))
	builder.WriteString(`" data-field-type="`)
	builder.WriteString(html.EscapeString(string(field.Type)))
	builder.WriteString(`"`)
	if view.Conditional {
		builder.WriteString(` data-conditional="`)
		builder.WriteString(html.EscapeString(conditionalJSON(field.Conditional)))
		builder.WriteString(`"`)
	}
	if !view.Visible {
		builder.WriteString(" hidden")
	}
	builder.WriteString(">\n")

	if !desc.Presentational && strings.TrimSpace(field.Label) != "" {
		if labelSupportsFor(field.Type) {
			builder.WriteString(`  <label class="` + classLabel + `" for="`)
			builder.WriteString(html.EscapeString(controlID))
			builder.WriteString(`">`)
		} else {
			builder.WriteString(`  <span class="` + classLabel + `">`)
		}
		builder.WriteString(html.EscapeString(field.Label))
		if view.Required {
			builder.WriteString(` <span class="` + classRequired + `" aria-hidden="true">*</span>`)
		}
		if labelSupportsFor(field.Type) {
			builder.WriteString("</label>\n")
		} else {
			builder.WriteString("</span>\n")
		}
	}

	for _, line := range strings.Split(view.Control, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		builder.WriteString("  ")
		builder.WriteString(line)
		builder.WriteByte('\n')
	}

	if help := strings.TrimSpace(field.HelpText); help != "" && !desc.Presentational {
		builder.WriteString(`  <p class="` + classHelp + `" id="`)
		builder.WriteString(html.EscapeString(controlID))
		builder.WriteString(`-help">`)
		builder.WriteString(html.EscapeString(help))
		builder.WriteString("</p>\n")
	}
	if view.Error != "" {
		builder.WriteString(`  <p class="` + classError + `" id="`)
		builder.WriteString(html.EscapeString(controlID))
		builder.WriteString(`-error" role="alert">`)
		builder.WriteString(html.EscapeString(view.Error))
		builder.WriteString("</p>\n")
	}
	builder.WriteString("</div>")
	return builder.String()
}

func conditionalJSON(rule model.Conditional) string {
	action := rule.Action
	if action == "" {
		action = model.ConditionalShow
	}
	payload, err := json.Marshal(struct {
		Field  string                  `json:"field"`
		Value  string                  `json:"value"`
		Action model.ConditionalAction `json:"action"`
	}{rule.Field, rule.Value, action})
	if err != nil {
		return ""
	}
	return string(payload)
}
