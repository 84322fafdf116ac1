package components

import (
	"bytes"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/sanitize"
)

// PartialKey returns the theme partial key that overrides the built-in
// control for typ.
func PartialKey(typ model.FieldType) string {
	return "forms." + string(typ)
}

const (
	ratingScript    = "/assets/formsuite-rating.js"
	signatureScript = "/assets/formsuite-signature.js"
	uploadScript    = "/assets/formsuite-upload.js"
)

// NewDefaultRegistry returns a registry populated with a control for every
// builtin field type.
func NewDefaultRegistry() *Registry {
	reg := New()
	registerDefaults(reg)
	return reg
}

func registerDefaults(reg *Registry) {
	inputTypes := map[model.FieldType]string{
		model.FieldTypeText:     "text",
		model.FieldTypeEmail:    "email",
		model.FieldTypePhone:    "tel",
		model.FieldTypeNumber:   "number",
		model.FieldTypeURL:      "url",
		model.FieldTypeDate:     "date",
		model.FieldTypeTime:     "time",
		model.FieldTypeDatetime: "datetime-local",
	}
	for _, typ := range fieldtypes.Default().Types() {
		var renderer Renderer
		var scripts []Script
		switch typ {
		case model.FieldTypeTextarea:
			renderer = textareaRenderer
		case model.FieldTypeSelect:
			renderer = selectRenderer
		case model.FieldTypeRadio:
			renderer = radioRenderer
		case model.FieldTypeCheckbox:
			renderer = checkboxRenderer
		case model.FieldTypeRating:
			renderer = ratingRenderer
			scripts = []Script{{Src: ratingScript, Defer: true}}
		case model.FieldTypeFile:
			renderer = fileRenderer
			scripts = []Script{{Src: uploadScript, Defer: true}}
		case model.FieldTypeSignature:
			renderer = signatureRenderer
			scripts = []Script{{Src: signatureScript, Defer: true}}
		case model.FieldTypeDivider:
			renderer = dividerRenderer
		case model.FieldTypeHTML:
			renderer = htmlRenderer
		default:
			inputType, ok := inputTypes[typ]
			if !ok {
				continue
			}
			renderer = inputRenderer(inputType)
		}
		reg.MustRegister(typ, Descriptor{
			Renderer: templateComponentRenderer(renderer),
			Scripts:  scripts,
		})
	}
}

// templateComponentRenderer lets the active theme replace the markup of a
// type through a `forms.<type>` partial.
func templateComponentRenderer(fallback Renderer) Renderer {
	return func(buf *bytes.Buffer, field model.Field, data ComponentData) error {
		partial := strings.TrimSpace(data.ThemePartials[PartialKey(field.Type)])
		if partial == "" || data.Template == nil {
			return fallback(buf, field, data)
		}
		payload := map[string]any{
			"field":      field,
			"value":      data.Value,
			"value_text": StringValue(data.Value),
			"name":       data.Name,
			"control_id": data.ControlID,
			"mode":       string(data.Mode),
			"disabled":   data.Disabled(),
			"invalid":    data.Invalid,
			"config":     data.Config,
		}
		rendered, err := data.Template.RenderTemplate(partial, payload)
		if err != nil {
			return fmt.Errorf("components: render partial %q: %w", partial, err)
		}
		buf.WriteString(rendered)
		return nil
	}
}

func inputRenderer(inputType string) Renderer {
	return func(buf *bytes.Buffer, field model.Field, data ComponentData) error {
		buf.WriteString(`<input type="`)
		buf.WriteString(inputType)
		buf.WriteByte('"')
		writeCommonAttrs(buf, field, data, "fs-control")
		if value := StringValue(data.Value); value != "" {
			writeAttr(buf, "value", value)
		}
		if field.Placeholder != "" {
			writeAttr(buf, "placeholder", field.Placeholder)
		}
		switch field.Type {
		case model.FieldTypeNumber:
			if lo := field.Validation.Min; lo != nil {
				writeAttr(buf, "min", formatFloat(*lo))
			}
			if hi := field.Validation.Max; hi != nil {
				writeAttr(buf, "max", formatFloat(*hi))
			}
			writeAttr(buf, "step", "any")
		case model.FieldTypeText, model.FieldTypeEmail:
			writeLengthAttrs(buf, field)
		}
		buf.WriteString(">")
		return nil
	}
}

func textareaRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	buf.WriteString(`<textarea rows="4"`)
	writeCommonAttrs(buf, field, data, "fs-control")
	if field.Placeholder != "" {
		writeAttr(buf, "placeholder", field.Placeholder)
	}
	writeLengthAttrs(buf, field)
	buf.WriteString(">")
	buf.WriteString(html.EscapeString(StringValue(data.Value)))
	buf.WriteString("</textarea>")
	return nil
}

func selectRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	selected := StringValue(data.Value)
	buf.WriteString(`<select`)
	writeCommonAttrs(buf, field, data, "fs-control")
	buf.WriteString(">\n")

	placeholder := field.Placeholder
	if placeholder == "" {
		placeholder = "Select an option"
	}
	buf.WriteString(`  <option value="">`)
	buf.WriteString(html.EscapeString(placeholder))
	buf.WriteString("</option>\n")
	for _, opt := range field.Options {
		buf.WriteString(`  <option`)
		writeAttr(buf, "value", opt.Value)
		if selected != "" && selected == opt.Value {
			buf.WriteString(" selected")
		}
		buf.WriteString(">")
		buf.WriteString(html.EscapeString(opt.Label))
		buf.WriteString("</option>\n")
	}
	buf.WriteString("</select>")
	return nil
}

func radioRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	selected := StringValue(data.Value)
	return writeChoiceGroup(buf, field, data, "radio", data.Name, func(value string) bool {
		return selected != "" && value == selected
	})
}

// checkboxRenderer binds every box to `<id>[]` so the submitted value is an
// array of option values.
func checkboxRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	picked := make(map[string]struct{})
	for _, value := range StringValues(data.Value) {
		picked[value] = struct{}{}
	}
	name := ""
	if data.Name != "" {
		name = data.Name + "[]"
	}
	return writeChoiceGroup(buf, field, data, "checkbox", name, func(value string) bool {
		_, ok := picked[value]
		return ok
	})
}

func writeChoiceGroup(buf *bytes.Buffer, field model.Field, data ComponentData, inputType, name string, checked func(string) bool) error {
	buf.WriteString(`<div class="fs-choices" role="`)
	if inputType == "radio" {
		buf.WriteString("radiogroup")
	} else {
		buf.WriteString("group")
	}
	buf.WriteByte('"')
	writeAttr(buf, "id", data.ControlID)
	if data.Invalid {
		buf.WriteString(` aria-invalid="true"`)
	}
	buf.WriteString(">\n")
	for idx, opt := range field.Options {
		optionID := data.ControlID + "-" + strconv.Itoa(idx)
		buf.WriteString(`  <label class="fs-choice"`)
		writeAttr(buf, "for", optionID)
		buf.WriteString(`><input type="`)
		buf.WriteString(inputType)
		buf.WriteByte('"')
		writeAttr(buf, "id", optionID)
		if name != "" {
			writeAttr(buf, "name", name)
		}
		writeAttr(buf, "value", opt.Value)
		if checked(opt.Value) {
			buf.WriteString(" checked")
		}
		if data.Disabled() {
			buf.WriteString(" disabled")
		} else if field.Required && inputType == "radio" {
			buf.WriteString(" required")
		}
		buf.WriteString("> <span>")
		buf.WriteString(html.EscapeString(opt.Label))
		buf.WriteString("</span></label>\n")
	}
	buf.WriteString("</div>")
	return nil
}

// ratingRenderer emits five star buttons backed by a hidden input that holds
// the numeric value.
func ratingRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	current, _ := strconv.Atoi(StringValue(data.Value))
	buf.WriteString(`<div class="fs-rating" data-rating`)
	writeAttr(buf, "id", data.ControlID)
	buf.WriteString(">\n")
	for star := 1; star <= 5; star++ {
		buf.WriteString(`  <button type="button" class="fs-rating-star`)
		if star <= current {
			buf.WriteString(" is-active")
		}
		buf.WriteByte('"')
		writeAttr(buf, "data-value", strconv.Itoa(star))
		writeAttr(buf, "aria-label", fmt.Sprintf("%d star", star))
		if data.Disabled() {
			buf.WriteString(" disabled")
		}
		buf.WriteString(">&#9733;</button>\n")
	}
	writeHidden(buf, data, StringValue(data.Value))
	buf.WriteString("</div>")
	return nil
}

// fileRenderer posts the picked file to the upload endpoint and stores the
// returned reference in a hidden input.
func fileRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	buf.WriteString(`<div class="fs-upload" data-upload`)
	if data.UploadURL != "" {
		writeAttr(buf, "data-upload-url", data.UploadURL)
	}
	buf.WriteString(">\n  <input type=\"file\"")
	writeAttr(buf, "id", data.ControlID)
	writeAttr(buf, "class", "fs-control")
	if data.Disabled() {
		buf.WriteString(" disabled")
	} else if field.Required && IsBlank(data.Value) {
		buf.WriteString(" required")
	}
	if data.Invalid {
		buf.WriteString(` aria-invalid="true"`)
	}
	buf.WriteString(">\n  ")
	ref := fileReference(data.Value)
	writeHidden(buf, data, ref.URL)
	buf.WriteByte('\n')
	if ref.Name != "" {
		buf.WriteString(`  <span class="fs-upload-name">`)
		buf.WriteString(html.EscapeString(ref.Name))
		buf.WriteString("</span>\n")
	}
	buf.WriteString("</div>")
	return nil
}

func signatureRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	buf.WriteString(`<div class="fs-signature" data-signature>` + "\n")
	buf.WriteString(`  <canvas width="400" height="150"`)
	writeAttr(buf, "id", data.ControlID)
	if data.Disabled() {
		buf.WriteString(` aria-disabled="true"`)
	}
	buf.WriteString("></canvas>\n  ")
	writeHidden(buf, data, StringValue(data.Value))
	buf.WriteString("\n")
	if !data.Disabled() {
		buf.WriteString(`  <button type="button" class="fs-signature-clear" data-signature-clear>Clear</button>` + "\n")
	}
	buf.WriteString("</div>")
	return nil
}

func dividerRenderer(buf *bytes.Buffer, _ model.Field, data ComponentData) error {
	buf.WriteString(`<hr class="fs-divider"`)
	writeAttr(buf, "id", data.ControlID)
	buf.WriteString(">")
	return nil
}

func htmlRenderer(buf *bytes.Buffer, field model.Field, data ComponentData) error {
	buf.WriteString(`<div class="fs-content"`)
	writeAttr(buf, "id", data.ControlID)
	buf.WriteString(">")
	buf.WriteString(sanitize.Content(field.Content))
	buf.WriteString("</div>")
	return nil
}

func writeCommonAttrs(buf *bytes.Buffer, field model.Field, data ComponentData, class string) {
	writeAttr(buf, "id", data.ControlID)
	if data.Name != "" {
		writeAttr(buf, "name", data.Name)
	}
	writeAttr(buf, "class", class)
	if data.Disabled() {
		buf.WriteString(" disabled")
	} else if field.Required {
		buf.WriteString(" required")
	}
	if data.Invalid {
		buf.WriteString(` aria-invalid="true"`)
		writeAttr(buf, "aria-describedby", data.ControlID+"-error")
	}
}

func writeLengthAttrs(buf *bytes.Buffer, field model.Field) {
	if n := field.Validation.MinLength; n != nil {
		writeAttr(buf, "minlength", strconv.Itoa(*n))
	}
	if n := field.Validation.MaxLength; n != nil {
		writeAttr(buf, "maxlength", strconv.Itoa(*n))
	}
}

func writeHidden(buf *bytes.Buffer, data ComponentData, value string) {
	buf.WriteString(`<input type="hidden"`)
	if data.Name != "" {
		writeAttr(buf, "name", data.Name)
	}
	writeAttr(buf, "value", value)
	buf.WriteString(">")
}

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	buf.WriteString(html.EscapeString(value))
	buf.WriteByte('"')
}
