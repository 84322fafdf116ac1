package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
)

var (
	// ErrOperationNotFound is returned when Import is given an unknown id.
	ErrOperationNotFound = errors.New("openapi: operation not found")
	// ErrNoRequestSchema is returned when an operation has no JSON body.
	ErrNoRequestSchema = errors.New("openapi: operation has no json request schema")
)

// Load parses and validates an OpenAPI document in JSON or YAML.
func Load(ctx context.Context, data []byte) (*openapi3.T, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	return doc, nil
}

// OperationInfo summarises one operation of a document.
type OperationInfo struct {
	ID      string
	Method  string
	Path    string
	Summary string
	// HasBody reports whether a JSON request schema is present.
	HasBody bool
}

// Operations lists every operation sorted by path then method. Operations
// without an operationId get "<method>:<path>".
func Operations(doc *openapi3.T) []OperationInfo {
	if doc == nil || doc.Paths == nil {
		return nil
	}
	var out []OperationInfo
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			out = append(out, OperationInfo{
				ID:      operationID(method, path, op),
				Method:  method,
				Path:    path,
				Summary: op.Summary,
				HasBody: requestSchema(op) != nil,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

func operationID(method, path string, op *openapi3.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return strings.ToLower(method) + ":" + path
}

func findOperation(doc *openapi3.T, id string) (*openapi3.Operation, bool) {
	if doc == nil || doc.Paths == nil {
		return nil, false
	}
	for path, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op != nil && operationID(method, path, op) == id {
				return op, true
			}
		}
	}
	return nil, false
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get(jsonMediaType)
	if media == nil || media.Schema == nil {
		return nil
	}
	return media.Schema.Value
}

// Import derives a draft form from the JSON request body of operationID.
// Envelopes produced by Export are unwrapped to their data schema. Nested
// objects and arrays without enumerated items have no field equivalent and
// are skipped.
func Import(doc *openapi3.T, operationID string) (model.Form, error) {
	op, ok := findOperation(doc, operationID)
	if !ok {
		return model.Form{}, fmt.Errorf("%w: %q", ErrOperationNotFound, operationID)
	}
	schema := requestSchema(op)
	if schema == nil {
		return model.Form{}, fmt.Errorf("%w: %q", ErrNoRequestSchema, operationID)
	}
	if isEnvelope(schema) {
		schema = schema.Properties["data"].Value
	}

	form := model.Form{
		Title:       firstNonEmpty(op.Summary, infoTitle(doc)),
		Description: firstNonEmpty(op.Description, infoDescription(doc)),
		Status:      model.FormStatusDraft,
		Fields:      make([]model.Field, 0, len(schema.Properties)),
	}
	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for _, name := range propertyOrder(schema.Properties) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		field, ok := importField(name, ref.Value)
		if !ok {
			continue
		}
		field.Required = required[name] || boolExtension(ref.Value.Extensions, ExtRequired)
		form.Fields = append(form.Fields, field)
	}
	return form, nil
}

func isEnvelope(schema *openapi3.Schema) bool {
	if !boolExtension(schema.Extensions, ExtEnvelope) {
		return false
	}
	data := schema.Properties["data"]
	return data != nil && data.Value != nil
}

// propertyOrder sorts by the order extension, then by name.
func propertyOrder(props openapi3.Schemas) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	position := func(name string) float64 {
		if ref := props[name]; ref != nil && ref.Value != nil {
			if n, ok := numberExtension(ref.Value.Extensions, ExtOrder); ok {
				return n
			}
		}
		return math.MaxFloat64
	}
	sort.SliceStable(names, func(i, j int) bool {
		pi, pj := position(names[i]), position(names[j])
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	return names
}

func importField(name string, schema *openapi3.Schema) (model.Field, bool) {
	typ, ok := fieldType(schema)
	if !ok {
		return model.Field{}, false
	}
	field := model.Field{
		ID:           name,
		Type:         typ,
		Label:        firstNonEmpty(schema.Title, humanize(name)),
		HelpText:     schema.Description,
		DefaultValue: schema.Default,
		Options:      importOptions(schema),
	}

	if schema.MinLength > 0 {
		n := int(schema.MinLength)
		field.Validation.MinLength = &n
	}
	if schema.MaxLength != nil {
		n := int(*schema.MaxLength)
		field.Validation.MaxLength = &n
	}
	if typ == model.FieldTypeNumber {
		if schema.Min != nil {
			v := *schema.Min
			field.Validation.Min = &v
		}
		if schema.Max != nil {
			v := *schema.Max
			field.Validation.Max = &v
		}
	}
	if raw, ok := schema.Extensions[ExtConditional]; ok {
		var cond model.Conditional
		if decodeExtension(raw, &cond) == nil {
			field.Conditional = cond
		}
	}
	return field, true
}

// fieldType honours the type extension and otherwise infers from the JSON
// schema type and format.
func fieldType(schema *openapi3.Schema) (model.FieldType, bool) {
	if raw, ok := schema.Extensions[ExtType]; ok {
		var name string
		if decodeExtension(raw, &name) == nil {
			typ := model.FieldType(name)
			if desc, err := fieldtypes.Describe(typ); err == nil && !desc.Presentational {
				return typ, true
			}
		}
	}
	switch {
	case schema.Type.Is(openapi3.TypeString):
		if len(schema.Enum) > 0 {
			return model.FieldTypeSelect, true
		}
		switch schema.Format {
		case "email":
			return model.FieldTypeEmail, true
		case "uri", "url":
			return model.FieldTypeURL, true
		case "date":
			return model.FieldTypeDate, true
		case "time":
			return model.FieldTypeTime, true
		case "date-time":
			return model.FieldTypeDatetime, true
		}
		if schema.MaxLength != nil && *schema.MaxLength > 255 {
			return model.FieldTypeTextarea, true
		}
		return model.FieldTypeText, true
	case schema.Type.Is(openapi3.TypeNumber), schema.Type.Is(openapi3.TypeInteger):
		return model.FieldTypeNumber, true
	case schema.Type.Is(openapi3.TypeBoolean):
		return model.FieldTypeRadio, true
	case schema.Type.Is(openapi3.TypeArray):
		if schema.Items != nil && schema.Items.Value != nil && len(schema.Items.Value.Enum) > 0 {
			return model.FieldTypeCheckbox, true
		}
	}
	return "", false
}

func importOptions(schema *openapi3.Schema) []model.Option {
	if raw, ok := schema.Extensions[ExtOptions]; ok {
		var options []model.Option
		if decodeExtension(raw, &options) == nil && len(options) > 0 {
			return options
		}
	}
	enum := schema.Enum
	if schema.Type.Is(openapi3.TypeArray) && schema.Items != nil && schema.Items.Value != nil {
		enum = schema.Items.Value.Enum
	}
	if len(enum) > 0 {
		options := make([]model.Option, 0, len(enum))
		for _, value := range enum {
			text := fmt.Sprint(value)
			options = append(options, model.Option{Label: humanize(text), Value: text})
		}
		return options
	}
	if schema.Type.Is(openapi3.TypeBoolean) {
		return []model.Option{{Label: "Yes", Value: "true"}, {Label: "No", Value: "false"}}
	}
	return nil
}

// decodeExtension converts an extension value, which may be a decoded JSON
// value, a raw message or a Go value set in memory, into target.
func decodeExtension(raw any, target any) error {
	var data []byte
	switch v := raw.(type) {
	case json.RawMessage:
		data = v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return err
		}
		data = encoded
	}
	return json.Unmarshal(data, target)
}

func boolExtension(ext map[string]any, key string) bool {
	raw, ok := ext[key]
	if !ok {
		return false
	}
	var v bool
	return decodeExtension(raw, &v) == nil && v
}

func numberExtension(ext map[string]any, key string) (float64, bool) {
	raw, ok := ext[key]
	if !ok {
		return 0, false
	}
	var v float64
	if decodeExtension(raw, &v) != nil {
		return 0, false
	}
	return v, true
}

// humanize turns first_name or firstName into "First name".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
		case i > 0 && r >= 'A' && r <= 'Z':
			b.WriteRune(' ')
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		return name
	}
	return strings.ToUpper(out[:1]) + out[1:]
}

func infoTitle(doc *openapi3.T) string {
	if doc == nil || doc.Info == nil {
		return ""
	}
	return doc.Info.Title
}

func infoDescription(doc *openapi3.T) string {
	if doc == nil || doc.Info == nil {
		return ""
	}
	return doc.Info.Description
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
