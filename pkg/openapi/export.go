package openapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
)

// Schema extensions carrying what JSON schema cannot express.
const (
	ExtType        = "x-formsuite-type"
	ExtOrder       = "x-formsuite-order"
	ExtOptions     = "x-formsuite-options"
	ExtConditional = "x-formsuite-conditional"
	ExtRequired    = "x-formsuite-required"
	ExtEnvelope    = "x-formsuite-envelope"
)

// Operation ids used by Export.
const (
	OperationGetForm    = "getForm"
	OperationSubmitForm = "submitForm"
)

const (
	openAPIVersion = "3.0.3"
	defaultVersion = "1.0.0"
	jsonMediaType  = "application/json"
)

// ErrMissingFormID is returned when exporting a form that was never saved.
var ErrMissingFormID = errors.New("openapi: form id is required")

// ExportOptions tunes Export.
type ExportOptions struct {
	// ServerURL is the API base, for example https://forms.example.com/api.
	ServerURL string
	// Version is the document version. Defaults to 1.0.0.
	Version string
}

// Export describes the public read and submit endpoints of form.
func Export(form model.Form, opts ExportOptions) (*openapi3.T, error) {
	id := strings.TrimSpace(form.ID)
	if id == "" {
		return nil, ErrMissingFormID
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = defaultVersion
	}

	doc := &openapi3.T{
		OpenAPI: openAPIVersion,
		Info: &openapi3.Info{
			Title:       form.Title,
			Description: form.Description,
			Version:     version,
		},
	}
	if server := strings.TrimRight(strings.TrimSpace(opts.ServerURL), "/"); server != "" {
		doc.Servers = openapi3.Servers{&openapi3.Server{URL: server}}
	}

	base := "/public/forms/" + url.PathEscape(id)
	doc.Paths = openapi3.NewPaths(
		openapi3.WithPath(base, &openapi3.PathItem{Get: getFormOperation(form)}),
		openapi3.WithPath(base+"/submit", &openapi3.PathItem{Post: submitOperation(form)}),
	)
	return doc, nil
}

func getFormOperation(form model.Form) *openapi3.Operation {
	definition := openapi3.NewObjectSchema()
	definition.Description = "Form definition"
	return &openapi3.Operation{
		OperationID: OperationGetForm,
		Summary:     "Fetch " + form.Title,
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, jsonResponse("The form definition", definition)),
			openapi3.WithStatus(http.StatusNotFound, jsonResponse("The form is not published", errorSchema())),
		),
	}
}

func submitOperation(form model.Form) *openapi3.Operation {
	submitter := openapi3.NewObjectSchema().
		WithProperty("name", openapi3.NewStringSchema()).
		WithProperty("email", openapi3.NewStringSchema().WithFormat("email"))

	payload := openapi3.NewObjectSchema().
		WithProperty("data", SubmissionSchema(form)).
		WithProperty("submitterInfo", submitter).
		WithProperty("captchaToken", openapi3.NewStringSchema())
	payload.Required = []string{"data"}
	payload.Extensions = map[string]any{ExtEnvelope: true}

	return &openapi3.Operation{
		OperationID: OperationSubmitForm,
		Summary:     form.Title,
		Description: form.Description,
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchema(payload),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusCreated, jsonResponse("Submission stored", submissionSchema())),
			openapi3.WithStatus(http.StatusBadRequest, jsonResponse("Malformed request", errorSchema())),
			openapi3.WithStatus(http.StatusForbidden, jsonResponse("Form closed or captcha failed", errorSchema())),
			openapi3.WithStatus(http.StatusConflict, jsonResponse("Duplicate or over the limit", errorSchema())),
			openapi3.WithStatus(http.StatusUnprocessableEntity, jsonResponse("Field validation failed", errorSchema())),
		),
	}
}

// SubmissionSchema is the JSON schema of a form's data map. Presentational
// fields are left out. Conditional fields are never listed as required since
// they may be hidden when submitted.
func SubmissionSchema(form model.Form) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Properties = make(openapi3.Schemas, len(form.Fields))
	for idx, field := range form.Fields {
		prop, ok := FieldSchema(field)
		if !ok {
			continue
		}
		prop.Extensions[ExtOrder] = idx
		schema.Properties[field.ID] = openapi3.NewSchemaRef("", prop)
		if field.Required && !field.Conditional.Enabled {
			schema.Required = append(schema.Required, field.ID)
		}
	}
	return schema
}

// FieldSchema maps one field to a property schema. It reports false for
// presentational fields.
func FieldSchema(field model.Field) (*openapi3.Schema, bool) {
	desc, err := fieldtypes.Describe(field.Type)
	if err == nil && desc.Presentational {
		return nil, false
	}
	if strings.TrimSpace(field.ID) == "" {
		return nil, false
	}

	var schema *openapi3.Schema
	switch field.Type {
	case model.FieldTypeEmail:
		schema = openapi3.NewStringSchema().WithFormat("email")
	case model.FieldTypeURL:
		schema = openapi3.NewStringSchema().WithFormat("uri")
	case model.FieldTypeDate:
		schema = openapi3.NewStringSchema().WithFormat("date")
	case model.FieldTypeTime:
		schema = openapi3.NewStringSchema().WithFormat("time")
	case model.FieldTypeDatetime:
		schema = openapi3.NewStringSchema().WithFormat("date-time")
	case model.FieldTypeNumber:
		schema = openapi3.NewFloat64Schema()
	case model.FieldTypeRating:
		schema = openapi3.NewIntegerSchema().WithMin(1).WithMax(5)
	case model.FieldTypeSelect, model.FieldTypeRadio:
		schema = openapi3.NewStringSchema()
		schema.Enum = optionEnum(field.Options)
	case model.FieldTypeCheckbox:
		items := openapi3.NewStringSchema()
		items.Enum = optionEnum(field.Options)
		schema = openapi3.NewArraySchema().WithItems(items)
	case model.FieldTypeFile:
		schema = openapi3.NewObjectSchema().
			WithProperty("url", openapi3.NewStringSchema().WithFormat("uri")).
			WithProperty("name", openapi3.NewStringSchema()).
			WithProperty("size", openapi3.NewInt64Schema()).
			WithProperty("contentType", openapi3.NewStringSchema())
		schema.Required = []string{"url"}
	default:
		schema = openapi3.NewStringSchema()
	}

	schema.Title = field.Label
	schema.Description = field.HelpText
	schema.Default = field.DefaultValue
	applyValidation(schema, field)

	schema.Extensions = map[string]any{ExtType: string(field.Type)}
	if len(field.Options) > 0 {
		options := make([]map[string]string, 0, len(field.Options))
		for _, opt := range field.Options {
			options = append(options, map[string]string{"label": opt.Label, "value": opt.Value})
		}
		schema.Extensions[ExtOptions] = options
	}
	if field.Conditional.Enabled {
		schema.Extensions[ExtConditional] = field.Conditional
		if field.Required {
			schema.Extensions[ExtRequired] = true
		}
	}
	return schema, true
}

func applyValidation(schema *openapi3.Schema, field model.Field) {
	rules := field.Validation
	if rules.MinLength != nil && *rules.MinLength > 0 {
		schema.MinLength = uint64(*rules.MinLength)
	}
	if rules.MaxLength != nil && *rules.MaxLength >= 0 {
		limit := uint64(*rules.MaxLength)
		schema.MaxLength = &limit
	}
	if rules.Min != nil {
		lower := *rules.Min
		schema.Min = &lower
	}
	if rules.Max != nil {
		upper := *rules.Max
		schema.Max = &upper
	}
}

func optionEnum(options []model.Option) []any {
	if len(options) == 0 {
		return nil
	}
	values := make([]any, 0, len(options))
	for _, opt := range options {
		values = append(values, opt.Value)
	}
	return values
}

func jsonResponse(description string, schema *openapi3.Schema) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(description).WithJSONSchema(schema)}
}

func errorSchema() *openapi3.Schema {
	messages := openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema())
	return openapi3.NewObjectSchema().
		WithProperty("status", openapi3.NewIntegerSchema()).
		WithProperty("code", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("errors", openapi3.NewObjectSchema().WithAdditionalProperties(messages))
}

func submissionSchema() *openapi3.Schema {
	status := openapi3.NewStringSchema()
	for _, s := range model.SubmissionStatuses() {
		status.Enum = append(status.Enum, string(s))
	}
	return openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewStringSchema()).
		WithProperty("formId", openapi3.NewStringSchema()).
		WithProperty("status", status).
		WithProperty("createdAt", openapi3.NewDateTimeSchema())
}
