package openapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/openapi"
	"github.com/goliatone/go-formsuite/pkg/testsupport"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func contactForm() model.Form {
	return model.Form{
		ID:          "contact",
		Title:       "Contact us",
		Description: "We reply within a day.",
		Status:      model.FormStatusActive,
		Fields: []model.Field{
			{ID: "name", Type: model.FieldTypeText, Label: "Name", Required: true, Validation: model.Validation{MinLength: intPtr(2)}},
			{ID: "email", Type: model.FieldTypeEmail, Label: "Email", Required: true, HelpText: "We never share it"},
			{ID: "intro", Type: model.FieldTypeDivider, Label: "Divider"},
			{ID: "topic", Type: model.FieldTypeSelect, Label: "Topic", Options: []model.Option{{Label: "Sales", Value: "sales"}, {Label: "Support", Value: "support"}}},
			{
				ID: "details", Type: model.FieldTypeTextarea, Label: "Details", Required: true,
				Conditional: model.Conditional{Enabled: true, Field: "topic", Value: "support", Action: model.ConditionalShow},
			},
			{ID: "budget", Type: model.FieldTypeNumber, Label: "Budget", Validation: model.Validation{Min: floatPtr(0), Max: floatPtr(5000)}},
			{ID: "score", Type: model.FieldTypeRating, Label: "Score"},
			{ID: "channels", Type: model.FieldTypeCheckbox, Label: "Channels", Options: []model.Option{{Label: "Phone", Value: "phone"}, {Label: "Mail", Value: "mail"}}},
		},
	}
}

func TestExport_LoadsAndImportsBack(t *testing.T) {
	t.Parallel()

	form := contactForm()
	doc, err := openapi.Export(form, openapi.ExportOptions{ServerURL: "https://forms.example.com/api/"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc.Servers[0].URL != "https://forms.example.com/api" || doc.Info.Version != "1.0.0" {
		t.Fatalf("unexpected header: %#v %#v", doc.Servers[0], doc.Info)
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := openapi.Load(context.Background(), raw)
	if err != nil {
		t.Fatalf("load exported document: %v", err)
	}

	want := []openapi.OperationInfo{
		{ID: openapi.OperationGetForm, Method: http.MethodGet, Path: "/public/forms/contact", Summary: "Fetch Contact us"},
		{ID: openapi.OperationSubmitForm, Method: http.MethodPost, Path: "/public/forms/contact/submit", Summary: "Contact us", HasBody: true},
	}
	if diff := cmp.Diff(want, openapi.Operations(loaded)); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}

	imported, err := openapi.Import(loaded, openapi.OperationSubmitForm)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.Title != form.Title || imported.Description != form.Description || imported.Status != model.FormStatusDraft {
		t.Fatalf("unexpected form header: %#v", imported)
	}
	wantFields := make([]model.Field, 0, len(form.Fields))
	for _, field := range form.Fields {
		if field.Type != model.FieldTypeDivider {
			wantFields = append(wantFields, field)
		}
	}
	if diff := cmp.Diff(wantFields, imported.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmissionSchema_RequiredSkipsConditionalFields(t *testing.T) {
	t.Parallel()

	schema := openapi.SubmissionSchema(contactForm())
	if diff := cmp.Diff([]string{"name", "email"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if _, ok := schema.Properties["intro"]; ok {
		t.Fatalf("presentational fields must not be part of the payload")
	}
	email := schema.Properties["email"].Value
	if email.Format != "email" || email.Description != "We never share it" {
		t.Fatalf("unexpected email schema: %#v", email)
	}
	score := schema.Properties["score"].Value
	if score.Min == nil || *score.Min != 1 || score.Max == nil || *score.Max != 5 {
		t.Fatalf("rating must be bounded to 1..5: %#v", score)
	}
}

const signupDocument = `
openapi: 3.0.3
info:
  title: Signup API
  version: "1"
paths:
  /users:
    post:
      summary: Create user
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [email]
              properties:
                email: {type: string, format: email}
                first_name: {type: string, maxLength: 40}
                bio: {type: string, maxLength: 1000}
                age: {type: integer, minimum: 18}
                plan: {type: string, enum: [free, pro]}
                newsletter: {type: boolean}
                tags: {type: array, items: {type: string, enum: [go, rust]}}
                address: {type: object, properties: {city: {type: string}}}
      responses:
        "201":
          description: created
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - name: id
          in: path
          required: true
          schema: {type: string}
      responses:
        "200":
          description: ok
`

func TestImport_InfersFieldsFromPlainSchemas(t *testing.T) {
	t.Parallel()

	doc, err := openapi.Load(context.Background(), []byte(signupDocument))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	form, err := openapi.Import(doc, "post:/users")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if form.Title != "Create user" {
		t.Fatalf("expected operation summary as title, got %q", form.Title)
	}
	want := []model.Field{
		{ID: "age", Type: model.FieldTypeNumber, Label: "Age", Validation: model.Validation{Min: floatPtr(18)}},
		{ID: "bio", Type: model.FieldTypeTextarea, Label: "Bio", Validation: model.Validation{MaxLength: intPtr(1000)}},
		{ID: "email", Type: model.FieldTypeEmail, Label: "Email", Required: true},
		{ID: "first_name", Type: model.FieldTypeText, Label: "First name", Validation: model.Validation{MaxLength: intPtr(40)}},
		{ID: "newsletter", Type: model.FieldTypeRadio, Label: "Newsletter", Options: []model.Option{{Label: "Yes", Value: "true"}, {Label: "No", Value: "false"}}},
		{ID: "plan", Type: model.FieldTypeSelect, Label: "Plan", Options: []model.Option{{Label: "Free", Value: "free"}, {Label: "Pro", Value: "pro"}}},
		{ID: "tags", Type: model.FieldTypeCheckbox, Label: "Tags", Options: []model.Option{{Label: "Go", Value: "go"}, {Label: "Rust", Value: "rust"}}},
	}
	if diff := cmp.Diff(want, form.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	if _, err := openapi.Import(doc, "getUser"); !errors.Is(err, openapi.ErrNoRequestSchema) {
		t.Fatalf("expected ErrNoRequestSchema, got %v", err)
	}
	if _, err := openapi.Import(doc, "deleteUser"); !errors.Is(err, openapi.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestExport_RequiresID(t *testing.T) {
	t.Parallel()

	if _, err := openapi.Export(model.Form{Title: "Unsaved"}, openapi.ExportOptions{}); !errors.Is(err, openapi.ErrMissingFormID) {
		t.Fatalf("expected ErrMissingFormID, got %v", err)
	}
}

func TestLoad_RejectsInvalidDocuments(t *testing.T) {
	t.Parallel()

	if _, err := openapi.Load(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := openapi.Load(context.Background(), []byte(`{"openapi":"3.0.3","paths":{}}`)); err == nil {
		t.Fatalf("expected validation error for missing info")
	}
}

func TestReader_Sources(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "signup.yaml")
	if err := os.WriteFile(path, []byte(signupDocument), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if got := openapi.ParseSource("HTTPS://api.example.com/openapi.json"); got.Kind != openapi.SourceKindURL {
		t.Fatalf("expected url source, got %#v", got)
	}
	if got := openapi.ParseSource("./specs/../signup.yaml"); got != (openapi.Source{Kind: openapi.SourceKindFile, Location: "signup.yaml"}) {
		t.Fatalf("expected cleaned file source, got %#v", got)
	}

	plain := openapi.NewReader()
	doc, err := plain.Load(ctx, openapi.ParseSource(path))
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if doc.Info.Title != "Signup API" {
		t.Fatalf("unexpected title %q", doc.Info.Title)
	}
	if _, err := plain.Read(ctx, openapi.Source{Kind: openapi.SourceKindURL, Location: "https://example.com"}); !errors.Is(err, openapi.ErrHTTPDisabled) {
		t.Fatalf("expected ErrHTTPDisabled, got %v", err)
	}

	fsys := fstest.MapFS{"specs/signup.yaml": {Data: []byte(signupDocument)}}
	if _, err := openapi.NewReader(openapi.WithFileSystem(fsys)).Load(ctx, openapi.Source{Kind: openapi.SourceKindFS, Location: "specs/signup.yaml"}); err != nil {
		t.Fatalf("load fs: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openapi.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(signupDocument))
	}))
	t.Cleanup(srv.Close)

	remote := openapi.NewReader(openapi.WithHTTPClient(srv.Client()))
	if _, err := remote.Load(ctx, openapi.ParseSource(srv.URL+"/openapi.yaml")); err != nil {
		t.Fatalf("load url: %v", err)
	}
	if _, err := remote.Read(ctx, openapi.ParseSource(srv.URL+"/missing")); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestExport_FormFileFixture(t *testing.T) {
	t.Parallel()

	form := testsupport.MustLoadForm(t, filepath.Join("..", "formfile", "testdata", "contact.yaml"))
	form.ID = "contact"
	doc, err := openapi.Export(form, openapi.ExportOptions{Version: "2.1.0"})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := openapi.Load(testsupport.Context(t), raw)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	imported, err := openapi.Import(loaded, openapi.OperationSubmitForm)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if diff := testsupport.CompareGolden(form.Fields, imported.Fields); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}
