package formsuite_test

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	formsuite "github.com/goliatone/go-formsuite"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
)

func loadContact(t *testing.T) model.Form {
	t.Helper()
	form, err := formsuite.LoadForm(filepath.Join("pkg", "formfile", "testdata", "contact.yaml"))
	if err != nil {
		t.Fatalf("load form: %v", err)
	}
	form.ID = "contact"
	return form
}

func TestRenderHTML_PublicSurface(t *testing.T) {
	t.Parallel()

	form := loadContact(t)
	clock := orchestrator.WithClock(func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) })
	out, err := formsuite.RenderHTML(context.Background(), form, formsuite.SurfacePublic, formsuite.RenderOptions{}, clock)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Contact us", `action="/public/forms/contact/submit"`} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in output:\n%s", want, html)
		}
	}

	early := orchestrator.WithClock(func() time.Time { return time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC) })
	if _, err := formsuite.RenderHTML(context.Background(), form, formsuite.SurfacePublic, formsuite.RenderOptions{}, early); err == nil {
		t.Fatalf("expected public render before the start date to fail")
	}
}

func TestRenderHTML_PreviewShowsSampleValueErrors(t *testing.T) {
	t.Parallel()

	form := model.Form{
		ID:    "signup",
		Title: "Signup",
		Fields: []model.Field{
			{ID: "name", Type: model.FieldTypeText, Label: "Name", Required: true},
			{ID: "mail", Type: model.FieldTypeEmail, Label: "Email"},
		},
	}
	out, err := formsuite.RenderHTML(context.Background(), form, formsuite.SurfacePreview, formsuite.RenderOptions{
		Values: map[string]any{"name": "", "mail": "not-an-email"},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(out)
	for _, want := range []string{"This field is required", "Please enter a valid email address"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in preview:\n%s", want, html)
		}
	}
}

func TestEmbedSnippet(t *testing.T) {
	t.Parallel()

	snippet, err := formsuite.EmbedSnippet("https://forms.example.com", loadContact(t), model.DisplayInline, "modern")
	if err != nil {
		t.Fatalf("snippet: %v", err)
	}
	if !strings.Contains(snippet, "https://forms.example.com/embed/contact") {
		t.Fatalf("expected frame url in snippet:\n%s", snippet)
	}
}

func TestAssetsFSContainsRuntime(t *testing.T) {
	t.Parallel()

	data, err := fs.ReadFile(formsuite.AssetsFS(), "formsuite-runtime.js")
	if err != nil {
		t.Fatalf("expected runtime to be readable: %v", err)
	}
	if !strings.Contains(string(data), "formsuite:submitted") {
		t.Fatalf("expected runtime to dispatch the submitted event")
	}
	if _, err := fs.Stat(formsuite.EmbeddedTemplates(), "templates/form.tmpl"); err != nil {
		t.Fatalf("expected form template: %v", err)
	}
}
