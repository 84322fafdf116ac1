package orchestrator

import (
	"context"
	"testing"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
	themes "github.com/goliatone/go-formsuite/pkg/theme"
)

func TestOrchestrator_PassesThemeConfigToRenderer(t *testing.T) {
	t.Parallel()

	manifest := &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand": "#123456",
		},
	}

	selection := &theme.Selection{
		Theme:    "acme",
		Variant:  "custom-variant",
		Manifest: manifest,
	}

	selector := &stubThemeSelector{selection: selection}

	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	fallbacks := map[string]string{"forms.text": "fallback/text.tmpl"}
	orch := New(
		WithRegistry(registry),
		WithDefaultRenderer(renderer.Name()),
		WithThemeSelector(selector),
		WithThemeFallbacks(fallbacks),
	)

	form := model.Form{ID: "f1", Title: "Acme", Styling: model.FormStyling{Theme: "ignored", PrimaryColor: "#ff0000"}}
	_, err := orch.Generate(context.Background(), Request{
		Form:         &form,
		Surface:      render.SurfacePreview,
		ThemeName:    "custom-theme",
		ThemeVariant: "custom-variant",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if len(selector.calls) != 1 {
		t.Fatalf("expected selector called once, got %d", len(selector.calls))
	}
	if selector.calls[0].name != "custom-theme" || selector.calls[0].variant != "custom-variant" {
		t.Fatalf("unexpected selector args: %+v", selector.calls[0])
	}

	cfg := renderer.options.Theme
	if cfg == nil {
		t.Fatalf("expected theme config passed to renderer")
	}
	if cfg.Theme != selection.Theme || cfg.Variant != selection.Variant {
		t.Fatalf("selection mismatch: %s/%s", cfg.Theme, cfg.Variant)
	}
	if cfg.AssetURL == nil {
		t.Fatalf("expected AssetURL resolver present")
	}
	if got := cfg.Partials["forms.text"]; got != fallbacks["forms.text"] {
		t.Fatalf("partials not merged with fallbacks, got %q", got)
	}
	if cfg.CSSVars["--brand"] != "#123456" {
		t.Fatalf("css vars not derived from tokens")
	}
	if cfg.Tokens[themes.TokenPrimary] != "#ff0000" {
		t.Fatalf("form styling not applied over the selection, got %q", cfg.Tokens[themes.TokenPrimary])
	}
}

func TestOrchestrator_ResolvesFormThemeFromCatalog(t *testing.T) {
	t.Parallel()

	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	orch := New(WithRegistry(registry), WithDefaultRenderer(renderer.Name()))
	form := model.Form{ID: "f1", Title: "Dark", Styling: model.FormStyling{Theme: themes.ThemeDark, Spacing: "compact"}}
	if _, err := orch.Canvas(context.Background(), form, ""); err != nil {
		t.Fatalf("canvas: %v", err)
	}

	cfg := renderer.options.Theme
	if cfg == nil || cfg.Theme != themes.ThemeDark {
		t.Fatalf("expected dark theme, got %+v", cfg)
	}
	if cfg.Tokens[themes.TokenSpacing] != "8px" {
		t.Fatalf("expected compact spacing, got %q", cfg.Tokens[themes.TokenSpacing])
	}
}

func TestOrchestrator_UnknownThemeFallsBackToDefault(t *testing.T) {
	t.Parallel()

	renderer := &captureRenderer{}
	registry := render.NewRegistry()
	registry.MustRegister(renderer)

	orch := New(WithRegistry(registry), WithDefaultRenderer(renderer.Name()))
	form := model.Form{ID: "f1", Title: "Neon", Styling: model.FormStyling{Theme: "neon"}}
	if _, err := orch.Canvas(context.Background(), form, ""); err != nil {
		t.Fatalf("canvas: %v", err)
	}
	if cfg := renderer.options.Theme; cfg == nil || cfg.Theme != themes.DefaultTheme {
		t.Fatalf("expected default theme, got %+v", cfg)
	}
}

type captureRenderer struct {
	form    model.Form
	options render.RenderOptions
}

func (r *captureRenderer) Name() string {
	return "capture"
}

func (r *captureRenderer) ContentType() string {
	return "text/plain"
}

func (r *captureRenderer) Render(_ context.Context, form model.Form, opts render.RenderOptions) ([]byte, error) {
	r.form = form
	r.options = opts
	return []byte(form.ID), nil
}

type selectorCall struct {
	name    string
	variant string
}

type stubThemeSelector struct {
	selection *theme.Selection
	err       error
	calls     []selectorCall
}

func (s *stubThemeSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	s.calls = append(s.calls, selectorCall{name: name, variant: variant})
	return s.selection, s.err
}
