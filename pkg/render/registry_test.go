package render_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
)

type namedRenderer string

func (n namedRenderer) Name() string        { return string(n) }
func (n namedRenderer) ContentType() string { return "text/plain" }
func (n namedRenderer) Render(context.Context, model.Form, render.RenderOptions) ([]byte, error) {
	return []byte(n), nil
}

func TestRegistryRegisterAndList(t *testing.T) {
	reg := render.NewRegistry()
	reg.MustRegister(namedRenderer("vanilla"))
	reg.MustRegister(namedRenderer("tui"))

	if err := reg.Register(namedRenderer("vanilla")); !errors.Is(err, render.ErrDuplicateRenderer) {
		t.Fatalf("expected ErrDuplicateRenderer, got %v", err)
	}
	if err := reg.Register(namedRenderer(" ")); err == nil {
		t.Fatalf("expected blank name to fail")
	}
	if err := reg.Register(nil); err == nil {
		t.Fatalf("expected nil renderer to fail")
	}
	if diff := cmp.Diff([]string{"tui", "vanilla"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if _, err := reg.Get("pdf"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
	if !reg.Has("tui") {
		t.Fatalf("expected tui to be registered")
	}
}

func TestSurfaceModesAndViewports(t *testing.T) {
	cases := map[render.Surface]render.Mode{
		render.SurfaceCanvas:  render.ModeCanvas,
		render.SurfacePreview: render.ModePreview,
		render.SurfacePublic:  render.ModeInteractive,
		render.SurfaceWidget:  render.ModeInteractive,
	}
	for surface, want := range cases {
		if got := (render.RenderOptions{Surface: surface}).ResolvedMode(); got != want {
			t.Fatalf("%s: mode %q, want %q", surface, got, want)
		}
	}
	if got := (render.RenderOptions{Surface: render.SurfacePublic, Mode: render.ModeCanvas}).ResolvedMode(); got != render.ModeCanvas {
		t.Fatalf("expected explicit mode to win, got %q", got)
	}

	widths := map[string]int{"mobile": 375, "Tablet": 768, "desktop": 1200, "": 1200, "watch": 1200}
	for raw, want := range widths {
		if got := render.ParseViewport(raw).Width(); got != want {
			t.Fatalf("viewport %q width %d, want %d", raw, got, want)
		}
	}
}
