// Package formsuite is the top-level entry point: it re-exports the pieces a
// host application needs to load, render and embed forms without importing
// each sub-package.
package formsuite

import (
	"context"
	"io/fs"

	"github.com/goliatone/go-formsuite/pkg/embed"
	"github.com/goliatone/go-formsuite/pkg/formfile"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/orchestrator"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/renderers/vanilla"
)

// RenderOptions describes per-request overrides that renderers can use to
// prefill values or surface server-side validation errors.
type RenderOptions = render.RenderOptions

// Surface names where a form is shown.
type Surface = render.Surface

const (
	SurfaceCanvas  = render.SurfaceCanvas
	SurfacePreview = render.SurfacePreview
	SurfacePublic  = render.SurfacePublic
	SurfaceWidget  = render.SurfaceWidget
)

// NewOrchestrator exposes the orchestrator constructor.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// LoadForm reads a YAML or JSON form definition.
func LoadForm(path string) (model.Form, error) {
	return formfile.ReadFile(path)
}

// RenderHTML renders form on surface with the vanilla renderer.
func RenderHTML(ctx context.Context, form model.Form, surface Surface, opts RenderOptions, options ...orchestrator.Option) ([]byte, error) {
	return orchestrator.New(options...).Generate(ctx, orchestrator.Request{
		Form:          &form,
		Surface:       surface,
		RenderOptions: opts,
	})
}

// EmbedSnippet returns the snippet for one delivery strategy. baseURL is
// the origin serving /embed/{id}.
func EmbedSnippet(baseURL string, form model.Form, kind model.DisplayStyle, style string) (string, error) {
	return embed.Generator{BaseURL: baseURL}.Generate(form.ID, kind, style, form.EmbedSettings)
}

// EmbeddedTemplates exposes the built-in vanilla renderer templates so callers
// can reuse or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return vanilla.TemplatesFS()
}

// AssetsFS exposes the browser runtime and stylesheet served under /assets.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formsuite.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return vanilla.AssetsFS()
}
