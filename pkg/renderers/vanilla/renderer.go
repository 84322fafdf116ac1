package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/embed"
	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
	rendertemplate "github.com/goliatone/go-formsuite/pkg/render/template"
	gotemplate "github.com/goliatone/go-formsuite/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formsuite/pkg/renderers/vanilla/components"
	"github.com/goliatone/go-formsuite/pkg/visibility"
)

// Name is the registry name of the HTML renderer.
const Name = "vanilla"

const (
	themeStylesheetKey = "stylesheet"
	defaultSubmitLabel = "Submit"
	defaultSuccess     = "Thank you! Your response has been recorded."
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	components       *components.Registry
	types            *fieldtypes.Registry
	evaluator        visibility.Evaluator
	stylesheetURL    string
	runtimeURL       string
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithComponentRegistry replaces the per-type control table.
func WithComponentRegistry(registry *components.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.components = registry
		}
	}
}

// WithFieldTypes replaces the field type registry.
func WithFieldTypes(types *fieldtypes.Registry) Option {
	return func(cfg *config) {
		if types != nil {
			cfg.types = types
		}
	}
}

// WithEvaluator replaces the conditional visibility evaluator.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(cfg *config) {
		if evaluator != nil {
			cfg.evaluator = evaluator
		}
	}
}

// WithAssetURLs overrides where the base stylesheet and runtime script are
// served from.
func WithAssetURLs(stylesheet, runtime string) Option {
	return func(cfg *config) {
		if stylesheet = strings.TrimSpace(stylesheet); stylesheet != "" {
			cfg.stylesheetURL = stylesheet
		}
		if runtime = strings.TrimSpace(runtime); runtime != "" {
			cfg.runtimeURL = runtime
		}
	}
}

// Renderer renders every surface as HTML. Field markup comes from the
// shared component table; page chrome comes from templates.
type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	components *components.Registry
	types      *fieldtypes.Registry
	evaluator  visibility.Evaluator
	stylesheet string
	runtime    string
}

var (
	_ render.Renderer      = (*Renderer)(nil)
	_ render.FieldRenderer = (*Renderer)(nil)
)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:    TemplatesFS(),
		stylesheetURL: "/assets/" + StylesheetName,
		runtimeURL:    "/assets/" + RuntimeScriptName,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}
	if cfg.components == nil {
		cfg.components = components.NewDefaultRegistry()
	}

	return &Renderer{
		templates:  renderer,
		components: cfg.components,
		types:      cfg.types,
		evaluator:  cfg.evaluator,
		stylesheet: cfg.stylesheetURL,
		runtime:    cfg.runtimeURL,
	}, nil
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// RenderField renders one field on its own. Conditional rules are evaluated
// against the field's own value only.
func (r *Renderer) RenderField(field model.Field, value any, errorMessage string, mode render.Mode) (render.FieldView, error) {
	cr := newComponentRenderer(r.templates, r.components, r.types, r.evaluator)
	return cr.render(field, value, errorMessage, mode, fieldState{
		values: map[string]any{field.ID: value},
	})
}

// RenderFields renders every field of form for the given options and
// returns the views in form order.
func (r *Renderer) RenderFields(form model.Form, options render.RenderOptions) ([]render.FieldView, error) {
	views, _, err := r.renderFields(form, options)
	return views, err
}

func (r *Renderer) renderFields(form model.Form, options render.RenderOptions) ([]render.FieldView, *componentRenderer, error) {
	mode := options.ResolvedMode()
	values := mergeValues(form, options.Values)
	state := fieldState{
		values:    values,
		uploadURL: options.UploadURL,
		selected:  options.SelectedField,
	}
	if options.Theme != nil {
		state.partials = options.Theme.Partials
	}

	cr := newComponentRenderer(r.templates, r.components, r.types, r.evaluator)
	views := make([]render.FieldView, 0, len(form.Fields))
	for _, field := range form.Fields {
		view, err := cr.render(field, values[field.ID], options.FieldError(field.ID), mode, state)
		if err != nil {
			return nil, nil, err
		}
		views = append(views, view)
	}
	return views, cr, nil
}

// Render produces a complete surface: a full page for public, a framed
// document for the widget and fragments for the canvas and preview.
func (r *Renderer) Render(_ context.Context, form model.Form, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	form = form.Clone()
	render.ApplySubset(&form, options.Subset)

	views, cr, err := r.renderFields(form, options)
	if err != nil {
		return nil, err
	}

	data := r.pageData(form, options, views, cr)
	name := templateFor(options.Surface)
	result, err := r.templates.RenderTemplate(name, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func templateFor(surface render.Surface) string {
	switch surface {
	case render.SurfaceCanvas:
		return "templates/canvas.tmpl"
	case render.SurfacePreview:
		return "templates/preview.tmpl"
	case render.SurfaceWidget:
		return "templates/widget.tmpl"
	default:
		return "templates/form.tmpl"
	}
}

func (r *Renderer) pageData(form model.Form, options render.RenderOptions, views []render.FieldView, cr *componentRenderer) map[string]any {
	fields := make([]map[string]any, 0, len(views))
	for _, view := range views {
		fields = append(fields, map[string]any{
			"id":          view.FieldID,
			"type":        string(view.Type),
			"label":       view.Label,
			"html":        view.HTML,
			"visible":     view.Visible,
			"conditional": view.Conditional,
			"selected":    view.FieldID == options.SelectedField,
		})
	}

	hidden := render.MergeHiddenFields(options.HiddenFields, render.FormIDField(form.ID))
	hiddenFields := make([]map[string]string, 0, len(hidden))
	for _, field := range render.SortedHiddenFields(hidden) {
		hiddenFields = append(hiddenFields, map[string]string{"name": field.Name, "value": field.Value})
	}

	stylesheets := []string{}
	if sheet := r.themeStylesheet(options); sheet != "" {
		stylesheets = append(stylesheets, sheet)
	}
	componentStyles, componentScripts := cr.assets()
	stylesheets = append(stylesheets, componentStyles...)

	scripts := []map[string]any{}
	if options.ResolvedMode().Bound() && r.runtime != "" {
		scripts = append(scripts, map[string]any{"src": r.runtime, "defer": true})
	}
	for _, script := range componentScripts {
		scripts = append(scripts, map[string]any{
			"src":    script.Src,
			"inline": script.Inline,
			"defer":  script.Defer,
			"module": script.Module,
		})
	}

	showTitle, showDescription := true, true
	if options.Surface == render.SurfaceWidget {
		showTitle = options.Embed.ShowTitle
		showDescription = options.Embed.ShowDescription
	}

	themeData := map[string]any{}
	if cfg := options.Theme; cfg != nil {
		themeData["name"] = cfg.Theme
		themeData["variant"] = cfg.Variant
		themeData["css_vars_style"] = cssVarsStyle(cfg.CSSVars)
	}

	submitLabel := strings.TrimSpace(form.EmbedSettings.ButtonText)
	if options.Surface != render.SurfaceWidget || submitLabel == "" {
		submitLabel = defaultSubmitLabel
	}
	success := strings.TrimSpace(form.Settings.SuccessMessage)
	if success == "" {
		success = defaultSuccess
	}

	data := map[string]any{
		"form": map[string]any{
			"id":               form.ID,
			"title":            form.Title,
			"description":      form.Description,
			"show_title":       showTitle && strings.TrimSpace(form.Title) != "",
			"show_description": showDescription && strings.TrimSpace(form.Description) != "",
			"status":           string(form.Status),
		},
		"surface":         string(options.Surface),
		"mode":            string(options.ResolvedMode()),
		"viewport":        string(options.Viewport),
		"viewport_width":  strconv.Itoa(options.Viewport.Width()),
		"fields":          fields,
		"hidden_fields":   hiddenFields,
		"submit_url":      options.SubmitURL,
		"upload_url":      options.UploadURL,
		"submit_label":    submitLabel,
		"success_message": success,
		"validate_url":    options.ValidateURL,
		"redirect_url":    redirectURL(form.Settings.RedirectURL),
		"form_errors":     nonBlank(options.FormErrors),
		"stylesheets":     stylesheets,
		"scripts":         scripts,
		"theme":           themeData,
		"classes":         chromeClasses(),
		"embed": map[string]any{
			"style":   options.Embed.Style,
			"popup":   options.Embed.Popup,
			"sidebar": options.Embed.Sidebar,
		},
	}
	if options.Surface == render.SurfaceWidget {
		data["child_script"] = embed.ChildScript(options.ParentOrigin)
	}
	return data
}

func (r *Renderer) themeStylesheet(options render.RenderOptions) string {
	if cfg := options.Theme; cfg != nil && cfg.AssetURL != nil {
		if url := cfg.AssetURL(themeStylesheetKey); url != "" {
			return url
		}
	}
	return r.stylesheet
}

// redirectURL drops targets the runtime must not navigate to.
func redirectURL(raw string) string {
	if !model.SafeRedirectURL(raw) {
		return ""
	}
	return strings.TrimSpace(raw)
}

func nonBlank(messages []string) []string {
	out := make([]string, 0, len(messages))
	for _, message := range messages {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
