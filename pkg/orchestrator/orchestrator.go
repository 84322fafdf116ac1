package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/renderers/vanilla"
	themes "github.com/goliatone/go-formsuite/pkg/theme"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

const defaultRendererName = vanilla.Name

var (
	// ErrFormNotFound is returned by a FormSource that has no form for the id.
	ErrFormNotFound = model.ErrFormNotFound
	// ErrFormUnavailable is returned when a public surface is requested for a
	// form that is not active or outside its availability window.
	ErrFormUnavailable = errors.New("orchestrator: form not available")
)

// FormSource fetches persisted forms by id.
type FormSource interface {
	GetForm(ctx context.Context, id string) (model.Form, error)
}

// FormSourceFunc adapts a function into a FormSource.
type FormSourceFunc func(ctx context.Context, id string) (model.Form, error)

// GetForm calls the underlying function.
func (fn FormSourceFunc) GetForm(ctx context.Context, id string) (model.Form, error) {
	return fn(ctx, id)
}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFormSource sets where forms referenced by id are fetched from.
func WithFormSource(source FormSource) Option {
	return func(o *Orchestrator) {
		o.source = source
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer that runs after the form is
// fetched and before decorators.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithDecorators registers decorators that run against the form before
// rendering.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		if len(decorators) == 0 {
			return
		}
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithThemeCatalog replaces the builtin theme catalog.
func WithThemeCatalog(catalog *themes.Catalog) Option {
	return func(o *Orchestrator) {
		o.catalog = catalog
	}
}

// WithThemeSelector routes theme selection through an external go-theme
// selector instead of the catalog. Form styling still layers on top.
func WithThemeSelector(selector theme.ThemeSelector) Option {
	return func(o *Orchestrator) {
		o.selector = selector
	}
}

// WithThemeFallbacks sets partials used when a selection provides none.
func WithThemeFallbacks(fallbacks map[string]string) Option {
	return func(o *Orchestrator) {
		o.fallbacks = maps.Clone(fallbacks)
	}
}

// WithEndpoints configures the URLs public surfaces post to. submitBase is
// joined with `/<form id>/submit`.
func WithEndpoints(submitBase, uploadURL string) Option {
	return func(o *Orchestrator) {
		o.submitBase = strings.TrimRight(strings.TrimSpace(submitBase), "/")
		o.uploadURL = strings.TrimSpace(uploadURL)
	}
}

// WithValidator sets the validator the preview surface checks sample values
// with.
func WithValidator(v *validation.Validator) Option {
	return func(o *Orchestrator) {
		if v != nil {
			o.validator = v
		}
	}
}

// WithClock overrides the time source used for availability checks.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator coordinates fetch → transform → decorate → theme → render for
// every surface. It applies sensible defaults (vanilla renderer, builtin
// themes) while remaining open to dependency injection.
type Orchestrator struct {
	source          FormSource
	registry        *render.Registry
	defaultRenderer string
	initialiseErr   error
	decorators      []model.Decorator
	transformer     Transformer
	catalog         *themes.Catalog
	selector        theme.ThemeSelector
	fallbacks       map[string]string
	validator       *validation.Validator
	submitBase      string
	uploadURL       string
	now             func() time.Time
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		submitBase:      "/public/forms",
		uploadURL:       "/uploads",
		now:             time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one surface render.
type Request struct {
	// FormID is fetched through the FormSource unless Form is supplied.
	FormID string
	Form   *model.Form

	// Surface picks the page layout and default field mode. Defaults to
	// public.
	Surface render.Surface

	// Renderer names the renderer to use. If empty, the orchestrator falls back
	// to the configured default renderer.
	Renderer string

	// ThemeName overrides the form's styling theme; ThemeVariant picks a
	// manifest variant.
	ThemeName    string
	ThemeVariant string

	RenderOptions render.RenderOptions
}

// Generate fetches the form and renders the requested surface.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	form, err := o.resolveForm(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := o.applyTransformer(ctx, &form); err != nil {
		return nil, err
	}
	if err := o.applyDecorators(&form); err != nil {
		return nil, err
	}

	opts := req.RenderOptions
	if req.Surface != "" {
		opts.Surface = req.Surface
	}
	if opts.Surface == "" {
		opts.Surface = render.SurfacePublic
	}
	if !opts.Mode.Valid() {
		opts.Mode = opts.Surface.DefaultMode()
	}
	// Preview renders with values show the errors a submission would get.
	if opts.Surface == render.SurfacePreview && opts.Values != nil && len(opts.Errors) == 0 {
		if errs := o.validator.ValidateSubmission(form, opts.Values); !errs.Empty() {
			opts.Errors = errs
		}
	}
	if public(opts.Surface) && !o.available(form) {
		return nil, fmt.Errorf("%w: %q", ErrFormUnavailable, form.ID)
	}
	if opts.Mode.Bound() {
		if opts.SubmitURL == "" && form.ID != "" {
			opts.SubmitURL = o.submitBase + "/" + url.PathEscape(form.ID) + "/submit"
		}
		if opts.UploadURL == "" {
			opts.UploadURL = o.uploadURL
		}
	}
	if opts.Theme == nil {
		cfg, err := o.resolveTheme(form.Styling, req.ThemeName, req.ThemeVariant)
		if err != nil {
			return nil, err
		}
		opts.Theme = cfg
	}

	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, form, opts)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Canvas renders the builder mockup with selected highlighted.
func (o *Orchestrator) Canvas(ctx context.Context, form model.Form, selected string) ([]byte, error) {
	return o.Generate(ctx, Request{
		Form:          &form,
		Surface:       render.SurfaceCanvas,
		RenderOptions: render.RenderOptions{SelectedField: selected},
	})
}

// Preview renders the live preview at a viewport with functional controls.
// Non-nil values are validated and their errors shown under each field.
func (o *Orchestrator) Preview(ctx context.Context, form model.Form, viewport render.Viewport, values map[string]any) ([]byte, error) {
	return o.Generate(ctx, Request{
		Form:          &form,
		Surface:       render.SurfacePreview,
		RenderOptions: render.RenderOptions{Viewport: viewport, Values: values},
	})
}

// Public renders the standalone public page for a stored form.
func (o *Orchestrator) Public(ctx context.Context, formID string, opts render.RenderOptions) ([]byte, error) {
	return o.Generate(ctx, Request{FormID: formID, Surface: render.SurfacePublic, RenderOptions: opts})
}

// Widget renders the iframe document for a stored form. params are the
// embed query parameters; parentOrigin is the host page origin the widget
// reports height and submission to.
func (o *Orchestrator) Widget(ctx context.Context, formID string, params render.EmbedParams, parentOrigin string) ([]byte, error) {
	return o.Generate(ctx, Request{
		FormID:  formID,
		Surface: render.SurfaceWidget,
		RenderOptions: render.RenderOptions{
			Embed:        params,
			ParentOrigin: parentOrigin,
		},
	})
}

// FetchForm exposes the configured source, returning ErrFormNotFound when
// none is configured.
func (o *Orchestrator) FetchForm(ctx context.Context, id string) (model.Form, error) {
	if o.source == nil {
		return model.Form{}, fmt.Errorf("%w: no form source configured", ErrFormNotFound)
	}
	form, err := o.source.GetForm(ctx, id)
	if err != nil {
		return model.Form{}, fmt.Errorf("orchestrator: fetch form %q: %w", id, err)
	}
	return form, nil
}

// Registry returns the renderer registry.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

// Catalog returns the theme catalog.
func (o *Orchestrator) Catalog() *themes.Catalog {
	return o.catalog
}

func (o *Orchestrator) resolveForm(ctx context.Context, req Request) (model.Form, error) {
	if req.Form != nil {
		return req.Form.Clone(), nil
	}
	if strings.TrimSpace(req.FormID) == "" {
		return model.Form{}, errors.New("orchestrator: form or form id is required")
	}
	form, err := o.FetchForm(ctx, req.FormID)
	if err != nil {
		return model.Form{}, err
	}
	return form.Clone(), nil
}

func (o *Orchestrator) available(form model.Form) bool {
	if form.Status != model.FormStatusActive {
		return false
	}
	return form.Settings.Available(o.now())
}

func public(surface render.Surface) bool {
	return surface == render.SurfacePublic || surface == render.SurfaceWidget
}

func (o *Orchestrator) resolveTheme(styling model.FormStyling, name, variant string) (*theme.RendererConfig, error) {
	if name = strings.TrimSpace(name); name != "" {
		styling.Theme = name
	}
	if o.selector != nil {
		selection, err := o.selector.Select(styling.Theme, variant)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: select theme: %w", err)
		}
		if selection == nil {
			return nil, nil
		}
		cfg := themes.RendererConfig(selection, o.fallbacks)
		themes.ApplyStyling(cfg, styling)
		return cfg, nil
	}
	cfg, err := o.catalog.Resolve(styling, variant)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: resolve theme: %w", err)
	}
	for key, partial := range o.fallbacks {
		if _, ok := cfg.Partials[key]; !ok {
			if cfg.Partials == nil {
				cfg.Partials = make(map[string]string)
			}
			cfg.Partials[key] = partial
		}
	}
	return cfg, nil
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDecorators(form *model.Form) error {
	for _, decorator := range o.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(form); err != nil {
			return fmt.Errorf("orchestrator: decorate form: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) applyTransformer(ctx context.Context, form *model.Form) error {
	if o.transformer == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, form); err != nil {
		return fmt.Errorf("orchestrator: transform form: %w", err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.registry == nil {
		o.registry = render.NewRegistry()
		renderer, err := vanilla.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
		} else {
			o.registry.MustRegister(renderer)
		}
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
	if o.validator == nil {
		o.validator = validation.New()
	}
	if o.catalog == nil && o.selector == nil {
		catalog, err := themes.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: theme catalog: %w", err)
			return
		}
		o.catalog = catalog
	}
}
