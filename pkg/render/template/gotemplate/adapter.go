// Package gotemplate implements template.TemplateRenderer on pongo2. Page
// templates load from an fs.FS (the embedded vanilla bundle by default) or a
// directory, and are parsed once per name.
package gotemplate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formsuite/pkg/render/template"
)

// DefaultExtension is appended to template names without one.
const DefaultExtension = ".tmpl"

// Option configures New.
type Option func(*config)

type config struct {
	dir       string
	files     fs.FS
	extension string
	filters   map[string]pongo2.FilterFunction
	globals   map[string]any
}

// WithBaseDir loads templates from a directory on disk. It is consulted
// before any fs.FS given with WithFS, so a theme directory can shadow the
// embedded pages.
func WithBaseDir(dir string) Option {
	return func(c *config) { c.dir = strings.TrimSpace(dir) }
}

// WithFS loads templates from files.
func WithFS(files fs.FS) Option {
	return func(c *config) { c.files = files }
}

// WithExtension sets the extension appended to bare template names.
func WithExtension(ext string) Option {
	return func(c *config) {
		if ext = strings.TrimSpace(ext); ext != "" {
			c.extension = "." + strings.TrimPrefix(ext, ".")
		}
	}
}

// WithTemplateFunc adds pongo2 filters. Plain functions are exposed as
// globals instead, callable as {{ name(arg) }}.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(c *config) {
		for name, fn := range funcs {
			name = strings.TrimSpace(name)
			if name == "" || fn == nil {
				continue
			}
			if filter, ok := fn.(pongo2.FilterFunction); ok {
				c.filters[name] = filter
				continue
			}
			c.globals[name] = fn
		}
	}
}

// WithGlobalData makes data visible to every template.
func WithGlobalData(data map[string]any) Option {
	return func(c *config) {
		for key, value := range data {
			c.globals[strings.TrimSpace(key)] = value
		}
	}
}

// Engine is the pongo2 backed renderer.
type Engine struct {
	set *pongo2.TemplateSet
	ext string

	mu     sync.RWMutex
	parsed map[string]*pongo2.Template
}

var _ template.TemplateRenderer = (*Engine)(nil)

// New builds an Engine. A directory or an fs.FS is required.
func New(options ...Option) (*Engine, error) {
	cfg := &config{
		extension: DefaultExtension,
		filters:   map[string]pongo2.FilterFunction{},
		globals:   map[string]any{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(cfg)
		}
	}
	if cfg.dir == "" && cfg.files == nil {
		return nil, errors.New("gotemplate: a template directory or fs.FS is required")
	}

	var loaders []pongo2.TemplateLoader
	if cfg.dir != "" {
		local, err := pongo2.NewLocalFileSystemLoader(cfg.dir)
		if err != nil {
			return nil, fmt.Errorf("gotemplate: template dir %q: %w", cfg.dir, err)
		}
		loaders = append(loaders, local)
	}
	if cfg.files != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.files))
	}

	registerBuiltinFilters()
	for name, filter := range cfg.filters {
		if !pongo2.FilterExists(name) {
			if err := pongo2.RegisterFilter(name, filter); err != nil {
				return nil, fmt.Errorf("gotemplate: filter %q: %w", name, err)
			}
		}
	}

	engine := &Engine{
		set:    pongo2.NewSet("formsuite", loaders...),
		ext:    cfg.extension,
		parsed: make(map[string]*pongo2.Template),
	}
	if err := engine.GlobalContext(cfg.globals); err != nil {
		return nil, err
	}
	return engine, nil
}

// RenderTemplate renders a template by name, appending the extension when
// missing.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}
	tmpl, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, name, out)
}

// RenderString parses and renders source without caching it.
func (e *Engine) RenderString(source string, data any, out ...io.Writer) (string, error) {
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return "", fmt.Errorf("gotemplate: parse inline template: %w", err)
	}
	return e.execute(tmpl, data, "inline template", out)
}

// RegisterFilter adds a filter to pongo2. Filters are process wide, so a
// name can only be taken once.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	name = strings.TrimSpace(name)
	if name == "" || fn == nil {
		return errors.New("gotemplate: filter name and function are required")
	}
	if pongo2.FilterExists(name) {
		return fmt.Errorf("gotemplate: filter %q already registered", name)
	}
	return pongo2.RegisterFilter(name, func(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		var arg any
		if param != nil {
			arg = param.Interface()
		}
		result, err := fn(in.Interface(), arg)
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(result), nil
	})
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data any) error {
	if data == nil {
		return nil
	}
	ctx, err := toContext(data)
	if err != nil {
		return fmt.Errorf("gotemplate: global data: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set.Globals == nil {
		e.set.Globals = pongo2.Context{}
	}
	e.set.Globals.Update(ctx)
	return nil
}

func (e *Engine) lookup(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.parsed[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.parsed[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("gotemplate: load %q: %w", name, err)
	}
	e.parsed[name] = tmpl
	return tmpl, nil
}

func (e *Engine) execute(tmpl *pongo2.Template, data any, label string, out []io.Writer) (string, error) {
	ctx, err := toContext(data)
	if err != nil {
		return "", fmt.Errorf("gotemplate: %s data: %w", label, err)
	}
	e.mu.RLock()
	rendered, err := tmpl.Execute(ctx)
	e.mu.RUnlock()
	if err != nil {
		return "", fmt.Errorf("gotemplate: execute %s: %w", label, err)
	}
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

// toContext turns template data into a pongo2 context. Functions stay
// callable; everything else is normalised through JSON so views, fields and
// theme configs are addressed by their json names.
func toContext(data any) (pongo2.Context, error) {
	var values map[string]any
	switch v := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		values = v
	case map[string]any:
		values = v
	default:
		normalised, err := normalise(v)
		if err != nil {
			return nil, err
		}
		m, ok := normalised.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("template data must be an object, got %T", data)
		}
		values = m
	}

	ctx := make(pongo2.Context, len(values))
	for key, value := range values {
		if key = strings.TrimSpace(key); key == "" {
			continue
		}
		if isFunc(value) {
			ctx[key] = value
			continue
		}
		normalised, err := normalise(value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		ctx[key] = normalised
	}
	return ctx, nil
}

func normalise(value any) (any, error) {
	switch value.(type) {
	case nil, string, bool, float64, int, int64:
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func isFunc(value any) bool {
	return value != nil && reflect.ValueOf(value).Kind() == reflect.Func
}

var builtinFilters sync.Once

func registerBuiltinFilters() {
	builtinFilters.Do(func() {
		if !pongo2.FilterExists("trim") {
			_ = pongo2.RegisterFilter("trim", func(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
				return pongo2.AsValue(strings.TrimSpace(in.String())), nil
			})
		}
		if !pongo2.FilterExists("cssvar") {
			_ = pongo2.RegisterFilter("cssvar", cssVar)
		}
	})
}

// cssVar turns a theme token name into a custom property reference:
// "primary-color" becomes "var(--primary-color)". The optional parameter is
// the fallback value.
func cssVar(in, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	name := strings.TrimPrefix(strings.TrimSpace(in.String()), "--")
	if name == "" {
		return pongo2.AsValue(""), nil
	}
	if param != nil && !param.IsNil() {
		if fallback := strings.TrimSpace(param.String()); fallback != "" {
			return pongo2.AsValue(fmt.Sprintf("var(--%s, %s)", name, fallback)), nil
		}
	}
	return pongo2.AsValue("var(--" + name + ")"), nil
}
