// Package theme resolves form styling into the renderer configuration every
// surface receives. Themes are go-theme manifests; a form's own styling
// (primary colour, background, radius, spacing) is layered on top of the
// selected manifest and variant.
package theme

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// ErrUnknownTheme is returned when a theme name is not registered.
var ErrUnknownTheme = errors.New("theme: unknown theme")

// Option configures a Catalog.
type Option func(*Catalog)

// WithDefaultTheme overrides the theme used when none is requested.
func WithDefaultTheme(name string) Option {
	return func(c *Catalog) {
		if name = strings.TrimSpace(name); name != "" {
			c.defaultTheme = name
		}
	}
}

// WithFallbacks sets partials applied when neither the manifest nor the
// variant provides one.
func WithFallbacks(partials map[string]string) Option {
	return func(c *Catalog) {
		c.fallbacks = maps.Clone(partials)
	}
}

// WithManifests registers additional manifests at construction.
func WithManifests(manifests ...*theme.Manifest) Option {
	return func(c *Catalog) {
		c.pending = append(c.pending, manifests...)
	}
}

// WithoutBuiltins skips the builtin manifests.
func WithoutBuiltins() Option {
	return func(c *Catalog) {
		c.skipBuiltins = true
	}
}

type manifestRegistry interface {
	Register(*theme.Manifest) error
}

// Catalog holds theme manifests and implements theme.ThemeSelector.
type Catalog struct {
	mu           sync.RWMutex
	registry     manifestRegistry
	provider     theme.ThemeProvider
	manifests    map[string]*theme.Manifest
	defaultTheme string
	fallbacks    map[string]string
	pending      []*theme.Manifest
	skipBuiltins bool
}

var _ theme.ThemeSelector = (*Catalog)(nil)

// New builds a catalog seeded with the builtin themes.
func New(opts ...Option) (*Catalog, error) {
	registry := theme.NewRegistry()
	c := &Catalog{
		registry:     registry,
		provider:     registry,
		manifests:    make(map[string]*theme.Manifest),
		defaultTheme: DefaultTheme,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	manifests := c.pending
	c.pending = nil
	if !c.skipBuiltins {
		manifests = append(Builtins(), manifests...)
	}
	for _, manifest := range manifests {
		if err := c.Register(manifest); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew mirrors New but panics on error.
func MustNew(opts ...Option) *Catalog {
	c, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Register adds a manifest.
func (c *Catalog) Register(manifest *theme.Manifest) error {
	if manifest == nil || strings.TrimSpace(manifest.Name) == "" {
		return errors.New("theme: manifest name is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.manifests[manifest.Name]; exists {
		return fmt.Errorf("theme: theme %q already registered", manifest.Name)
	}
	if err := c.registry.Register(manifest); err != nil {
		return fmt.Errorf("theme: register %q: %w", manifest.Name, err)
	}
	c.manifests[manifest.Name] = manifest
	return nil
}

// Provider exposes the underlying go-theme registry.
func (c *Catalog) Provider() theme.ThemeProvider {
	return c.provider
}

// Names lists registered themes, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.manifests))
}

// Has reports whether name is registered.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.manifests[name]
	return ok
}

// Select implements theme.ThemeSelector. An empty name selects the default
// theme; an unknown variant is an error.
func (c *Catalog) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.defaultTheme
	}
	variant = strings.TrimSpace(variant)

	c.mu.RLock()
	manifest, ok := c.manifests[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("theme: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// Resolve selects the form's theme and returns the renderer configuration
// with the form styling applied over the theme tokens. Unknown theme names
// fall back to the default theme.
func (c *Catalog) Resolve(styling model.FormStyling, variant string) (*theme.RendererConfig, error) {
	name := strings.TrimSpace(styling.Theme)
	if name != "" && !c.Has(name) {
		name = ""
	}
	selection, err := c.Select(name, variant)
	if err != nil {
		return nil, err
	}
	cfg := RendererConfig(selection, c.fallbacks)
	ApplyStyling(cfg, styling)
	return cfg, nil
}

// RendererConfig flattens a selection: variant tokens, templates and asset
// files override the manifest's, and fallbacks fill missing partials.
func RendererConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: maps.Clone(fallbacks),
		Tokens:   map[string]string{},
	}
	if cfg.Partials == nil {
		cfg.Partials = map[string]string{}
	}

	prefix := ""
	files := map[string]string{}
	if manifest := selection.Manifest; manifest != nil {
		maps.Copy(cfg.Tokens, manifest.Tokens)
		maps.Copy(cfg.Partials, manifest.Templates)
		prefix = manifest.Assets.Prefix
		maps.Copy(files, manifest.Assets.Files)
		if v, ok := manifest.Variants[selection.Variant]; ok {
			maps.Copy(cfg.Tokens, v.Tokens)
			maps.Copy(cfg.Partials, v.Templates)
			if v.Assets.Prefix != "" {
				prefix = v.Assets.Prefix
			}
			maps.Copy(files, v.Assets.Files)
		}
	}
	cfg.CSSVars = cssVars(cfg.Tokens)
	cfg.AssetURL = assetResolver(prefix, files)
	return cfg
}

func cssVars(tokens map[string]string) map[string]string {
	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		vars["--"+strings.TrimPrefix(key, "--")] = value
	}
	return vars
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	prefix = strings.TrimRight(prefix, "/")
	return func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.HasPrefix(file, "/") || strings.Contains(file, "://") {
			return file
		}
		if prefix == "" {
			return file
		}
		return prefix + "/" + strings.TrimLeft(file, "/")
	}
}
