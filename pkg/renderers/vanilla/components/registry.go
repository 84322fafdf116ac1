package components

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
	rendertemplate "github.com/goliatone/go-formsuite/pkg/render/template"
)

// Renderer writes the control markup for one field into buf. It is one arm of
// the per-type dispatch table shared by every surface.
type Renderer func(buf *bytes.Buffer, field model.Field, data ComponentData) error

// ComponentData carries the binding state and helpers for a control.
type ComponentData struct {
	Template rendertemplate.TemplateRenderer
	// ThemePartials maps `forms.<type>` keys onto template names supplied by
	// the active theme. A matching partial replaces the built-in markup.
	ThemePartials map[string]string
	Value         any
	Mode          render.Mode
	// Name is the submitted input name. It is empty on the canvas so the
	// mockup never binds a value.
	Name      string
	ControlID string
	Invalid   bool
	UploadURL string
	Config    map[string]any
}

// Disabled reports whether controls must be inert.
func (d ComponentData) Disabled() bool {
	return !d.Mode.Bound()
}

// Script is a page script a control depends on. Src and Inline are
// exclusive.
type Script struct {
	Src    string
	Inline string
	Defer  bool
	Module bool
}

// Descriptor is one entry of the dispatch table.
type Descriptor struct {
	Type        model.FieldType
	Renderer    Renderer
	Stylesheets []string
	Scripts     []Script
}

func (d Descriptor) clone() Descriptor {
	d.Stylesheets = slices.Clone(d.Stylesheets)
	d.Scripts = slices.Clone(d.Scripts)
	return d
}

// Registry maps field types onto control renderers. Entries may be replaced,
// which is how a host overrides the built-in markup of a type.
type Registry struct {
	mu      sync.RWMutex
	entries map[model.FieldType]Descriptor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[model.FieldType]Descriptor)}
}

// Clone copies the table so overrides stay local to the copy.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := New()
	for typ, d := range r.entries {
		out.entries[typ] = d.clone()
	}
	return out
}

// Register sets the control renderer of typ.
func (r *Registry) Register(typ model.FieldType, d Descriptor) error {
	typ = model.FieldType(strings.ToLower(strings.TrimSpace(string(typ))))
	if typ == "" {
		return fmt.Errorf("components: field type is required")
	}
	if d.Renderer == nil {
		return fmt.Errorf("components: renderer for %q is nil", typ)
	}
	d.Type = typ

	r.mu.Lock()
	r.entries[typ] = d.clone()
	r.mu.Unlock()
	return nil
}

// MustRegister panics when Register fails.
func (r *Registry) MustRegister(typ model.FieldType, d Descriptor) {
	if err := r.Register(typ, d); err != nil {
		panic(err)
	}
}

// Descriptor returns the entry for typ.
func (r *Registry) Descriptor(typ model.FieldType) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.entries[typ]
	if !ok {
		return Descriptor{}, false
	}
	return d.clone(), true
}

// Types lists the registered field types in order.
func (r *Registry) Types() []model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]model.FieldType, 0, len(r.entries))
	for typ := range r.entries {
		types = append(types, typ)
	}
	slices.Sort(types)
	return types
}

// Assets collects the stylesheets and scripts the given types need, each
// once, in first-use order.
func (r *Registry) Assets(types []model.FieldType) (stylesheets []string, scripts []Script) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, typ := range types {
		d, ok := r.entries[typ]
		if !ok {
			continue
		}
		for _, href := range d.Stylesheets {
			if href == "" || seen["css:"+href] {
				continue
			}
			seen["css:"+href] = true
			stylesheets = append(stylesheets, href)
		}
		for _, script := range d.Scripts {
			key := "js:" + script.Src
			if script.Src == "" {
				key = "inline:" + script.Inline
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			scripts = append(scripts, script)
		}
	}
	return stylesheets, scripts
}
