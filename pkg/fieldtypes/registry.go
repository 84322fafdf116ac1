package fieldtypes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// ErrUnknownFieldType is returned when a type has no registry entry.
var ErrUnknownFieldType = errors.New("fieldtypes: unknown field type")

// ValidationKey names one of the sparse validation keys a field may carry.
type ValidationKey string

const (
	KeyMinLength ValidationKey = "minLength"
	KeyMaxLength ValidationKey = "maxLength"
	KeyMin       ValidationKey = "min"
	KeyMax       ValidationKey = "max"
)

// ValueKind describes the shape of a submitted value.
type ValueKind string

const (
	ValueScalar ValueKind = "scalar"
	ValueMulti  ValueKind = "multi"
	ValueFile   ValueKind = "file"
	ValueNone   ValueKind = "none"
)

// Category groups types in the builder palette.
type Category string

const (
	CategoryBasic    Category = "basic"
	CategoryChoice   Category = "choice"
	CategoryAdvanced Category = "advanced"
	CategoryLayout   Category = "layout"
)

// Descriptor captures the structural requirements of a field type.
type Descriptor struct {
	Type           model.FieldType
	NeedsOptions   bool
	ValidationKeys []ValidationKey
	DefaultLabel   string
	ValueKind      ValueKind
	// Presentational types never take part in required or value checks.
	Presentational bool
	Category       Category
}

// Accepts reports whether key applies to the type.
func (d Descriptor) Accepts(key ValidationKey) bool {
	for _, candidate := range d.ValidationKeys {
		if candidate == key {
			return true
		}
	}
	return false
}

// Registry stores descriptors by field type.
type Registry struct {
	mu      sync.RWMutex
	entries map[model.FieldType]Descriptor
	order   []model.FieldType
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[model.FieldType]Descriptor)}
}

// Register adds a descriptor. Duplicate types return an error.
func (r *Registry) Register(desc Descriptor) error {
	name := model.FieldType(strings.TrimSpace(string(desc.Type)))
	if name == "" {
		return fmt.Errorf("fieldtypes: type is required")
	}
	desc.Type = name
	if desc.ValueKind == "" {
		desc.ValueKind = ValueScalar
	}
	if desc.Presentational {
		desc.ValueKind = ValueNone
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("fieldtypes: type %q already registered", name)
	}
	desc.ValidationKeys = append([]ValidationKey(nil), desc.ValidationKeys...)
	r.entries[name] = desc
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(desc Descriptor) {
	if err := r.Register(desc); err != nil {
		panic(err)
	}
}

// Describe returns the descriptor for typ.
func (r *Registry) Describe(typ model.FieldType) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.entries[typ]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownFieldType, typ)
	}
	desc.ValidationKeys = append([]ValidationKey(nil), desc.ValidationKeys...)
	return desc, nil
}

// Has reports whether typ is registered.
func (r *Registry) Has(typ model.FieldType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[typ]
	return ok
}

// Types returns the registered types in registration order, which is the
// builder palette order.
func (r *Registry) Types() []model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]model.FieldType(nil), r.order...)
}

// ByCategory groups the registered types, each group in palette order.
func (r *Registry) ByCategory() map[Category][]model.FieldType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Category][]model.FieldType)
	for _, typ := range r.order {
		cat := r.entries[typ].Category
		out[cat] = append(out[cat], typ)
	}
	return out
}

// Sorted returns the registered type names sorted alphabetically.
func (r *Registry) Sorted() []string {
	types := r.Types()
	names := make([]string, len(types))
	for idx, typ := range types {
		names[idx] = string(typ)
	}
	sort.Strings(names)
	return names
}
