package builder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formsuite/pkg/fieldtypes"
	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

// ErrFieldNotFound is returned when an operation targets a missing field id.
var ErrFieldNotFound = errors.New("builder: field not found")

// Store persists a form snapshot and returns the stored copy (with its id
// assigned on create).
type Store interface {
	SaveForm(ctx context.Context, form model.Form) (model.Form, error)
}

// StoreFunc adapts a function into a Store.
type StoreFunc func(ctx context.Context, form model.Form) (model.Form, error)

// SaveForm calls the underlying function.
func (fn StoreFunc) SaveForm(ctx context.Context, form model.Form) (model.Form, error) {
	return fn(ctx, form)
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDGenerator overrides field id generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Editor) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithRegistry overrides the field type registry.
func WithRegistry(reg *fieldtypes.Registry) Option {
	return func(e *Editor) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// WithValidator overrides the validator used by Validate and Save.
func WithValidator(v *validation.Validator) Option {
	return func(e *Editor) {
		if v != nil {
			e.validator = v
		}
	}
}

// Editor mutates a form schema in memory. Operations are serialised by a
// mutex; Save captures a snapshot so edits made while a save is in flight do
// not race with the store.
type Editor struct {
	mu        sync.Mutex
	form      model.Form
	issued    map[string]struct{}
	newID     func() string
	registry  *fieldtypes.Registry
	validator *validation.Validator
	selected  string
}

// NewEditor starts editing a copy of form. New forms default to draft.
func NewEditor(form model.Form, opts ...Option) *Editor {
	e := &Editor{
		form:      form.Clone(),
		issued:    make(map[string]struct{}),
		newID:     uuid.NewString,
		registry:  fieldtypes.Default(),
		validator: validation.New(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.form.Status == "" {
		e.form.Status = model.FormStatusDraft
	}
	for _, field := range e.form.Fields {
		e.issued[field.ID] = struct{}{}
	}
	return e
}

// Snapshot returns a deep copy of the current schema.
func (e *Editor) Snapshot() model.Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.Clone()
}

// AddField appends a field of typ seeded from the registry and returns it.
// Choice types start with two placeholder options.
func (e *Editor) AddField(typ model.FieldType) (model.Field, error) {
	return e.InsertField(typ, -1)
}

// InsertField inserts a new field at position idx (-1 or out of range
// appends).
func (e *Editor) InsertField(typ model.FieldType, idx int) (model.Field, error) {
	desc, err := e.registry.Describe(typ)
	if err != nil {
		return model.Field{}, fmt.Errorf("builder: add field: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	field := model.Field{
		ID:      e.nextID(),
		Type:    desc.Type,
		Label:   desc.DefaultLabel,
		Styling: model.FieldStyling{Width: model.WidthFull, Alignment: model.AlignLeft},
	}
	if desc.NeedsOptions {
		field.Options = fieldtypes.DefaultOptions()
	}
	if idx < 0 || idx >= len(e.form.Fields) {
		e.form.Fields = append(e.form.Fields, field)
	} else {
		e.form.Fields = append(e.form.Fields, model.Field{})
		copy(e.form.Fields[idx+1:], e.form.Fields[idx:])
		e.form.Fields[idx] = field
	}
	e.selected = field.ID
	return field.Clone(), nil
}

// nextID never hands out an id seen before, including ids of removed
// fields.
func (e *Editor) nextID() string {
	gen := e.newID
	for attempt := 0; ; attempt++ {
		if attempt == 8 {
			gen = uuid.NewString
		}
		id := gen()
		if _, taken := e.issued[id]; id != "" && !taken {
			e.issued[id] = struct{}{}
			return id
		}
	}
}

// RemoveField deletes the field with id.
func (e *Editor) RemoveField(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.form.IndexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	e.form.Fields = append(e.form.Fields[:idx], e.form.Fields[idx+1:]...)
	if e.selected == id {
		e.selected = ""
	}
	return nil
}

// DuplicateField copies the field with id right after it under a fresh id.
func (e *Editor) DuplicateField(id string) (model.Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.form.IndexOf(id)
	if idx < 0 {
		return model.Field{}, fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	dup := e.form.Fields[idx].Clone()
	dup.ID = e.nextID()
	dup.Label = strings.TrimSpace(dup.Label + " (copy)")

	e.form.Fields = append(e.form.Fields, model.Field{})
	copy(e.form.Fields[idx+2:], e.form.Fields[idx+1:])
	e.form.Fields[idx+1] = dup
	e.selected = dup.ID
	return dup.Clone(), nil
}

// MoveField moves the field with id to position to, shifting the others.
func (e *Editor) MoveField(id string, to int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	from := e.form.IndexOf(id)
	if from < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	if to < 0 || to >= len(e.form.Fields) {
		return fmt.Errorf("builder: move field: position %d out of range", to)
	}
	field := e.form.Fields[from]
	fields := append(e.form.Fields[:from:from], e.form.Fields[from+1:]...)
	fields = append(fields[:to], append([]model.Field{field}, fields[to:]...)...)
	e.form.Fields = fields
	return nil
}

// UpdateField applies fn to a copy of the field and stores the result. The id
// and type cannot be changed through fn.
func (e *Editor) UpdateField(id string, fn func(*model.Field)) (model.Field, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.form.IndexOf(id)
	if idx < 0 {
		return model.Field{}, fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	updated := e.form.Fields[idx].Clone()
	if fn != nil {
		fn(&updated)
	}
	updated.ID = e.form.Fields[idx].ID
	updated.Type = e.form.Fields[idx].Type
	e.form.Fields[idx] = updated
	return updated.Clone(), nil
}

// SetOptionLabel relabels an option and re-derives its value.
func (e *Editor) SetOptionLabel(fieldID string, idx int, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := e.form.IndexOf(fieldID)
	if pos < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, fieldID)
	}
	if !e.form.Fields[pos].SetOptionLabel(idx, label) {
		return fmt.Errorf("builder: option %d out of range for field %q", idx, fieldID)
	}
	return nil
}

// AddOption appends an option labelled label to a choice field.
func (e *Editor) AddOption(fieldID, label string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := e.form.IndexOf(fieldID)
	if pos < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, fieldID)
	}
	field := &e.form.Fields[pos]
	if strings.TrimSpace(label) == "" {
		label = fmt.Sprintf("Option %d", len(field.Options)+1)
	}
	field.Options = append(field.Options, model.Option{Label: label, Value: model.OptionValue(label)})
	return nil
}

// RemoveOption drops the option at idx.
func (e *Editor) RemoveOption(fieldID string, idx int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := e.form.IndexOf(fieldID)
	if pos < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, fieldID)
	}
	field := &e.form.Fields[pos]
	if idx < 0 || idx >= len(field.Options) {
		return fmt.Errorf("builder: option %d out of range for field %q", idx, fieldID)
	}
	field.Options = append(field.Options[:idx], field.Options[idx+1:]...)
	return nil
}

// Update applies fn to the form-level attributes. Field edits made by fn are
// discarded; use the field operations instead.
func (e *Editor) Update(fn func(*model.Form)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	draft := e.form.Clone()
	fn(&draft)
	draft.Fields = e.form.Fields
	draft.ID = e.form.ID
	e.form = draft
}

// Select marks the field the canvas highlights.
func (e *Editor) Select(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id != "" && e.form.IndexOf(id) < 0 {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	e.selected = id
	return nil
}

// Selected returns the highlighted field id.
func (e *Editor) Selected() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// FieldErrors returns inline definition errors for the field, keyed by
// attribute.
func (e *Editor) FieldErrors(id string) (validation.ErrorMap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.form.IndexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotFound, id)
	}
	return e.validator.ValidateDefinition(e.form.Fields[idx]), nil
}

// Validate runs the save-time checks against the current schema.
func (e *Editor) Validate() validation.ErrorMap {
	return e.validator.ValidateForm(e.Snapshot())
}

// Save validates a snapshot and hands it to store without holding the
// editor lock. On success only the assigned id and timestamps are written
// back so concurrent edits survive.
func (e *Editor) Save(ctx context.Context, store Store) (model.Form, error) {
	if store == nil {
		return model.Form{}, fmt.Errorf("builder: save: store is required")
	}
	snapshot := e.Snapshot()
	if errs := e.validator.ValidateForm(snapshot); !errs.Empty() {
		return model.Form{}, &validation.SchemaValidationError{Errors: errs}
	}

	saved, err := store.SaveForm(ctx, snapshot)
	if err != nil {
		return model.Form{}, fmt.Errorf("builder: save: %w", err)
	}

	e.mu.Lock()
	if e.form.ID == "" {
		e.form.ID = saved.ID
	}
	if saved.CreatedAt != nil {
		created := *saved.CreatedAt
		e.form.CreatedAt = &created
	}
	if saved.UpdatedAt != nil {
		updated := *saved.UpdatedAt
		e.form.UpdatedAt = &updated
	}
	e.mu.Unlock()
	return saved.Clone(), nil
}
