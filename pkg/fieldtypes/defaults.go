package fieldtypes

import (
	"sync"

	"github.com/goliatone/go-formsuite/pkg/model"
)

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry holding the built-in field types.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, desc := range builtins() {
			defaultRegistry.MustRegister(desc)
		}
	})
	return defaultRegistry
}

// Describe looks typ up in the default registry.
func Describe(typ model.FieldType) (Descriptor, error) {
	return Default().Describe(typ)
}

// Known reports whether typ is a built-in or registered type.
func Known(typ model.FieldType) bool {
	return Default().Has(typ)
}

// DefaultOptions returns the two placeholder options seeded into new choice
// fields.
func DefaultOptions() []model.Option {
	return []model.Option{
		{Label: "Option 1", Value: "option1"},
		{Label: "Option 2", Value: "option2"},
	}
}

// MinOptions is the minimum option count for types that need options.
const MinOptions = 2

func builtins() []Descriptor {
	length := []ValidationKey{KeyMinLength, KeyMaxLength}
	return []Descriptor{
		{Type: model.FieldTypeText, DefaultLabel: "Text Input", ValidationKeys: length, Category: CategoryBasic},
		{Type: model.FieldTypeTextarea, DefaultLabel: "Text Area", ValidationKeys: length, Category: CategoryBasic},
		{Type: model.FieldTypeEmail, DefaultLabel: "Email", ValidationKeys: length, Category: CategoryBasic},
		{Type: model.FieldTypePhone, DefaultLabel: "Phone", Category: CategoryBasic},
		{Type: model.FieldTypeNumber, DefaultLabel: "Number", ValidationKeys: []ValidationKey{KeyMin, KeyMax}, Category: CategoryBasic},
		{Type: model.FieldTypeURL, DefaultLabel: "Website", Category: CategoryBasic},
		{Type: model.FieldTypeSelect, DefaultLabel: "Dropdown", NeedsOptions: true, Category: CategoryChoice},
		{Type: model.FieldTypeRadio, DefaultLabel: "Radio Buttons", NeedsOptions: true, Category: CategoryChoice},
		{Type: model.FieldTypeCheckbox, DefaultLabel: "Checkboxes", NeedsOptions: true, ValueKind: ValueMulti, Category: CategoryChoice},
		{Type: model.FieldTypeRating, DefaultLabel: "Rating", Category: CategoryChoice},
		{Type: model.FieldTypeDate, DefaultLabel: "Date", Category: CategoryAdvanced},
		{Type: model.FieldTypeTime, DefaultLabel: "Time", Category: CategoryAdvanced},
		{Type: model.FieldTypeDatetime, DefaultLabel: "Date & Time", Category: CategoryAdvanced},
		{Type: model.FieldTypeFile, DefaultLabel: "File Upload", ValueKind: ValueFile, Category: CategoryAdvanced},
		{Type: model.FieldTypeSignature, DefaultLabel: "Signature", Category: CategoryAdvanced},
		{Type: model.FieldTypeDivider, DefaultLabel: "Divider", Presentational: true, Category: CategoryLayout},
		{Type: model.FieldTypeHTML, DefaultLabel: "HTML Content", Presentational: true, Category: CategoryLayout},
	}
}
