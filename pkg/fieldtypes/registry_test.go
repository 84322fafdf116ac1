package fieldtypes

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/pkg/model"
)

func TestDefaultRegistryCoversEveryType(t *testing.T) {
	t.Parallel()

	want := []model.FieldType{
		model.FieldTypeText, model.FieldTypeTextarea, model.FieldTypeEmail,
		model.FieldTypePhone, model.FieldTypeNumber, model.FieldTypeURL,
		model.FieldTypeSelect, model.FieldTypeRadio, model.FieldTypeCheckbox,
		model.FieldTypeRating, model.FieldTypeDate, model.FieldTypeTime,
		model.FieldTypeDatetime, model.FieldTypeFile, model.FieldTypeSignature,
		model.FieldTypeDivider, model.FieldTypeHTML,
	}
	if diff := cmp.Diff(want, Default().Types()); diff != "" {
		t.Fatalf("types mismatch (-want +got):\n%s", diff)
	}
	for _, typ := range want {
		desc, err := Describe(typ)
		if err != nil {
			t.Fatalf("describe %q: %v", typ, err)
		}
		if desc.DefaultLabel == "" {
			t.Fatalf("expected default label for %q", typ)
		}
	}
}

func TestNeedsOptionsOnlyForChoiceTypes(t *testing.T) {
	t.Parallel()

	for _, typ := range Default().Types() {
		desc, _ := Describe(typ)
		expected := typ == model.FieldTypeSelect || typ == model.FieldTypeRadio || typ == model.FieldTypeCheckbox
		if desc.NeedsOptions != expected {
			t.Fatalf("NeedsOptions(%q) = %v, want %v", typ, desc.NeedsOptions, expected)
		}
	}
}

func TestValidationKeys(t *testing.T) {
	t.Parallel()

	text, _ := Describe(model.FieldTypeText)
	if !text.Accepts(KeyMinLength) || !text.Accepts(KeyMaxLength) || text.Accepts(KeyMin) {
		t.Fatalf("unexpected text keys: %v", text.ValidationKeys)
	}
	number, _ := Describe(model.FieldTypeNumber)
	if !number.Accepts(KeyMin) || !number.Accepts(KeyMax) || number.Accepts(KeyMinLength) {
		t.Fatalf("unexpected number keys: %v", number.ValidationKeys)
	}
	divider, _ := Describe(model.FieldTypeDivider)
	if !divider.Presentational || divider.ValueKind != ValueNone {
		t.Fatalf("expected divider to be presentational, got %+v", divider)
	}
}

func TestDescribeUnknownType(t *testing.T) {
	t.Parallel()

	_, err := Describe("hologram")
	if !errors.Is(err, ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.MustRegister(Descriptor{Type: "color", DefaultLabel: "Color"})
	if err := reg.Register(Descriptor{Type: "color"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := reg.Register(Descriptor{Type: "  "}); err == nil {
		t.Fatalf("expected blank type to fail")
	}
	desc, err := reg.Describe("color")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if desc.ValueKind != ValueScalar {
		t.Fatalf("expected scalar default value kind, got %q", desc.ValueKind)
	}
}

func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	want := []model.Option{
		{Label: "Option 1", Value: "option1"},
		{Label: "Option 2", Value: "option2"},
	}
	got := DefaultOptions()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("default options mismatch (-want +got):\n%s", diff)
	}
	got[0].Label = "mutated"
	if DefaultOptions()[0].Label != "Option 1" {
		t.Fatalf("expected DefaultOptions to return a fresh slice")
	}
}
