package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
)

func TestMapErrorPayload_CollaboratorPaths(t *testing.T) {
	form := model.Form{
		Fields: []model.Field{
			{ID: "name", Type: model.FieldTypeText},
			{ID: "email", Type: model.FieldTypeEmail},
			{ID: "tags", Type: model.FieldTypeCheckbox},
		},
	}

	payload := map[string][]string{
		"name":               {"Name is required"},
		"/formData/email":    {"Email invalid"},
		"data.tags[0]":       {"Unknown option"},
		"$.body.data.name":   {" Name is required "},
		"non_field_errors":   {"Form closed"},
		"data/unknown-field": {"Falls back to form errors"},
		"":                   {"Unscoped form error"},
		"email":              {"  "},
	}

	mapped := render.MapErrorPayload(form, payload)

	wantFields := map[string][]string{
		"name":  {"Name is required"},
		"email": {"Email invalid"},
		"tags":  {"Unknown option"},
	}
	if diff := cmp.Diff(wantFields, mapped.Fields); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	wantForm := []string{"Falls back to form errors", "Form closed", "Unscoped form error"}
	if diff := cmp.Diff(wantForm, mapped.Form, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
		t.Fatalf("form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	want := []string{"First", "Second", "third"}
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged errors mismatch (-want +got):\n%s", diff)
	}
}
