package model

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestOptionValueDerivation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Option A":        "option_a",
		"Yes":             "yes",
		"Very  Satisfied": "very__satisfied",
		"already_snake":   "already_snake",
		"":                "",
	}
	for label, want := range cases {
		if got := OptionValue(label); got != want {
			t.Fatalf("OptionValue(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestSetOptionLabelRederivesValue(t *testing.T) {
	t.Parallel()

	field := Field{
		Type: FieldTypeSelect,
		Options: []Option{
			{Label: "Option 1", Value: "option1"},
			{Label: "Option 2", Value: "option2"},
		},
	}
	if !field.SetOptionLabel(0, "Option A") {
		t.Fatalf("expected option 0 to be updated")
	}
	want := Option{Label: "Option A", Value: "option_a"}
	if diff := cmp.Diff(want, field.Options[0]); diff != "" {
		t.Fatalf("option mismatch (-want +got):\n%s", diff)
	}
	if field.SetOptionLabel(5, "nope") {
		t.Fatalf("expected out of range update to be rejected")
	}
}

func TestFormCloneIsDeep(t *testing.T) {
	t.Parallel()

	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	form := Form{
		Title: "Signup",
		Fields: []Field{{
			ID:         "f1",
			Type:       FieldTypeRadio,
			Label:      "Pick",
			Options:    []Option{{Label: "A", Value: "a"}, {Label: "B", Value: "b"}},
			Validation: Validation{MinLength: IntPtr(2)},
		}},
		Settings: FormSettings{
			EndDate:           &end,
			SubmissionLimit:   IntPtr(10),
			EmailNotification: EmailNotification{Recipients: []string{"ops@example.com"}},
		},
	}

	snapshot := form.Clone()
	form.Fields[0].Options[0].Label = "changed"
	*form.Fields[0].Validation.MinLength = 9
	*form.Settings.SubmissionLimit = 99
	form.Settings.EmailNotification.Recipients[0] = "other@example.com"
	form.Fields = append(form.Fields, Field{ID: "f2"})

	if snapshot.Fields[0].Options[0].Label != "A" {
		t.Fatalf("option label leaked into snapshot")
	}
	if *snapshot.Fields[0].Validation.MinLength != 2 {
		t.Fatalf("validation pointer shared with snapshot")
	}
	if *snapshot.Settings.SubmissionLimit != 10 {
		t.Fatalf("submission limit pointer shared with snapshot")
	}
	if snapshot.Settings.EmailNotification.Recipients[0] != "ops@example.com" {
		t.Fatalf("recipients shared with snapshot")
	}
	if len(snapshot.Fields) != 1 {
		t.Fatalf("expected snapshot to keep 1 field, got %d", len(snapshot.Fields))
	}
}

func TestPublicViewClearsStaffSettings(t *testing.T) {
	t.Parallel()

	form := Form{
		Title: "Signup",
		Settings: FormSettings{
			SubmissionLimit:   IntPtr(10),
			RedirectURL:       "javascript:alert(1)",
			SuccessMessage:    "Thanks",
			EmailNotification: EmailNotification{Enabled: true, Recipients: []string{"ops@example.com"}},
		},
	}

	public := form.PublicView()
	want := FormSettings{SuccessMessage: "Thanks"}
	if diff := cmp.Diff(want, public.Settings); diff != "" {
		t.Fatalf("public settings mismatch (-want +got):\n%s", diff)
	}
	if form.Settings.EmailNotification.Recipients[0] != "ops@example.com" || form.Settings.SubmissionLimit == nil {
		t.Fatalf("PublicView must not modify the source form")
	}

	form.Settings.RedirectURL = "https://example.com/thanks"
	if got := form.PublicView().Settings.RedirectURL; got != "https://example.com/thanks" {
		t.Fatalf("expected http(s) redirect to survive, got %q", got)
	}
}

func TestSafeRedirectURL(t *testing.T) {
	t.Parallel()

	for raw, want := range map[string]bool{
		"https://example.com/thanks":   true,
		" http://example.com ":         true,
		"javascript:alert(1)":          false,
		"JavaScript://example.com/%0a": false,
		"data:text/html,hi":            false,
		"//example.com/next":           false,
		"/thanks":                      false,
		"":                             false,
	} {
		if got := SafeRedirectURL(raw); got != want {
			t.Fatalf("%q: want %v, got %v", raw, want, got)
		}
	}
}

func TestSettingsAvailableWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	settings := FormSettings{StartDate: &start, EndDate: &end}

	if settings.Available(start.Add(-time.Hour)) {
		t.Fatalf("expected form to be unavailable before start")
	}
	if !settings.Available(start) || !settings.Available(end) {
		t.Fatalf("expected window bounds to be inclusive")
	}
	if settings.Available(end.Add(time.Second)) {
		t.Fatalf("expected form to be unavailable after end")
	}
	if !(FormSettings{}).Available(start) {
		t.Fatalf("expected unbounded settings to be available")
	}
}

func TestSubmissionStatusValid(t *testing.T) {
	t.Parallel()

	for _, status := range SubmissionStatuses() {
		if !status.Valid() {
			t.Fatalf("expected %q to be valid", status)
		}
	}
	if SubmissionStatus("archived").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}
