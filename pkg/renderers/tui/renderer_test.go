package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/pkg/model"
	"github.com/goliatone/go-formsuite/pkg/render"
	"github.com/goliatone/go-formsuite/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	prompts      []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, cfg TextAreaConfig) (string, error) {
	s.prompts = append(s.prompts, cfg.Message)
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

var colours = []model.Option{{Label: "Red", Value: "red"}, {Label: "Blue", Value: "blue"}}

func TestRender_CollectsEveryType(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		inputs:    []string{"Ada", "42"},
		textAreas: []string{"Hello there"},
		selectIdx: []int{1, 3},
		multiIdx:  [][]int{{0, 1}},
	}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	form := model.Form{
		Title: "Survey",
		Fields: []model.Field{
			{ID: "name", Type: model.FieldTypeText, Label: "Name", Required: true},
			{ID: "intro", Type: model.FieldTypeHTML, Content: "<p>Tell us <b>more</b></p>"},
			{ID: "age", Type: model.FieldTypeNumber, Label: "Age"},
			{ID: "bio", Type: model.FieldTypeTextarea, Label: "Bio"},
			{ID: "colour", Type: model.FieldTypeRadio, Label: "Colour", Required: true, Options: colours},
			{ID: "likes", Type: model.FieldTypeCheckbox, Label: "Likes", Options: colours},
			{ID: "score", Type: model.FieldTypeRating, Label: "Score"},
		},
	}

	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var payload struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"name":   "Ada",
		"age":    float64(42),
		"bio":    "Hello there",
		"colour": "blue",
		"likes":  []any{"red", "blue"},
		"score":  float64(3),
	}
	if diff := cmp.Diff(want, payload.Data); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
	if !containsMessage(driver.infoMessages, "Tell us more") {
		t.Fatalf("expected html content printed as text, got %v", driver.infoMessages)
	}
}

func TestRender_RepromptsUntilValid(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"", "hi", "hello"}}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	form := model.Form{Fields: []model.Field{{
		ID: "name", Type: model.FieldTypeText, Label: "Name", Required: true,
		Validation: model.Validation{MinLength: model.IntPtr(5)},
	}}}
	values, err := r.Fill(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if values["name"] != "hello" {
		t.Fatalf("unexpected value %v", values["name"])
	}
	wantInfo := []string{"Name *: " + validation.MsgRequired, "Name *: Minimum 5 characters required"}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestRender_SkipsFieldsHiddenByEarlierAnswers(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{selectIdx: []int{1}}
	r, err := New(WithPromptDriver(driver))
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	form := model.Form{Fields: []model.Field{
		{ID: "callback", Type: model.FieldTypeSelect, Label: "Call me?", Required: true,
			Options: []model.Option{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}}},
		{ID: "phone", Type: model.FieldTypePhone, Label: "Phone", Required: true,
			Conditional: model.Conditional{Enabled: true, Field: "callback", Value: "yes", Action: model.ConditionalShow}},
	}}
	values, err := r.Fill(context.Background(), form, render.RenderOptions{Values: map[string]any{"phone": "555"}})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"callback": "no"}, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != 0 {
		t.Fatalf("hidden phone must not be prompted")
	}
}

func TestRender_OptionalChoiceCanBeSkipped(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{selectIdx: []int{0}}
	r, _ := New(WithPromptDriver(driver), WithOutputFormat(OutputFormatPrettyText))
	form := model.Form{Fields: []model.Field{{ID: "colour", Type: model.FieldTypeSelect, Label: "Colour", Options: colours}}}
	out, err := r.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no answers, got %q", out)
	}
}

func TestRender_FileUsesUploaderForLocalPaths(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"./cv.pdf", "https://cdn.example/cv.pdf"}}
	noUpload, _ := New(WithPromptDriver(driver))
	form := model.Form{Fields: []model.Field{{ID: "cv", Type: model.FieldTypeFile, Label: "CV", Required: true}}}

	values, err := noUpload.Fill(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	ref, ok := values["cv"].(*model.FileReference)
	if !ok || ref.URL != "https://cdn.example/cv.pdf" {
		t.Fatalf("expected url reference after reprompt, got %#v", values["cv"])
	}

	uploads := 0
	uploader := func(_ context.Context, path string) (model.FileReference, error) {
		uploads++
		return model.FileReference{URL: "https://files/" + strings.TrimPrefix(path, "./"), Name: "cv.pdf"}, nil
	}
	withUpload, _ := New(WithPromptDriver(&stubDriver{inputs: []string{"./cv.pdf"}}), WithUploader(uploader), WithOutputFormat(OutputFormatFormURLEncoded))
	out, err := withUpload.Render(context.Background(), form, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if uploads != 1 || string(out) != "cv=https%3A%2F%2Ffiles%2Fcv.pdf" {
		t.Fatalf("unexpected upload result %d %q", uploads, out)
	}
}

func TestRender_ConfirmDeclinedAborts(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"Ada"}, confirm: []bool{false}}
	r, _ := New(WithPromptDriver(driver), WithConfirmSubmit(true))
	form := model.Form{Fields: []model.Field{{ID: "name", Type: model.FieldTypeText, Label: "Name"}}}
	if _, err := r.Render(context.Background(), form, render.RenderOptions{}); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRender_ShowsServerErrorsBeforePrompt(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{inputs: []string{"a@b.co"}}
	r, _ := New(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))
	form := model.Form{Fields: []model.Field{{ID: "email", Type: model.FieldTypeEmail, Label: "Email"}}}
	_, err := r.Fill(context.Background(), form, render.RenderOptions{
		Errors:     map[string][]string{"email": {"Already registered"}},
		FormErrors: []string{"Please fix the errors below"},
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	want := []string{"! Please fix the errors below", "! Already registered"}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	if _, err := New(WithOutputFormat("xml")); err == nil {
		t.Fatalf("expected unknown format to fail")
	}
}

func containsMessage(messages []string, want string) bool {
	for _, message := range messages {
		if strings.Contains(message, want) {
			return true
		}
	}
	return false
}
