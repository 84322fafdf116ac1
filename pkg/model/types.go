package model

import (
	"net/url"
	"strings"
	"time"
)

// FieldType names one of the supported field kinds.
type FieldType string

const (
	FieldTypeText      FieldType = "text"
	FieldTypeTextarea  FieldType = "textarea"
	FieldTypeEmail     FieldType = "email"
	FieldTypePhone     FieldType = "phone"
	FieldTypeNumber    FieldType = "number"
	FieldTypeURL       FieldType = "url"
	FieldTypeSelect    FieldType = "select"
	FieldTypeRadio     FieldType = "radio"
	FieldTypeCheckbox  FieldType = "checkbox"
	FieldTypeRating    FieldType = "rating"
	FieldTypeDate      FieldType = "date"
	FieldTypeTime      FieldType = "time"
	FieldTypeDatetime  FieldType = "datetime"
	FieldTypeFile      FieldType = "file"
	FieldTypeSignature FieldType = "signature"
	FieldTypeDivider   FieldType = "divider"
	FieldTypeHTML      FieldType = "html"
)

// Category groups forms in admin listings.
type Category string

const (
	CategorySurvey       Category = "survey"
	CategoryRegistration Category = "registration"
	CategoryFeedback     Category = "feedback"
	CategoryContact      Category = "contact"
	CategoryPoll         Category = "poll"
	CategoryQuiz         Category = "quiz"
	CategoryApplication  Category = "application"
	CategoryOther        Category = "other"
)

// Categories lists the accepted form categories in display order.
func Categories() []Category {
	return []Category{
		CategorySurvey, CategoryRegistration, CategoryFeedback, CategoryContact,
		CategoryPoll, CategoryQuiz, CategoryApplication, CategoryOther,
	}
}

// FormStatus tracks the publication state of a form.
type FormStatus string

const (
	FormStatusDraft    FormStatus = "draft"
	FormStatusActive   FormStatus = "active"
	FormStatusInactive FormStatus = "inactive"
	FormStatusArchived FormStatus = "archived"
)

// ConditionalAction selects how a conditional rule affects visibility.
type ConditionalAction string

const (
	ConditionalShow ConditionalAction = "show"
	ConditionalHide ConditionalAction = "hide"
)

// FieldWidth is the per-field layout width.
type FieldWidth string

const (
	WidthFull    FieldWidth = "full"
	WidthHalf    FieldWidth = "half"
	WidthThird   FieldWidth = "third"
	WidthQuarter FieldWidth = "quarter"
)

// Alignment is the per-field text alignment.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// DisplayStyle selects the embed delivery strategy.
type DisplayStyle string

const (
	DisplayInline  DisplayStyle = "inline"
	DisplayPopup   DisplayStyle = "popup"
	DisplaySidebar DisplayStyle = "sidebar"
)

// Option is a label/value pair offered by selection fields.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Validation holds the sparse, type-dependent validation keys. Nil pointers
// mean "not set".
type Validation struct {
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
}

// IsZero reports whether no key is set.
func (v Validation) IsZero() bool {
	return v.MinLength == nil && v.MaxLength == nil && v.Min == nil && v.Max == nil
}

// Conditional is a declarative visibility rule referencing another field.
type Conditional struct {
	Enabled bool              `json:"enabled"`
	Field   string            `json:"field,omitempty"`
	Value   string            `json:"value,omitempty"`
	Action  ConditionalAction `json:"action,omitempty"`
}

// FieldStyling carries per-field layout.
type FieldStyling struct {
	Width     FieldWidth `json:"width,omitempty"`
	Alignment Alignment  `json:"alignment,omitempty"`
}

// Field is one typed input definition within a form.
type Field struct {
	ID           string       `json:"id"`
	Type         FieldType    `json:"type"`
	Label        string       `json:"label"`
	Placeholder  string       `json:"placeholder,omitempty"`
	Required     bool         `json:"required"`
	HelpText     string       `json:"helpText,omitempty"`
	DefaultValue any          `json:"defaultValue,omitempty"`
	Options      []Option     `json:"options,omitempty"`
	Validation   Validation   `json:"validation"`
	Conditional  Conditional  `json:"conditional"`
	Styling      FieldStyling `json:"styling"`
	// Content holds the markup shown by html fields.
	Content string `json:"content,omitempty"`
}

// EmailNotification configures staff notification on new submissions.
type EmailNotification struct {
	Enabled    bool     `json:"enabled"`
	Recipients []string `json:"recipients,omitempty"`
	Subject    string   `json:"subject,omitempty"`
}

// FormSettings governs submission behaviour and availability.
type FormSettings struct {
	AllowMultipleSubmissions bool              `json:"allowMultipleSubmissions"`
	RequireLogin             bool              `json:"requireLogin"`
	SubmissionLimit          *int              `json:"submissionLimit,omitempty"`
	StartDate                *time.Time        `json:"startDate,omitempty"`
	EndDate                  *time.Time        `json:"endDate,omitempty"`
	SuccessMessage           string            `json:"successMessage,omitempty"`
	RedirectURL              string            `json:"redirectUrl,omitempty"`
	EmailNotification        EmailNotification `json:"emailNotification"`
	Captcha                  bool              `json:"captcha"`
}

// FormStyling carries the form-wide look.
type FormStyling struct {
	Theme           string `json:"theme,omitempty"`
	PrimaryColor    string `json:"primaryColor,omitempty"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BorderRadius    string `json:"borderRadius,omitempty"`
	Spacing         string `json:"spacing,omitempty"`
}

// EmbedSettings configures how the form behaves when embedded in a third
// party page.
type EmbedSettings struct {
	ShowTitle           bool         `json:"showTitle"`
	ShowDescription     bool         `json:"showDescription"`
	DisplayStyle        DisplayStyle `json:"displayStyle,omitempty"`
	RedirectAfterSubmit bool         `json:"redirectAfterSubmit,omitempty"`
	RedirectURL         string       `json:"redirectUrl,omitempty"`
	HideAfterSubmit     bool         `json:"hideAfterSubmit,omitempty"`
	ButtonText          string       `json:"buttonText,omitempty"`
	ButtonColor         string       `json:"buttonColor,omitempty"`
	Position            string       `json:"position,omitempty"`
	Width               string       `json:"width,omitempty"`
	Height              string       `json:"height,omitempty"`
	AutoResize          bool         `json:"autoResize,omitempty"`
}

// Form is a persisted schema of ordered fields plus its configuration.
type Form struct {
	ID            string        `json:"id,omitempty"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Category      Category      `json:"category,omitempty"`
	Status        FormStatus    `json:"status,omitempty"`
	Fields        []Field       `json:"fields"`
	Settings      FormSettings  `json:"settings"`
	Styling       FormStyling   `json:"styling"`
	EmbedSettings EmbedSettings `json:"embedSettings"`
	CreatedAt     *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time    `json:"updatedAt,omitempty"`
}

// FieldByID returns the field with the given id.
func (f Form) FieldByID(id string) (Field, bool) {
	if idx := f.IndexOf(id); idx >= 0 {
		return f.Fields[idx], true
	}
	return Field{}, false
}

// IndexOf returns the position of the field id or -1.
func (f Form) IndexOf(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for idx, field := range f.Fields {
		if field.ID == id {
			return idx
		}
	}
	return -1
}

// Available reports whether now falls inside the optional start/end window.
func (s FormSettings) Available(now time.Time) bool {
	if s.StartDate != nil && now.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && now.After(*s.EndDate) {
		return false
	}
	return true
}

// SafeRedirectURL reports whether raw is an absolute http(s) URL with a host.
// Anything else (javascript:, data:, protocol-relative) is never followed
// after a submission.
func SafeRedirectURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// OptionValue derives the stored option value from its label: lower-cased
// with spaces replaced by underscores.
func OptionValue(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), " ", "_")
}

// SetOptionLabel updates the label of the option at idx and re-derives its
// value. It reports false when idx is out of range.
func (f *Field) SetOptionLabel(idx int, label string) bool {
	if f == nil || idx < 0 || idx >= len(f.Options) {
		return false
	}
	f.Options[idx] = Option{Label: label, Value: OptionValue(label)}
	return true
}

// OptionValues returns the values of the field options in order.
func (f Field) OptionValues() []string {
	if len(f.Options) == 0 {
		return nil
	}
	out := make([]string, len(f.Options))
	for idx, opt := range f.Options {
		out[idx] = opt.Value
	}
	return out
}
