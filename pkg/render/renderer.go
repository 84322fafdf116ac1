package render

import (
	"context"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// Renderer converts a form into a byte representation for one surface
// (HTML page, embeddable widget, terminal transcript).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.Form, options RenderOptions) ([]byte, error)
}

// FieldRenderer turns one field plus its current value and error into a
// FieldView. Every surface goes through the same FieldRenderer so per-type
// markup cannot drift between the canvas, preview, public page and widget.
type FieldRenderer interface {
	RenderField(field model.Field, value any, errorMessage string, mode Mode) (FieldView, error)
}

// Mode selects how controls behave.
type Mode string

const (
	// ModeCanvas renders a disabled mockup for the builder canvas. Controls
	// carry no name binding.
	ModeCanvas Mode = "editable-canvas"
	// ModePreview renders functional controls inside the live preview.
	ModePreview Mode = "static-preview"
	// ModeInteractive renders functional controls on public surfaces.
	ModeInteractive Mode = "interactive"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeCanvas, ModePreview, ModeInteractive:
		return true
	}
	return false
}

// Bound reports whether controls in this mode submit values.
func (m Mode) Bound() bool {
	return m == ModePreview || m == ModeInteractive
}

// FieldView is the rendered representation of a field.
type FieldView struct {
	FieldID    string
	Type       model.FieldType
	Mode       Mode
	Label      string
	Required   bool
	HelpText   string
	Width      model.FieldWidth
	Alignment  model.Alignment
	WidthClass string
	AlignClass string
	// Control is the bare input markup; HTML wraps it with label, help text
	// and error chrome.
	Control     string
	HTML        string
	Error       string
	Visible     bool
	Conditional bool
}
