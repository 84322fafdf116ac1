package render

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// Surface names one of the places a form is shown.
type Surface string

const (
	SurfaceCanvas  Surface = "canvas"
	SurfacePreview Surface = "preview"
	SurfacePublic  Surface = "public"
	SurfaceWidget  Surface = "widget"
)

// DefaultMode returns the field mode a surface renders with.
func (s Surface) DefaultMode() Mode {
	switch s {
	case SurfaceCanvas:
		return ModeCanvas
	case SurfacePreview:
		return ModePreview
	default:
		return ModeInteractive
	}
}

// Viewport is a named preview breakpoint. It constrains the container width
// only and never changes per-field layout.
type Viewport string

const (
	ViewportMobile  Viewport = "mobile"
	ViewportTablet  Viewport = "tablet"
	ViewportDesktop Viewport = "desktop"
)

// Width returns the container width in pixels, defaulting to desktop.
func (v Viewport) Width() int {
	switch v {
	case ViewportMobile:
		return 375
	case ViewportTablet:
		return 768
	default:
		return 1200
	}
}

// ParseViewport maps a name onto a Viewport, defaulting to desktop.
func ParseViewport(raw string) Viewport {
	switch Viewport(strings.ToLower(strings.TrimSpace(raw))) {
	case ViewportMobile:
		return ViewportMobile
	case ViewportTablet:
		return ViewportTablet
	default:
		return ViewportDesktop
	}
}

// EmbedParams are the query parameters the embed iframe passes to the
// widget surface.
type EmbedParams struct {
	Style           string
	ShowTitle       bool
	ShowDescription bool
	Popup           bool
	Sidebar         bool
}

// RenderOptions describe per-request data that renderers use to customise
// their output without mutating the form.
type RenderOptions struct {
	Surface Surface
	// Mode overrides Surface.DefaultMode when set.
	Mode Mode
	// Values pre-populates controls keyed by field id.
	Values map[string]any
	// Errors surfaces validation feedback keyed by field id.
	Errors map[string][]string
	// FormErrors are shown in a banner above the fields.
	FormErrors []string
	Viewport   Viewport
	Theme      *theme.RendererConfig
	// HiddenFields are emitted as hidden inputs (CSRF tokens and the like).
	HiddenFields map[string]string
	SubmitURL    string
	UploadURL    string
	ValidateURL  string
	Embed        EmbedParams
	// ParentOrigin is the host page origin the widget posts messages to.
	ParentOrigin string
	// SelectedField highlights a field on the canvas.
	SelectedField string
	// Subset limits rendering to matching fields.
	Subset FieldSubset
}

// ResolvedMode returns the explicit mode or the surface default.
func (o RenderOptions) ResolvedMode() Mode {
	if o.Mode.Valid() {
		return o.Mode
	}
	return o.Surface.DefaultMode()
}

// FieldError returns the first error for the field id.
func (o RenderOptions) FieldError(id string) string {
	for _, message := range o.Errors[id] {
		if trimmed := strings.TrimSpace(message); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
