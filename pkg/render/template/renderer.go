package template

import "io"

// TemplateRenderer renders the page templates and theme partials of the
// HTML surfaces. Template data is normalised through JSON, so structs render
// by their json field names.
type TemplateRenderer interface {
	// RenderTemplate renders the named template. The engine's extension is
	// appended when missing. The result is also copied to every writer.
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(source string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
