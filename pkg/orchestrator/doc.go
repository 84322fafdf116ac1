// Package orchestrator turns a stored form into one of its surfaces: the
// builder canvas, the live preview, the public page and the embeddable
// widget. It fetches the form, applies transformers and decorators, resolves
// the theme and dispatches to a registered renderer.
package orchestrator
