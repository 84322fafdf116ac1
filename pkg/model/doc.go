// Package model defines the form schema shared by every surface: the Form and
// its ordered Fields, the form-level settings/styling/embed configuration, and
// the Submission records produced when respondents answer a form.
//
// Field order is semantically meaningful (display and tab order). Field ids
// are opaque strings assigned at creation time; option values are derived from
// option labels via OptionValue. Structural knowledge about field types (which
// need options, which validation keys apply) lives in pkg/fieldtypes rather
// than here, so the model only names the types.
//
// All types carry JSON tags matching the REST collaborator payloads. Clone
// methods return deep copies so asynchronous callers can capture a snapshot
// without sharing mutable slices or maps with an editor.
package model
