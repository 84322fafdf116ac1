package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined
	// the final confirmation.
	ErrAborted = errors.New("tui: aborted")
	// ErrNoUploader is returned when a file field is answered with a local
	// path and no uploader is configured.
	ErrNoUploader = errors.New("tui: file upload not configured")
)
