package model

import "errors"

// ErrFormNotFound is returned by form stores and sources for unknown ids.
var ErrFormNotFound = errors.New("form not found")
