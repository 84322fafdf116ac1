package client

import (
	"fmt"
	"net/http"
	"strings"
)

// TransportError reports a failed collaborator call. Requests are never
// retried; callers decide how to surface the failure.
type TransportError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Message    string
	// Errors carries per-field messages from validation failures.
	Errors map[string][]string
	// Err is the underlying cause: a network error, or a sentinel mapped
	// from the status code.
	Err error
}

func (e *TransportError) Error() string {
	var b strings.Builder
	b.WriteString("client: ")
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Method)
	b.WriteString(" ")
	b.WriteString(e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure looks transient (network errors,
// 429 and 5xx). The client itself never retries.
func (e *TransportError) Temporary() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
