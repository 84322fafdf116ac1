// Package embed generates the host-page snippets that place a published form
// inside a third-party page, and models the postMessage protocol between the
// embedded form and that snippet.
//
// Three delivery strategies are supported: inline (an iframe in place),
// popup (a button opening a modal overlay) and sidebar (a button sliding in
// a side panel). Every snippet filters incoming messages by the iframe's
// origin and by event.source before acting on them.
package embed
