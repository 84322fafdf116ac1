// Package sanitize cleans author supplied markup before it reaches a page.
// html fields and rich help text go through Content; surfaces that cannot
// show markup (the terminal) use Text.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	contentPolicyOnce sync.Once
	contentPolicy     *bluemonday.Policy

	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// Content keeps formatting, links and images but drops scripts, event
// handlers and inline styles.
func Content(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(contentSanitizer().Sanitize(trimmed))
}

// Text strips every tag and returns the remaining text.
func Text(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(textSanitizer().Sanitize(trimmed))
}

func contentSanitizer() *bluemonday.Policy {
	contentPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"p", "br", "hr", "strong", "b", "em", "i", "u", "small", "span",
			"ul", "ol", "li", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6",
			"code", "pre",
		)
		policy.AllowAttrs("href", "title").OnElements("a")
		policy.AllowStandardURLs()
		policy.RequireNoFollowOnLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		policy.AllowAttrs("src", "alt", "width", "height").OnElements("img")
		policy.AllowAttrs("class").Globally()

		contentPolicy = policy
	})
	return contentPolicy
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
