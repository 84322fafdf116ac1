package sanitize

import (
	"strings"
	"testing"
)

func TestContentRemovesScripts(t *testing.T) {
	input := `  <p onclick="steal()">Read the <a href="https://example.com/terms">terms</a></p><script>alert('x')</script>`
	got := Content(input)
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Fatalf("expected script and handlers removed, got %q", got)
	}
	if !strings.Contains(got, "<p>") || !strings.Contains(got, `href="https://example.com/terms"`) {
		t.Fatalf("expected paragraph and link to remain, got %q", got)
	}
}

func TestContentDropsJavascriptLinks(t *testing.T) {
	got := Content(`<a href="javascript:alert(1)">x</a>`)
	if strings.Contains(got, "javascript") {
		t.Fatalf("expected javascript url removed, got %q", got)
	}
}

func TestTextStripsMarkup(t *testing.T) {
	if got := Text("<h2>Terms</h2>"); got != "Terms" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := Text("   "); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
