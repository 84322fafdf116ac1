package embed

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formsuite/pkg/model"
)

func generator() Generator {
	return Generator{BaseURL: "https://forms.example.com/"}
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	settings := model.EmbedSettings{ShowTitle: true, ShowDescription: false}
	first, err := generator().Generate("f-1", model.DisplayInline, "modern", settings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := generator().Generate("f-1", model.DisplayInline, "modern", settings)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first != second {
		t.Fatalf("expected byte-identical snippets")
	}
}

func TestFrameURLParameters(t *testing.T) {
	t.Parallel()

	settings := model.EmbedSettings{ShowTitle: true, ShowDescription: true}
	cases := map[model.DisplayStyle]string{
		model.DisplayInline:  "https://forms.example.com/embed/f%201?style=dark&showTitle=true&showDescription=true",
		model.DisplayPopup:   "https://forms.example.com/embed/f%201?style=dark&showTitle=true&showDescription=true&popup=true",
		model.DisplaySidebar: "https://forms.example.com/embed/f%201?style=dark&showTitle=true&showDescription=true&sidebar=true",
	}
	for typ, want := range cases {
		got, err := generator().FrameURL("f 1", typ, "dark", settings)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if got != want {
			t.Fatalf("%s: want %q, got %q", typ, want, got)
		}
	}
}

func TestPopupRedirectIsGatedOnSubmitted(t *testing.T) {
	t.Parallel()

	snippet, err := generator().Generate("f-1", model.DisplayPopup, "modern", model.EmbedSettings{
		RedirectAfterSubmit: true,
		RedirectURL:         "https://x/y",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	branch := strings.Index(snippet, `if (data.type === "form-submitted") {`)
	redirect := strings.Index(snippet, `window.location.href = "https://x/y";`)
	if branch < 0 || redirect < 0 || redirect < branch {
		t.Fatalf("expected redirect inside the form-submitted branch:\n%s", snippet)
	}
	for _, want := range []string{"popup=true", `event.key === "Escape"`, `opener.addEventListener("click", open)`} {
		if !strings.Contains(snippet, want) {
			t.Fatalf("expected %q in popup snippet", want)
		}
	}
}

func TestSnippetFiltersByOriginAndSource(t *testing.T) {
	t.Parallel()

	for _, typ := range EmbedTypes() {
		snippet, err := generator().Generate("f-1", typ, "", model.EmbedSettings{})
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		for _, want := range []string{
			`var origin = "https://forms.example.com";`,
			"event.origin !== origin || event.source !== frame.contentWindow",
			"height === lastHeight",
		} {
			if !strings.Contains(snippet, want) {
				t.Fatalf("%s: expected %q", typ, want)
			}
		}
	}
}

func TestOriginOfMatchesBrowserOrigin(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://forms.example.com:443/embed": "https://forms.example.com",
		"http://forms.example.com:80":         "http://forms.example.com",
		"HTTPS://Forms.Example.com/":          "https://forms.example.com",
		"https://forms.example.com:8443/x":    "https://forms.example.com:8443",
		"http://forms.example.com:443":        "http://forms.example.com:443",
		"http://[::1]:80/":                    "http://[::1]",
		"http://[::1]:8080/":                  "http://[::1]:8080",
	}
	for raw, want := range cases {
		got, err := OriginOf(raw)
		if err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
		if got != want {
			t.Fatalf("%s: want %q, got %q", raw, want, got)
		}
	}
	for _, raw := range []string{"javascript:alert(1)", "//forms.example.com", "ftp://forms.example.com"} {
		if _, err := OriginOf(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}

	snippet, err := Generator{BaseURL: "https://forms.example.com:443"}.Generate("f-1", model.DisplayInline, "", model.EmbedSettings{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(snippet, `var origin = "https://forms.example.com";`) {
		t.Fatalf("expected default port to be dropped from the listener origin:\n%s", snippet)
	}
}

func TestHideAfterSubmit(t *testing.T) {
	t.Parallel()

	inline, _ := generator().Generate("f", model.DisplayInline, "", model.EmbedSettings{HideAfterSubmit: true})
	if !strings.Contains(inline, `container.style.display = "none";`) {
		t.Fatalf("inline snippet should hide its container")
	}
	sidebar, _ := generator().Generate("f", model.DisplaySidebar, "", model.EmbedSettings{HideAfterSubmit: true, Position: "left"})
	if !strings.Contains(sidebar, "      close();") || !strings.Contains(sidebar, "left:0;width:420px") {
		t.Fatalf("sidebar snippet should close the panel on the left:\n%s", sidebar)
	}
}

func TestInterpolatedValuesAreEncoded(t *testing.T) {
	t.Parallel()

	snippet, err := generator().Generate(`x"><script>`, model.DisplayPopup, "", model.EmbedSettings{
		ButtonText:  `<img src=x onerror=alert(1)>`,
		ButtonColor: `red;background:url(javascript:1)`,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(snippet, "<img") || strings.Contains(snippet, `x"><script>`) {
		t.Fatalf("unescaped input leaked into snippet:\n%s", snippet)
	}
	if !strings.Contains(snippet, "background:"+defaultButtonColor) {
		t.Fatalf("invalid colour should fall back to the default")
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := generator().Generate("f", "modal", "", model.EmbedSettings{}); !errors.Is(err, ErrUnknownEmbedType) {
		t.Fatalf("expected ErrUnknownEmbedType, got %v", err)
	}
	if _, err := generator().Generate("f", model.DisplayInline, "", model.EmbedSettings{
		RedirectAfterSubmit: true, RedirectURL: "javascript:alert(1)",
	}); !errors.Is(err, ErrInvalidRedirect) {
		t.Fatalf("expected ErrInvalidRedirect, got %v", err)
	}
	if _, err := (Generator{}).Generate("f", model.DisplayInline, "", model.EmbedSettings{}); err == nil {
		t.Fatalf("expected missing base url to fail")
	}
	if _, err := generator().Generate("", model.DisplayInline, "", model.EmbedSettings{}); err == nil {
		t.Fatalf("expected missing form id to fail")
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	msg, err := Decode([]byte(`{"type":"form-height","height":412.2}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(Message(HeightMessage{Height: 413}), msg); diff != "" {
		t.Fatalf("message mismatch (-want +got):\n%s", diff)
	}
	if msg, _ := Decode([]byte(`{"type":"form-submitted"}`)); msg != (SubmittedMessage{}) {
		t.Fatalf("expected SubmittedMessage, got %#v", msg)
	}
	if _, err := Decode([]byte(`{"type":"form-height","height":-1}`)); !errors.Is(err, ErrInvalidHeight) {
		t.Fatalf("expected ErrInvalidHeight, got %v", err)
	}
	if _, err := Decode([]byte(`{"type":"boom"}`)); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}

	raw, _ := json.Marshal(HeightMessage{Height: 10})
	if string(raw) != `{"type":"form-height","height":10}` {
		t.Fatalf("unexpected wire shape %s", raw)
	}
}

func TestListenerFiltersOriginAndDuplicateHeights(t *testing.T) {
	t.Parallel()

	frameURL, _ := generator().FrameURL("f", model.DisplayInline, "", model.EmbedSettings{})
	listener, err := NewListener(frameURL)
	if err != nil {
		t.Fatalf("NewListener: %v", err)
	}
	height := []byte(`{"type":"form-height","height":300}`)

	if _, ok, err := listener.Dispatch("https://evil.example", height); ok || err != nil {
		t.Fatalf("foreign origin must be ignored silently")
	}
	if _, ok, _ := listener.Dispatch("https://forms.example.com", height); !ok {
		t.Fatalf("expected first height to apply")
	}
	if _, ok, _ := listener.Dispatch("https://forms.example.com", height); ok {
		t.Fatalf("duplicate height must be suppressed")
	}
	if listener.Height() != 300 {
		t.Fatalf("expected height 300, got %d", listener.Height())
	}
	msg, ok, _ := listener.Dispatch("https://FORMS.example.com", []byte(`{"type":"form-submitted"}`))
	if !ok || msg.Type() != TypeSubmitted {
		t.Fatalf("expected submitted message, got %v %v", msg, ok)
	}
}

func TestChildScriptTargetsParentOrigin(t *testing.T) {
	t.Parallel()

	script := ChildScript("https://host.example/page")
	if !strings.Contains(script, `var target = "https://host.example";`) {
		t.Fatalf("expected parent origin target:\n%s", script)
	}
	if !strings.Contains(ChildScript(""), `var target = "*";`) {
		t.Fatalf("expected wildcard fallback")
	}
	if !strings.Contains(script, `"formsuite:submitted"`) || !strings.Contains(script, "ResizeObserver") {
		t.Fatalf("child script missing hooks")
	}
}
