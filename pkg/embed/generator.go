package embed

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// DefaultStyle is used when no style is requested.
const DefaultStyle = "modern"

const (
	defaultButtonText  = "Open form"
	defaultButtonColor = "#2563eb"
	defaultHeight      = "600px"
	defaultWidth       = "100%"
	defaultPanelWidth  = "420px"
)

var (
	// ErrUnknownEmbedType is returned for display styles other than inline,
	// popup and sidebar.
	ErrUnknownEmbedType = errors.New("embed: unknown embed type")
	// ErrInvalidRedirect is returned when redirect-after-submit is enabled
	// without an absolute http(s) URL.
	ErrInvalidRedirect = errors.New("embed: invalid redirect url")

	stylePattern  = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	colorPattern  = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|rgba?\([0-9\s.,%]+\))$`)
	lengthPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?(px|%|vh|vw|rem|em)?$`)
	idUnsafe      = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// Generator produces embed snippets pointing at BaseURL. Generate is pure:
// identical arguments always yield byte-identical output.
type Generator struct {
	BaseURL string
}

// Generate returns the snippet for one delivery strategy.
func (g Generator) Generate(formID string, embedType model.DisplayStyle, style string, settings model.EmbedSettings) (string, error) {
	plan, err := g.plan(formID, embedType, style, settings)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.Grow(4096)
	fmt.Fprintf(&b, "<!-- formsuite embed: %s (%s) -->\n", html.EscapeString(formID), embedType)
	switch embedType {
	case model.DisplayInline:
		writeInline(&b, plan)
	case model.DisplayPopup:
		writePopup(&b, plan)
	case model.DisplaySidebar:
		writeSidebar(&b, plan)
	}
	writeScript(&b, plan)
	return b.String(), nil
}

// GenerateAll returns the snippets for every strategy keyed by display
// style.
func (g Generator) GenerateAll(formID, style string, settings model.EmbedSettings) (map[model.DisplayStyle]string, error) {
	out := make(map[model.DisplayStyle]string, 3)
	for _, typ := range EmbedTypes() {
		snippet, err := g.Generate(formID, typ, style, settings)
		if err != nil {
			return nil, err
		}
		out[typ] = snippet
	}
	return out, nil
}

// EmbedTypes lists the supported strategies.
func EmbedTypes() []model.DisplayStyle {
	return []model.DisplayStyle{model.DisplayInline, model.DisplayPopup, model.DisplaySidebar}
}

// FrameURL returns the iframe src for the given strategy. Query parameters
// are emitted in a fixed order.
func (g Generator) FrameURL(formID string, embedType model.DisplayStyle, style string, settings model.EmbedSettings) (string, error) {
	base, err := parseBase(g.BaseURL)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(formID) == "" {
		return "", errors.New("embed: form id is required")
	}
	if style = strings.TrimSpace(style); style == "" {
		style = DefaultStyle
	}
	if !stylePattern.MatchString(style) {
		return "", fmt.Errorf("embed: invalid style %q", style)
	}

	params := []string{
		"style=" + url.QueryEscape(style),
		"showTitle=" + strconv.FormatBool(settings.ShowTitle),
		"showDescription=" + strconv.FormatBool(settings.ShowDescription),
	}
	switch embedType {
	case model.DisplayInline:
	case model.DisplayPopup:
		params = append(params, "popup=true")
	case model.DisplaySidebar:
		params = append(params, "sidebar=true")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEmbedType, embedType)
	}
	return base + "/embed/" + url.PathEscape(formID) + "?" + strings.Join(params, "&"), nil
}

// OriginOf returns scheme://host[:port] of an absolute http(s) URL in the
// form browsers report as event.origin: lower case, default port omitted.
func OriginOf(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("embed: parse url: %w", err)
	}
	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Hostname())
	if (scheme != "http" && scheme != "https") || host == "" {
		return "", fmt.Errorf("embed: %q is not an absolute http(s) url", raw)
	}
	port := parsed.Port()
	if (scheme == "https" && port == "443") || (scheme == "http" && port == "80") {
		port = ""
	}
	if port != "" {
		return scheme + "://" + net.JoinHostPort(host, port), nil
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}

type snippetPlan struct {
	kind        model.DisplayStyle
	frameURL    string
	origin      string
	idSuffix    string
	title       string
	settings    model.EmbedSettings
	redirectURL string
	buttonText  string
	buttonColor string
	width       string
	height      string
	position    string
	autoResize  bool
}

func (g Generator) plan(formID string, embedType model.DisplayStyle, style string, settings model.EmbedSettings) (snippetPlan, error) {
	frameURL, err := g.FrameURL(formID, embedType, style, settings)
	if err != nil {
		return snippetPlan{}, err
	}
	origin, err := OriginOf(frameURL)
	if err != nil {
		return snippetPlan{}, err
	}

	p := snippetPlan{
		kind:        embedType,
		frameURL:    frameURL,
		origin:      origin,
		idSuffix:    idUnsafe.ReplaceAllString(formID, "-"),
		title:       "Form " + formID,
		settings:    settings,
		buttonText:  strings.TrimSpace(settings.ButtonText),
		buttonColor: strings.TrimSpace(settings.ButtonColor),
		width:       cssLength(settings.Width, defaultWidth),
		height:      cssLength(settings.Height, defaultHeight),
		position:    "right",
		autoResize:  settings.AutoResize || strings.TrimSpace(settings.Height) == "",
	}
	if p.buttonText == "" {
		p.buttonText = defaultButtonText
	}
	if !colorPattern.MatchString(p.buttonColor) {
		p.buttonColor = defaultButtonColor
	}
	if strings.EqualFold(strings.TrimSpace(settings.Position), "left") {
		p.position = "left"
	}
	if embedType == model.DisplaySidebar && strings.TrimSpace(settings.Width) == "" {
		p.width = defaultPanelWidth
	}
	if settings.RedirectAfterSubmit {
		redirect := strings.TrimSpace(settings.RedirectURL)
		if _, err := OriginOf(redirect); err != nil {
			return snippetPlan{}, fmt.Errorf("%w: %q", ErrInvalidRedirect, settings.RedirectURL)
		}
		p.redirectURL = redirect
	}
	return p, nil
}

func (p snippetPlan) id(part string) string {
	return "formsuite-" + part + "-" + p.idSuffix
}

func writeIframe(b *strings.Builder, p snippetPlan, style string) {
	fmt.Fprintf(b, `<iframe id="%s" src="%s" title="%s" style="%s" loading="lazy" allow="clipboard-write"></iframe>`,
		p.id("frame"), html.EscapeString(p.frameURL), html.EscapeString(p.title), style)
}

func writeInline(b *strings.Builder, p snippetPlan) {
	fmt.Fprintf(b, `<div id="%s" class="formsuite-embed formsuite-embed-inline">`+"\n  ", p.id("container"))
	writeIframe(b, p, fmt.Sprintf("width:%s;height:%s;border:0;display:block", p.width, p.height))
	b.WriteString("\n</div>\n")
}

func writeLauncher(b *strings.Builder, p snippetPlan) {
	fmt.Fprintf(b, `<button type="button" id="%s" class="formsuite-embed-button" style="background:%s;color:#fff;border:0;border-radius:6px;padding:10px 18px;cursor:pointer">%s</button>`+"\n",
		p.id("open"), p.buttonColor, html.EscapeString(p.buttonText))
}

func writePopup(b *strings.Builder, p snippetPlan) {
	writeLauncher(b, p)
	fmt.Fprintf(b, `<div id="%s" class="formsuite-embed formsuite-embed-popup" aria-hidden="true" style="display:none;position:fixed;top:0;right:0;bottom:0;left:0;background:rgba(0,0,0,0.5);z-index:2147483000;align-items:center;justify-content:center">`+"\n", p.id("container"))
	fmt.Fprintf(b, `  <div role="dialog" aria-modal="true" style="position:relative;background:#fff;border-radius:8px;width:%s;max-width:640px;max-height:90vh;overflow:auto">`+"\n", p.width)
	fmt.Fprintf(b, `    <button type="button" id="%s" aria-label="Close" style="position:absolute;top:8px;right:8px;border:0;background:transparent;font-size:24px;cursor:pointer">&times;</button>`+"\n    ", p.id("close"))
	writeIframe(b, p, fmt.Sprintf("width:100%%;height:%s;border:0;display:block", p.height))
	b.WriteString("\n  </div>\n</div>\n")
}

func writeSidebar(b *strings.Builder, p snippetPlan) {
	writeLauncher(b, p)
	hidden := "translateX(100%)"
	if p.position == "left" {
		hidden = "translateX(-100%)"
	}
	fmt.Fprintf(b, `<div id="%s" class="formsuite-embed-overlay" style="display:none;position:fixed;top:0;right:0;bottom:0;left:0;background:rgba(0,0,0,0.3);z-index:2147482999"></div>`+"\n", p.id("overlay"))
	fmt.Fprintf(b, `<aside id="%s" class="formsuite-embed formsuite-embed-sidebar" aria-hidden="true" data-hidden-transform="%s" style="position:fixed;top:0;bottom:0;%s:0;width:%s;max-width:100vw;background:#fff;box-shadow:0 0 24px rgba(0,0,0,0.2);transform:%s;transition:transform 0.25s ease;z-index:2147483000;overflow:auto">`+"\n",
		p.id("container"), hidden, p.position, p.width, hidden)
	fmt.Fprintf(b, `  <button type="button" id="%s" aria-label="Close" style="position:absolute;top:8px;right:8px;border:0;background:transparent;font-size:24px;cursor:pointer">&times;</button>`+"\n  ", p.id("close"))
	writeIframe(b, p, "width:100%;height:100%;border:0;display:block")
	b.WriteString("\n</aside>\n")
}

func writeScript(b *strings.Builder, p snippetPlan) {
	b.WriteString("<script>\n(function () {\n")
	fmt.Fprintf(b, "  var frame = document.getElementById(%s);\n", jsString(p.id("frame")))
	fmt.Fprintf(b, "  var container = document.getElementById(%s);\n", jsString(p.id("container")))
	fmt.Fprintf(b, "  var origin = %s;\n", jsString(p.origin))
	fmt.Fprintf(b, "  var autoResize = %t;\n", p.autoResize)
	b.WriteString("  var lastHeight = 0;\n")
	if !frameOnly(p.kind) {
		writeToggles(b, p)
	}
	b.WriteString(`  window.addEventListener("message", function (event) {
    if (!frame || event.origin !== origin || event.source !== frame.contentWindow) return;
    var data = event.data;
    if (typeof data === "string") {
      try { data = JSON.parse(data); } catch (err) { return; }
    }
    if (!data || typeof data.type !== "string") return;
    if (data.type === "form-height") {
      var height = Math.ceil(Number(data.height));
      if (!autoResize || !isFinite(height) || height <= 0 || height === lastHeight) return;
      lastHeight = height;
      frame.style.height = height + "px";
      return;
    }
    if (data.type === "form-submitted") {
`)
	writeSubmitted(b, p)
	b.WriteString("    }\n  });\n})();\n</script>\n")
}

func frameOnly(kind model.DisplayStyle) bool {
	return kind == model.DisplayInline
}

func writeToggles(b *strings.Builder, p snippetPlan) {
	fmt.Fprintf(b, "  var opener = document.getElementById(%s);\n", jsString(p.id("open")))
	fmt.Fprintf(b, "  var closer = document.getElementById(%s);\n", jsString(p.id("close")))
	if p.kind == model.DisplaySidebar {
		fmt.Fprintf(b, "  var overlay = document.getElementById(%s);\n", jsString(p.id("overlay")))
		b.WriteString(`  function open() {
    overlay.style.display = "block";
    container.style.transform = "none";
    container.setAttribute("aria-hidden", "false");
  }
  function close() {
    overlay.style.display = "none";
    container.style.transform = container.getAttribute("data-hidden-transform");
    container.setAttribute("aria-hidden", "true");
  }
  if (overlay) overlay.addEventListener("click", close);
`)
	} else {
		b.WriteString(`  function open() {
    container.style.display = "flex";
    container.setAttribute("aria-hidden", "false");
  }
  function close() {
    container.style.display = "none";
    container.setAttribute("aria-hidden", "true");
  }
  container.addEventListener("click", function (event) {
    if (event.target === container) close();
  });
`)
	}
	b.WriteString(`  if (opener) opener.addEventListener("click", open);
  if (closer) closer.addEventListener("click", close);
  document.addEventListener("keydown", function (event) {
    if (event.key === "Escape" || event.key === "Esc") close();
  });
`)
}

func writeSubmitted(b *strings.Builder, p snippetPlan) {
	switch {
	case p.redirectURL != "":
		fmt.Fprintf(b, "      window.location.href = %s;\n", jsString(p.redirectURL))
	case p.settings.HideAfterSubmit && frameOnly(p.kind):
		b.WriteString("      if (container) container.style.display = \"none\";\n")
	case p.settings.HideAfterSubmit:
		b.WriteString("      close();\n")
	default:
		b.WriteString("      return;\n")
	}
}

func parseBase(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", errors.New("embed: base url is required")
	}
	if _, err := OriginOf(raw); err != nil {
		return "", err
	}
	return raw, nil
}

func cssLength(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !lengthPattern.MatchString(raw) {
		return fallback
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return raw + "px"
	}
	return raw
}

// jsString encodes s as a JavaScript string literal. encoding/json escapes
// <, > and & so the literal cannot close the surrounding script element.
func jsString(s string) string {
	encoded, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(encoded)
}
