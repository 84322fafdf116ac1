package theme

import (
	"regexp"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formsuite/pkg/model"
)

// Builtin theme names, matching the FormStyling.Theme values.
const (
	DefaultTheme = "modern"
	ThemeClassic = "classic"
	ThemeMinimal = "minimal"
	ThemeDark    = "dark"
)

// Token names understood by the bundled stylesheet.
const (
	TokenPrimary    = "primary-color"
	TokenBackground = "background-color"
	TokenText       = "text-color"
	TokenMuted      = "muted-color"
	TokenBorder     = "border-color"
	TokenError      = "error-color"
	TokenRadius     = "radius"
	TokenSpacing    = "spacing"
	TokenFont       = "font-family"
)

// AssetStylesheet is the asset key for the theme stylesheet.
const AssetStylesheet = "stylesheet"

var radii = map[string]string{
	"none":   "0",
	"small":  "4px",
	"medium": "8px",
	"large":  "16px",
}

var spacings = map[string]string{
	"compact": "8px",
	"normal":  "16px",
	"relaxed": "24px",
}

var colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|rgba?\([0-9\s.,%]+\)|hsla?\([0-9\s.,%deg]+\))$`)

// Builtins returns fresh copies of the bundled manifests. Each ships a
// `compact` and a `relaxed` variant that only change spacing.
func Builtins() []*theme.Manifest {
	return []*theme.Manifest{
		builtin(DefaultTheme, map[string]string{
			TokenPrimary:    "#2563eb",
			TokenBackground: "#ffffff",
			TokenText:       "#111827",
			TokenMuted:      "#6b7280",
			TokenBorder:     "#d1d5db",
			TokenError:      "#dc2626",
			TokenRadius:     radii["medium"],
			TokenSpacing:    spacings["normal"],
			TokenFont:       "system-ui, sans-serif",
		}),
		builtin(ThemeClassic, map[string]string{
			TokenPrimary:    "#1f4e79",
			TokenBackground: "#fdfdf8",
			TokenText:       "#222222",
			TokenMuted:      "#555555",
			TokenBorder:     "#999999",
			TokenError:      "#b00020",
			TokenRadius:     radii["small"],
			TokenSpacing:    spacings["normal"],
			TokenFont:       "Georgia, serif",
		}),
		builtin(ThemeMinimal, map[string]string{
			TokenPrimary:    "#111111",
			TokenBackground: "#ffffff",
			TokenText:       "#111111",
			TokenMuted:      "#777777",
			TokenBorder:     "#e5e5e5",
			TokenError:      "#d00000",
			TokenRadius:     radii["none"],
			TokenSpacing:    spacings["compact"],
			TokenFont:       "system-ui, sans-serif",
		}),
		builtin(ThemeDark, map[string]string{
			TokenPrimary:    "#60a5fa",
			TokenBackground: "#111827",
			TokenText:       "#f9fafb",
			TokenMuted:      "#9ca3af",
			TokenBorder:     "#374151",
			TokenError:      "#f87171",
			TokenRadius:     radii["medium"],
			TokenSpacing:    spacings["normal"],
			TokenFont:       "system-ui, sans-serif",
		}),
	}
}

func builtin(name string, tokens map[string]string) *theme.Manifest {
	return &theme.Manifest{
		Name:    name,
		Version: "1.0.0",
		Tokens:  tokens,
		Assets: theme.Assets{
			Prefix: "/assets",
			Files:  map[string]string{AssetStylesheet: "formsuite.css"},
		},
		Variants: map[string]theme.Variant{
			"compact": {Tokens: map[string]string{TokenSpacing: spacings["compact"]}},
			"relaxed": {Tokens: map[string]string{TokenSpacing: spacings["relaxed"]}},
		},
	}
}

// ApplyStyling writes the form's own styling over the theme tokens. Invalid
// colours and unknown radius or spacing names are ignored.
func ApplyStyling(cfg *theme.RendererConfig, styling model.FormStyling) {
	if cfg == nil {
		return
	}
	if cfg.Tokens == nil {
		cfg.Tokens = map[string]string{}
	}
	if cfg.CSSVars == nil {
		cfg.CSSVars = map[string]string{}
	}
	set := func(key, value string) {
		cfg.Tokens[key] = value
		cfg.CSSVars["--"+key] = value
	}
	if color := strings.TrimSpace(styling.PrimaryColor); colorPattern.MatchString(color) {
		set(TokenPrimary, color)
	}
	if color := strings.TrimSpace(styling.BackgroundColor); colorPattern.MatchString(color) {
		set(TokenBackground, color)
	}
	if radius, ok := radii[strings.ToLower(strings.TrimSpace(styling.BorderRadius))]; ok {
		set(TokenRadius, radius)
	}
	if spacing, ok := spacings[strings.ToLower(strings.TrimSpace(styling.Spacing))]; ok {
		set(TokenSpacing, spacing)
	}
}
