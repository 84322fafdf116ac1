package vanilla

import (
	"embed"
	"io/fs"
)

var (
	//go:embed templates/*.tmpl
	pageTemplates embed.FS

	//go:embed assets/*
	pageAssets embed.FS
)

// Asset file names, served under /assets/ by default.
const (
	StylesheetName    = "formsuite.css"
	RuntimeScriptName = "formsuite-runtime.js"
	RatingScriptName  = "formsuite-rating.js"
	UploadScriptName  = "formsuite-upload.js"
	SignatureName     = "formsuite-signature.js"
)

// TemplatesFS holds the canvas, preview, form and widget page templates.
func TemplatesFS() fs.FS {
	return pageTemplates
}

// AssetsFS holds the stylesheet and control scripts rooted at the asset
// names, ready for http.FileServer.
func AssetsFS() fs.FS {
	assets, err := fs.Sub(pageAssets, "assets")
	if err != nil {
		panic(err)
	}
	return assets
}

// DefaultStylesheet is the bundled stylesheet source. Hosts that inline CSS
// use it instead of linking /assets/formsuite.css.
func DefaultStylesheet() string {
	data, _ := fs.ReadFile(pageAssets, "assets/"+StylesheetName)
	return string(data)
}
