package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm     ChromeClass = "formsuite-form"
	ClassHeader   ChromeClass = "formsuite-header"
	ClassGrid     ChromeClass = "formsuite-grid"
	ClassActions  ChromeClass = "formsuite-actions"
	ClassErrors   ChromeClass = "formsuite-errors"
	ClassSuccess  ChromeClass = "formsuite-success"
	ClassViewport ChromeClass = "formsuite-viewport"
	ClassCanvas   ChromeClass = "formsuite-canvas"
)

// Field chrome classes.
const (
	classField    = "fs-field"
	classLabel    = "fs-label"
	classRequired = "fs-required"
	classHelp     = "fs-help"
	classError    = "fs-error"
	classInvalid  = "is-invalid"
	classSelected = "is-selected"
)

func chromeClasses() map[string]string {
	return map[string]string{
		"form":     string(ClassForm),
		"header":   string(ClassHeader),
		"grid":     string(ClassGrid),
		"actions":  string(ClassActions),
		"errors":   string(ClassErrors),
		"success":  string(ClassSuccess),
		"viewport": string(ClassViewport),
		"canvas":   string(ClassCanvas),
	}
}
