package embed

import (
	"strings"
)

// SubmittedEvent is the DOM event the form runtime dispatches on document
// after a successful submission.
const SubmittedEvent = "formsuite:submitted"

// ChildScript returns the script the embedded page runs. It posts
// form-height whenever the document height changes and form-submitted when
// the runtime reports a successful submission. Messages are targeted at
// parentOrigin; an empty origin falls back to "*" since the payloads carry
// no form data.
func ChildScript(parentOrigin string) string {
	target := "*"
	if origin, err := OriginOf(parentOrigin); err == nil {
		target = origin
	}

	var b strings.Builder
	b.WriteString("(function () {\n")
	b.WriteString("  if (window.parent === window) return;\n")
	b.WriteString("  var target = " + jsString(target) + ";\n")
	b.WriteString(`  var last = 0;
  function post(message) {
    window.parent.postMessage(message, target);
  }
  function report() {
    var height = Math.ceil(document.documentElement.scrollHeight);
    if (height === last) return;
    last = height;
    post({ type: "form-height", height: height });
  }
  if (typeof ResizeObserver === "function") {
    new ResizeObserver(report).observe(document.documentElement);
  } else {
    window.addEventListener("resize", report);
  }
  window.addEventListener("load", report);
`)
	b.WriteString("  document.addEventListener(" + jsString(SubmittedEvent) + ", function () {\n")
	b.WriteString(`    post({ type: "form-submitted" });
  });
})();
`)
	return b.String()
}
