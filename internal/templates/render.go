package templates

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Renderer substitutes {{key}} placeholders into template text with
// HTML-escaped values. Rendering never fails: a template that cannot be
// parsed or executed is returned verbatim, so a malformed template does not
// block delivery of a best-effort message.
type Renderer struct {
	log zerolog.Logger
}

// NewRenderer creates a Renderer that logs render failures at warn level.
func NewRenderer(log zerolog.Logger) *Renderer {
	return &Renderer{log: log}
}

// Render substitutes the given variables into tmpl. Placeholders whose key
// is absent from variables are left as-is. The substitution runs through
// html/template, so values are escaped for safe HTML output. Deterministic:
// the same template and variables always produce the same result.
func (r *Renderer) Render(tmpl string, variables map[string]any) string {
	if tmpl == "" {
		return tmpl
	}

	rewritten := placeholderRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		key := placeholderRegex.FindStringSubmatch(match)[1]
		if _, ok := variables[key]; ok {
			return fmt.Sprintf("{{index . %q}}", key)
		}
		// Unknown key: emit the original placeholder as a literal.
		return fmt.Sprintf("{{%q}}", match)
	})

	parsed, err := template.New("message").Parse(rewritten)
	if err != nil {
		r.log.Warn().Err(err).Msg("template parse failed, returning raw template")
		return tmpl
	}

	var sb strings.Builder
	if err := parsed.Execute(&sb, variables); err != nil {
		r.log.Warn().Err(err).Msg("template execution failed, returning raw template")
		return tmpl
	}
	return sb.String()
}
