package mailer

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

// Built-in templates are a small fixed set embedded in the transport, used
// by the synchronous send path. They are distinct from the externally
// resolved templates the queue pipeline works with.
var builtinTemplates = map[string]*template.Template{
	"welcome": template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<body>
    <h2>Welcome to our service, {{.name}}!</h2>
    <p>Your verification code is <strong>{{.verification_code}}</strong>.</p>
</body>
</html>`)),
}

// Send renders the named built-in template with the given variables and
// delivers the result via SendRaw. An empty subject defaults to
// "Notification". When the template is missing or fails to render, a
// fallback body built from the "message" variable is used instead.
func (m *Mailer) Send(ctx context.Context, to, subject, templateID string, variables map[string]any) bool {
	body := m.renderBuiltin(templateID, variables)
	if subject == "" {
		subject = "Notification"
	}
	return m.SendRaw(ctx, to, subject, body)
}

func (m *Mailer) renderBuiltin(templateID string, variables map[string]any) string {
	tpl, ok := builtinTemplates[templateID]
	if ok {
		var sb strings.Builder
		if err := tpl.Execute(&sb, variables); err == nil {
			return sb.String()
		} else {
			m.log.Warn().Err(err).Str("template_id", templateID).Msg("built-in template render failed, using fallback")
		}
	} else {
		m.log.Warn().Str("template_id", templateID).Msg("built-in template not found, using fallback")
	}

	message := "You have a new notification."
	if v, ok := variables["message"]; ok {
		message = fmt.Sprint(v)
	}
	return fmt.Sprintf(`<html>
<body>
    <p>%s</p>
</body>
</html>`, template.HTMLEscapeString(message))
}
