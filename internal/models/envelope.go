package models

// Envelope is the queue message payload describing one email job.
// It is produced upstream, consumed once per delivery attempt, and never
// mutated by the pipeline.
type Envelope struct {
	RequestID string         `json:"request_id"`
	User      User           `json:"user"`
	Template  TemplateRef    `json:"template"`
	Variables map[string]any `json:"variables"`
}

// User identifies the recipient of an email job.
type User struct {
	Email  string `json:"email"`
	Locale string `json:"locale,omitempty"`
}

// TemplateRef names the template to resolve for an envelope.
type TemplateRef struct {
	Slug   string `json:"slug"`
	Locale string `json:"locale,omitempty"`
}

// Locale returns the effective locale for template resolution: the user's
// locale when set, otherwise the template reference's.
func (e *Envelope) Locale() string {
	if e.User.Locale != "" {
		return e.User.Locale
	}
	return e.Template.Locale
}

// Template is resolved content fetched from the template service.
// It is ephemeral: fetched fresh per message and never persisted.
type Template struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
