package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/rs/zerolog"

	"github.com/sungwon/email-dispatch/internal/config"
)

// sendFunc performs a single SMTP submission. Swapped out in tests.
type sendFunc func(cfg config.SMTPConfig, to string, msg []byte) error

// Mailer delivers rendered messages over SMTP. When the transport is not
// fully configured it performs no network I/O and reports simulated success,
// which keeps the pipeline and the synchronous endpoints usable in
// environments without mail credentials.
type Mailer struct {
	cfg  config.SMTPConfig
	log  zerolog.Logger
	send sendFunc
}

// New creates a Mailer from the given SMTP configuration.
func New(cfg config.SMTPConfig, log zerolog.Logger) *Mailer {
	return &Mailer{
		cfg:  cfg,
		log:  log,
		send: submit,
	}
}

// Configured reports whether host, port, username and password are all set.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Port != 0 && m.cfg.Username != "" && m.cfg.Password != ""
}

// SendRaw delivers an HTML message to a single recipient. It returns true
// when the transport accepted the message and false on any transport-level
// failure; errors never propagate past this boundary. An unconfigured
// transport logs the subject and body and returns true.
func (m *Mailer) SendRaw(ctx context.Context, to, subject, body string) bool {
	if !m.Configured() {
		m.log.Warn().Str("to", to).Msg("smtp not configured, simulated send")
		m.log.Info().Str("subject", subject).Msg("simulated subject")
		m.log.Info().Str("body", body).Msg("simulated body")
		return true
	}

	if err := ctx.Err(); err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("smtp send aborted")
		return false
	}

	msg := buildMessage(m.cfg.Username, to, subject, body)
	if err := m.send(m.cfg, to, msg); err != nil {
		m.log.Error().Err(err).Str("to", to).Msg("smtp send failed")
		return false
	}

	m.log.Info().Str("to", to).Msg("email sent")
	return true
}

// submit opens the SMTP connection, upgrades it with STARTTLS, authenticates
// with SASL PLAIN and submits the message.
func submit(cfg config.SMTPConfig, to string, msg []byte) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	c, err := smtp.DialStartTLS(addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer c.Close()

	auth := sasl.NewPlainClient("", cfg.Username, cfg.Password)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	if err := c.SendMail(cfg.Username, []string{to}, strings.NewReader(string(msg))); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	return c.Quit()
}

// buildMessage assembles a MIME message with an HTML body.
func buildMessage(from, to, subject, body string) []byte {
	var sb strings.Builder

	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return []byte(sb.String())
}
