package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sungwon/email-dispatch/internal/config"
)

func fullConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "mailer@example.com",
		Password: "secret",
	}
}

func TestConfigured(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.SMTPConfig)
		want   bool
	}{
		{"all set", func(c *config.SMTPConfig) {}, true},
		{"missing host", func(c *config.SMTPConfig) { c.Host = "" }, false},
		{"missing port", func(c *config.SMTPConfig) { c.Port = 0 }, false},
		{"missing username", func(c *config.SMTPConfig) { c.Username = "" }, false},
		{"missing password", func(c *config.SMTPConfig) { c.Password = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fullConfig()
			tt.mutate(&cfg)
			m := New(cfg, zerolog.Nop())
			if got := m.Configured(); got != tt.want {
				t.Errorf("Configured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSendRaw_UnconfiguredSimulatesSuccess(t *testing.T) {
	cfg := fullConfig()
	cfg.Password = ""

	m := New(cfg, zerolog.Nop())
	called := false
	m.send = func(_ config.SMTPConfig, _ string, _ []byte) error {
		called = true
		return nil
	}

	if !m.SendRaw(context.Background(), "a@x.com", "subject", "body") {
		t.Error("expected simulated success")
	}
	if called {
		t.Error("expected no transport submission when unconfigured")
	}
}

func TestSendRaw_Success(t *testing.T) {
	m := New(fullConfig(), zerolog.Nop())

	var gotTo string
	var gotMsg []byte
	m.send = func(_ config.SMTPConfig, to string, msg []byte) error {
		gotTo = to
		gotMsg = msg
		return nil
	}

	if !m.SendRaw(context.Background(), "a@x.com", "Hello", "<b>hi</b>") {
		t.Fatal("expected success")
	}
	if gotTo != "a@x.com" {
		t.Errorf("expected recipient a@x.com, got %s", gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"From: mailer@example.com\r\n",
		"To: a@x.com\r\n",
		"Subject: Hello\r\n",
		"MIME-Version: 1.0\r\n",
		"Content-Type: text/html; charset=\"UTF-8\"\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing header %q", want)
		}
	}
	if !strings.HasSuffix(msg, "\r\n<b>hi</b>") {
		t.Errorf("message body malformed: %q", msg)
	}
}

func TestSendRaw_TransportFailureReturnsFalse(t *testing.T) {
	m := New(fullConfig(), zerolog.Nop())
	m.send = func(_ config.SMTPConfig, _ string, _ []byte) error {
		return errors.New("connection refused")
	}

	if m.SendRaw(context.Background(), "a@x.com", "s", "b") {
		t.Error("expected false on transport failure")
	}
}

func TestSendRaw_CancelledContext(t *testing.T) {
	m := New(fullConfig(), zerolog.Nop())
	called := false
	m.send = func(_ config.SMTPConfig, _ string, _ []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if m.SendRaw(ctx, "a@x.com", "s", "b") {
		t.Error("expected false for cancelled context")
	}
	if called {
		t.Error("expected no submission for cancelled context")
	}
}

func TestSend_BuiltinTemplate(t *testing.T) {
	m := New(fullConfig(), zerolog.Nop())

	var gotMsg []byte
	m.send = func(_ config.SMTPConfig, _ string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	ok := m.Send(context.Background(), "a@x.com", "Welcome!", "welcome", map[string]any{
		"name":              "Ana",
		"verification_code": "123456",
	})
	if !ok {
		t.Fatal("expected success")
	}

	msg := string(gotMsg)
	if !strings.Contains(msg, "Welcome to our service, Ana!") {
		t.Errorf("rendered body missing greeting: %q", msg)
	}
	if !strings.Contains(msg, "<strong>123456</strong>") {
		t.Errorf("rendered body missing code: %q", msg)
	}
}

func TestSend_UnknownTemplateUsesFallback(t *testing.T) {
	m := New(fullConfig(), zerolog.Nop())

	var gotMsg []byte
	m.send = func(_ config.SMTPConfig, _ string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	ok := m.Send(context.Background(), "a@x.com", "", "no-such-template", map[string]any{
		"message": "Your order shipped",
	})
	if !ok {
		t.Fatal("expected success")
	}

	msg := string(gotMsg)
	if !strings.Contains(msg, "Your order shipped") {
		t.Errorf("fallback body missing message variable: %q", msg)
	}
	if !strings.Contains(msg, "Subject: Notification\r\n") {
		t.Errorf("expected default subject, got: %q", msg)
	}
}

func TestSend_FallbackDefaultMessage(t *testing.T) {
	m := New(fullConfig(), zerolog.Nop())

	var gotMsg []byte
	m.send = func(_ config.SMTPConfig, _ string, msg []byte) error {
		gotMsg = msg
		return nil
	}

	if !m.Send(context.Background(), "a@x.com", "s", "missing", nil) {
		t.Fatal("expected success")
	}
	if !strings.Contains(string(gotMsg), "You have a new notification.") {
		t.Errorf("expected default fallback message, got: %q", string(gotMsg))
	}
}
