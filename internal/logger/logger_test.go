package logger

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sungwon/email-dispatch/internal/config"
)

func TestNew_ValidLevel(t *testing.T) {
	log := New("debug")
	if log.GetLevel() != zerolog.DebugLevel {
		t.Errorf("expected debug level, got %v", log.GetLevel())
	}
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	log := New("bogus")
	if log.GetLevel() != zerolog.InfoLevel {
		t.Errorf("expected info level for invalid input, got %v", log.GetLevel())
	}
}

func TestNewFromConfig_StdoutDefault(t *testing.T) {
	log := NewFromConfig(config.LoggingConfig{Level: "warn", Output: "stdout"})
	if log.GetLevel() != zerolog.WarnLevel {
		t.Errorf("expected warn level, got %v", log.GetLevel())
	}
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "abc-123")
	if got := CorrelationIDFromContext(ctx); got != "abc-123" {
		t.Errorf("expected abc-123, got %s", got)
	}
}

func TestCorrelationID_Missing(t *testing.T) {
	if got := CorrelationIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty correlation ID, got %s", got)
	}
}

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	log := New("error")
	ctx := WithLogger(context.Background(), log)

	got := FromContext(ctx)
	if got.GetLevel() != zerolog.ErrorLevel {
		t.Errorf("expected error level from stored logger, got %v", got.GetLevel())
	}
}

func TestNewCorrelationID_Unique(t *testing.T) {
	a := NewCorrelationID()
	b := NewCorrelationID()
	if a == "" || a == b {
		t.Errorf("expected unique non-empty IDs, got %q and %q", a, b)
	}
}
