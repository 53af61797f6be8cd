package config

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevelFallsBackToInfo(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		" error ": zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for raw, want := range cases {
		if got := parseLevel(raw); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNewLoggerAppliesLevel(t *testing.T) {
	logger := NewLogger(LoggingConfig{Level: "warn", Format: "json"})
	if logger.GetLevel() != zerolog.WarnLevel {
		t.Errorf("expected warn level, got %v", logger.GetLevel())
	}
}
