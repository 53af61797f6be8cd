// Package audit provides a structured trail of authentication events,
// separate from the request log so it can be shipped and retained on
// its own schedule.
package audit

import (
	"time"

	"github.com/rs/zerolog"
)

// Entry is a single audit record.
type Entry struct {
	Timestamp time.Time
	Action    string
	Actor     string
	IPAddress string
	Status    string
	Details   map[string]string
}

type Logger struct {
	logger zerolog.Logger
}

func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger.With().Str("log", "audit").Logger()}
}

func (l *Logger) Log(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	event := l.logger.Info().
		Time("timestamp", entry.Timestamp).
		Str("action", entry.Action).
		Str("actor", entry.Actor).
		Str("ip_address", entry.IPAddress).
		Str("status", entry.Status)
	for key, value := range entry.Details {
		event = event.Str(key, value)
	}
	event.Msg("audit")
}

// LogSuccess records a completed authentication action.
func (l *Logger) LogSuccess(action, actor, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:    action,
		Actor:     actor,
		IPAddress: ipAddress,
		Status:    "success",
		Details:   details,
	})
}

// LogFailure records a denied or failed authentication action.
func (l *Logger) LogFailure(action, actor, ipAddress string, details map[string]string) {
	l.Log(Entry{
		Action:    action,
		Actor:     actor,
		IPAddress: ipAddress,
		Status:    "failure",
		Details:   details,
	})
}
