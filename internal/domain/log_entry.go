package domain

import "time"

// LogKind is the severity tag of a run log entry.
type LogKind string

const (
	LogInfo    LogKind = "info"
	LogSuccess LogKind = "success"
	LogError   LogKind = "error"
	LogSkip    LogKind = "skip"
)

// LogEntry is one human-readable line of the run log.
// Entries are append-only and never mutated.
type LogEntry struct {
	Time    string    `json:"time"` // wall clock, HH:MM:SS
	At      time.Time `json:"at"`
	Message string    `json:"message"`
	Kind    LogKind   `json:"kind"`
}

// NewLogEntry creates a log entry stamped with t.
func NewLogEntry(t time.Time, kind LogKind, message string) LogEntry {
	return LogEntry{
		Time:    t.Format("15:04:05"),
		At:      t,
		Message: message,
		Kind:    kind,
	}
}
