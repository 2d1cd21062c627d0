package storage

import (
	"context"

	"token-launchpad/internal/domain"
)

// Record names of the two persisted run state records.
const (
	RecordConfig = "config"
	RecordLogs   = "logs"
)

// DefaultLogCapacity is the default size of the log ring buffer.
const DefaultLogCapacity = 100

// RunStateStore provides durable access to the auto-launch run state.
// Holds exactly two named records: the singleton RunConfig and the bounded log list.
// Implementations do not lock across calls: read-modify-write sequences
// issued by callers are not atomic.
type RunStateStore interface {
	// GetConfig returns the current run config. Returns ErrNotFound if none exists.
	GetConfig(ctx context.Context) (*domain.RunConfig, error)

	// PutConfig fully replaces the run config.
	PutConfig(ctx context.Context, cfg *domain.RunConfig) error

	// AppendLog prepends an entry (newest first) and trims to capacity.
	AppendLog(ctx context.Context, entry domain.LogEntry) error

	// GetLogs returns all log entries, newest first. Empty slice if none.
	GetLogs(ctx context.Context) ([]domain.LogEntry, error)

	// ClearLogs deletes the log record.
	ClearLogs(ctx context.Context) error

	// Clear deletes both records.
	Clear(ctx context.Context) error
}

// PrependLog returns entries with entry at the head, trimmed to capacity.
// Overflow silently drops the oldest entries.
func PrependLog(entries []domain.LogEntry, entry domain.LogEntry, capacity int) []domain.LogEntry {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	out := make([]domain.LogEntry, 0, min(len(entries)+1, capacity))
	out = append(out, entry)
	for _, e := range entries {
		if len(out) >= capacity {
			break
		}
		out = append(out, e)
	}
	return out
}
