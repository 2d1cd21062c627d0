package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// RunStateStore implements storage.RunStateStore using ClickHouse.
// Records live in a ReplacingMergeTree keyed by name; every write inserts a
// new version and reads use FINAL to see the latest one. Deletes insert a
// tombstone row (deleted = 1).
type RunStateStore struct {
	conn     *Conn
	capacity int
	lastVer  atomic.Uint64
}

// NewRunStateStore creates a new ClickHouse run state store.
// A capacity <= 0 selects storage.DefaultLogCapacity.
func NewRunStateStore(conn *Conn, capacity int) *RunStateStore {
	if capacity <= 0 {
		capacity = storage.DefaultLogCapacity
	}
	return &RunStateStore{conn: conn, capacity: capacity}
}

// Compile-time interface check.
var _ storage.RunStateStore = (*RunStateStore)(nil)

// GetConfig returns the current run config.
func (s *RunStateStore) GetConfig(ctx context.Context) (*domain.RunConfig, error) {
	raw, found, err := s.read(ctx, storage.RecordConfig)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}

	var cfg domain.RunConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// PutConfig replaces the run config.
func (s *RunStateStore) PutConfig(ctx context.Context, cfg *domain.RunConfig) error {
	if cfg == nil {
		return storage.ErrInvalidInput
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return s.write(ctx, storage.RecordConfig, string(raw), false)
}

// AppendLog prepends an entry and trims to capacity.
// ClickHouse has no row locks: concurrent appends may drop an entry.
func (s *RunStateStore) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	entries, err := s.GetLogs(ctx)
	if err != nil {
		return err
	}
	entries = storage.PrependLog(entries, entry, s.capacity)

	raw, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode logs: %w", err)
	}
	return s.write(ctx, storage.RecordLogs, string(raw), false)
}

// GetLogs returns all log entries, newest first.
func (s *RunStateStore) GetLogs(ctx context.Context) ([]domain.LogEntry, error) {
	raw, found, err := s.read(ctx, storage.RecordLogs)
	if err != nil {
		return nil, err
	}
	entries := []domain.LogEntry{}
	if !found {
		return entries, nil
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	return entries, nil
}

// ClearLogs deletes the log record.
func (s *RunStateStore) ClearLogs(ctx context.Context) error {
	return s.write(ctx, storage.RecordLogs, "", true)
}

// Clear deletes both records.
func (s *RunStateStore) Clear(ctx context.Context) error {
	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO run_state (name, value, deleted, version)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w: %w", storage.ErrUnavailable, err)
	}

	for _, name := range []string{storage.RecordConfig, storage.RecordLogs} {
		if err := batch.Append(name, "", uint8(1), s.nextVersion()); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w: %w", storage.ErrUnavailable, err)
	}
	return nil
}

func (s *RunStateStore) read(ctx context.Context, name string) (string, bool, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT value, deleted
		FROM run_state FINAL
		WHERE name = ?
		LIMIT 1
	`, name)
	if err != nil {
		return "", false, fmt.Errorf("query %s: %w: %w", name, storage.ErrUnavailable, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return "", false, rows.Err()
	}

	var value string
	var deleted uint8
	if err := rows.Scan(&value, &deleted); err != nil {
		return "", false, fmt.Errorf("scan %s: %w", name, err)
	}
	if deleted == 1 {
		return "", false, nil
	}
	return value, true, nil
}

func (s *RunStateStore) write(ctx context.Context, name, value string, deleted bool) error {
	var flag uint8
	if deleted {
		flag = 1
	}
	err := s.conn.Exec(ctx, `
		INSERT INTO run_state (name, value, deleted, version) VALUES (?, ?, ?, ?)
	`, name, value, flag, s.nextVersion())
	if err != nil {
		return fmt.Errorf("write %s: %w: %w", name, storage.ErrUnavailable, err)
	}
	return nil
}

// nextVersion returns a strictly increasing version based on wall-clock nanoseconds.
func (s *RunStateStore) nextVersion() uint64 {
	now := uint64(time.Now().UnixNano())
	for {
		last := s.lastVer.Load()
		next := now
		if next <= last {
			next = last + 1
		}
		if s.lastVer.CompareAndSwap(last, next) {
			return next
		}
	}
}
