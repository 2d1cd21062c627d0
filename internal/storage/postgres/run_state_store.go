package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// RunStateStore is a PostgreSQL implementation of storage.RunStateStore.
// Uses one table keyed by record name:
//   - run_state('config'): the RunConfig as JSONB
//   - run_state('logs'):   the newest-first log list as a JSONB array
type RunStateStore struct {
	pool     *Pool
	capacity int
}

// NewRunStateStore creates a new PostgreSQL run state store.
// A capacity <= 0 selects storage.DefaultLogCapacity.
func NewRunStateStore(pool *Pool, capacity int) *RunStateStore {
	if capacity <= 0 {
		capacity = storage.DefaultLogCapacity
	}
	return &RunStateStore{pool: pool, capacity: capacity}
}

// Compile-time interface check.
var _ storage.RunStateStore = (*RunStateStore)(nil)

// GetConfig returns the current run config.
func (s *RunStateStore) GetConfig(ctx context.Context) (*domain.RunConfig, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT value FROM run_state WHERE name = $1
	`, storage.RecordConfig)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, wrapErr("get config", err)
	}

	var cfg domain.RunConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// PutConfig replaces the run config.
// Uses upsert to handle initial insert and subsequent updates.
func (s *RunStateStore) PutConfig(ctx context.Context, cfg *domain.RunConfig) error {
	if cfg == nil {
		return storage.ErrInvalidInput
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO run_state (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
	`, storage.RecordConfig, raw)

	return wrapErr("put config", err)
}

// AppendLog prepends an entry and trims to capacity.
// The read and write of the log record share one transaction.
func (s *RunStateStore) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapErr("begin append log", err)
	}
	defer tx.Rollback(ctx)

	// Make sure the row exists so FOR UPDATE has something to lock. A
	// concurrent first append blocks here on the primary key until it commits.
	_, err = tx.Exec(ctx, `
		INSERT INTO run_state (name, value) VALUES ($1, '[]')
		ON CONFLICT (name) DO NOTHING
	`, storage.RecordLogs)
	if err != nil {
		return wrapErr("seed logs", err)
	}

	var raw []byte
	err = tx.QueryRow(ctx, `
		SELECT value FROM run_state WHERE name = $1 FOR UPDATE
	`, storage.RecordLogs).Scan(&raw)
	if err != nil {
		return wrapErr("read logs", err)
	}

	var entries []domain.LogEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("decode logs: %w", err)
	}

	entries = storage.PrependLog(entries, entry, s.capacity)
	out, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode logs: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE run_state SET value = $2, updated_at = NOW() WHERE name = $1
	`, storage.RecordLogs, out)
	if err != nil {
		return wrapErr("write logs", err)
	}

	return wrapErr("commit append log", tx.Commit(ctx))
}

// GetLogs returns all log entries, newest first.
func (s *RunStateStore) GetLogs(ctx context.Context) ([]domain.LogEntry, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM run_state WHERE name = $1
	`, storage.RecordLogs).Scan(&raw)
	if err != nil {
		if isNotFoundError(err) {
			return []domain.LogEntry{}, nil
		}
		return nil, wrapErr("get logs", err)
	}

	entries := []domain.LogEntry{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decode logs: %w", err)
	}
	return entries, nil
}

// ClearLogs empties the log record. The row is kept so appends keep a lock target.
func (s *RunStateStore) ClearLogs(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO run_state (name, value, updated_at)
		VALUES ($1, '[]', NOW())
		ON CONFLICT (name) DO UPDATE
		SET value = '[]',
		    updated_at = NOW()
	`, storage.RecordLogs)
	return wrapErr("clear logs", err)
}

// Clear deletes both records.
func (s *RunStateStore) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM run_state WHERE name = ANY($1)
	`, []string{storage.RecordConfig, storage.RecordLogs})
	return wrapErr("clear run state", err)
}
