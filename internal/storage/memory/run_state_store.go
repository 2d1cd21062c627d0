package memory

import (
	"context"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// RunStateStore is an in-memory implementation of storage.RunStateStore.
// State does not survive a restart; use it for tests and --use-memory runs.
type RunStateStore struct {
	mu       sync.RWMutex
	config   *domain.RunConfig
	logs     []domain.LogEntry
	capacity int
}

// NewRunStateStore creates a new in-memory run state store.
// A capacity <= 0 selects storage.DefaultLogCapacity.
func NewRunStateStore(capacity int) *RunStateStore {
	if capacity <= 0 {
		capacity = storage.DefaultLogCapacity
	}
	return &RunStateStore{capacity: capacity}
}

// Compile-time interface check.
var _ storage.RunStateStore = (*RunStateStore)(nil)

// GetConfig returns a copy of the current run config.
func (s *RunStateStore) GetConfig(_ context.Context) (*domain.RunConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.config == nil {
		return nil, storage.ErrNotFound
	}
	return s.config.Clone(), nil
}

// PutConfig replaces the run config.
func (s *RunStateStore) PutConfig(_ context.Context, cfg *domain.RunConfig) error {
	if cfg == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = cfg.Clone()
	return nil
}

// AppendLog prepends an entry and trims to capacity.
func (s *RunStateStore) AppendLog(_ context.Context, entry domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = storage.PrependLog(s.logs, entry, s.capacity)
	return nil
}

// GetLogs returns a copy of the log entries, newest first.
func (s *RunStateStore) GetLogs(_ context.Context) ([]domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out, nil
}

// ClearLogs deletes all log entries.
func (s *RunStateStore) ClearLogs(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = nil
	return nil
}

// Clear deletes the config and all log entries.
func (s *RunStateStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.config = nil
	s.logs = nil
	return nil
}
