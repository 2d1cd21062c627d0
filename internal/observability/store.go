package observability

import (
	"context"
	"errors"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// InstrumentedStore records query metrics around a RunStateStore.
type InstrumentedStore struct {
	next     storage.RunStateStore
	database string
}

// InstrumentStore wraps store so every call is timed under the database label.
func InstrumentStore(store storage.RunStateStore, database string) *InstrumentedStore {
	return &InstrumentedStore{next: store, database: database}
}

var _ storage.RunStateStore = (*InstrumentedStore)(nil)

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = nil
	}
	RecordDBQuery(s.database, op, time.Since(start).Seconds(), err)
}

func (s *InstrumentedStore) GetConfig(ctx context.Context) (*domain.RunConfig, error) {
	start := time.Now()
	cfg, err := s.next.GetConfig(ctx)
	s.observe("get_config", start, err)
	return cfg, err
}

func (s *InstrumentedStore) PutConfig(ctx context.Context, cfg *domain.RunConfig) error {
	start := time.Now()
	err := s.next.PutConfig(ctx, cfg)
	s.observe("put_config", start, err)
	if err == nil {
		RecordRunState(cfg)
	}
	return err
}

func (s *InstrumentedStore) AppendLog(ctx context.Context, entry domain.LogEntry) error {
	start := time.Now()
	err := s.next.AppendLog(ctx, entry)
	s.observe("append_log", start, err)
	return err
}

func (s *InstrumentedStore) GetLogs(ctx context.Context) ([]domain.LogEntry, error) {
	start := time.Now()
	logs, err := s.next.GetLogs(ctx)
	s.observe("get_logs", start, err)
	return logs, err
}

func (s *InstrumentedStore) ClearLogs(ctx context.Context) error {
	start := time.Now()
	err := s.next.ClearLogs(ctx)
	s.observe("clear_logs", start, err)
	return err
}

func (s *InstrumentedStore) Clear(ctx context.Context) error {
	start := time.Now()
	err := s.next.Clear(ctx)
	s.observe("clear", start, err)
	if err == nil {
		RecordRunState(nil)
	}
	return err
}
