package driver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/storage/memory"
)

func newTestSession(e *env, clock *fakeClock, budget time.Duration) *Session {
	return NewSession(SessionOptions{
		Stepper: e.orch,
		Store:   e.store,
		Budget:  budget,
		Margin:  2 * time.Second,
		Now:     clock.Now,
		Sleep:   clock.Sleep,
		Logger:  quiet(),
	})
}

func TestSession_RunsUntilBudget(t *testing.T) {
	e := newEnv(t, candidate("A", "Alpha"), candidate("B", "Beta"), candidate("C", "Gamma"))
	e.start(t, domain.ModeSelfReschedulingSession, 100, 20)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	res, err := newTestSession(e, clock, 55*time.Second).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ReasonBudget, res.Reason)
	assert.True(t, res.Continue)
	assert.Equal(t, 3, res.Steps)
	assert.Equal(t, 3, res.Deployed)
	// 20s, 20s, then clamped to the remaining 13s.
	assert.Equal(t, []time.Duration{20 * time.Second, 20 * time.Second, 13 * time.Second}, clock.sleeps)
}

func TestSession_StopsAtMax(t *testing.T) {
	e := newEnv(t, candidate("A", "Alpha"), candidate("B", "Beta"), candidate("C", "Gamma"))
	e.start(t, domain.ModeSelfReschedulingSession, 2, 1)

	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	res, err := newTestSession(e, clock, 55*time.Second).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, ReasonMaxReached, res.Reason)
	assert.False(t, res.Continue)
	assert.Equal(t, 2, res.Deployed)
	assert.Len(t, e.deployer.Calls(), 2)
}

func TestSession_NotRunning(t *testing.T) {
	e := newEnv(t, candidate("A", "Alpha"))
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	res, err := newTestSession(e, clock, 55*time.Second).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonNotRunning, res.Reason)
	assert.False(t, res.Continue)
	assert.Equal(t, 0, res.Steps)
}

func TestSession_WrongMode(t *testing.T) {
	e := newEnv(t, candidate("A", "Alpha"))
	e.start(t, domain.ModeExternalTimer, 5, 1)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	res, err := newTestSession(e, clock, 55*time.Second).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonMode, res.Reason)
	assert.Empty(t, e.deployer.Calls())
}

// stopAfterSleep stops the run during the session's first pause.
type stopAfterSleep struct {
	*fakeClock
	env *env
}

func (s *stopAfterSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.env.orch.Stop(ctx)
	return s.fakeClock.Sleep(ctx, d)
}

func TestSession_StopMidSleep(t *testing.T) {
	e := newEnv(t, candidate("A", "Alpha"), candidate("B", "Beta"))
	e.start(t, domain.ModeSelfReschedulingSession, 10, 5)

	clock := &stopAfterSleep{fakeClock: &fakeClock{now: time.Unix(1700000000, 0)}, env: e}
	s := NewSession(SessionOptions{
		Stepper: e.orch, Store: e.store, Budget: 55 * time.Second,
		Now: clock.Now, Sleep: clock.Sleep, Logger: quiet(),
	})

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ReasonNotRunning, res.Reason)
	assert.False(t, res.Continue)
	assert.Equal(t, 1, res.Steps, "no step after the store says stop")
}

func TestSession_Cancelled(t *testing.T) {
	e := newEnv(t, candidate("A", "Alpha"), candidate("B", "Beta"))
	e.start(t, domain.ModeSelfReschedulingSession, 10, 5)

	ctx, cancel := context.WithCancel(context.Background())
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := NewSession(SessionOptions{
		Stepper: e.orch, Store: e.store, Budget: 55 * time.Second,
		Now: clock.Now,
		Sleep: func(c context.Context, d time.Duration) error {
			cancel()
			return clock.Sleep(c, d)
		},
		Logger: quiet(),
	})

	res, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReasonCancelled, res.Reason)
	assert.True(t, res.Continue)
}

type brokenStore struct {
	storage.RunStateStore
}

func (brokenStore) GetConfig(ctx context.Context) (*domain.RunConfig, error) {
	return nil, storage.ErrUnavailable
}

func TestSession_StoreError(t *testing.T) {
	e := newEnv(t)
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := NewSession(SessionOptions{
		Stepper: e.orch,
		Store:   brokenStore{RunStateStore: memory.NewRunStateStore(0)},
		Now:     clock.Now,
		Sleep:   clock.Sleep,
		Logger:  quiet(),
	})

	_, err := s.Run(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
}
