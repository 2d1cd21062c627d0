package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

func TestStart_ReplacesPriorRunAndClearsLogs(t *testing.T) {
	h := newHarness(t, cand("ABC", "AlphaCoin"))
	first := h.start(t, 5)
	h.step(t)

	second := h.start(t, 3)
	assert.NotEqual(t, first.RunID, second.RunID)

	cfg := h.config(t)
	assert.True(t, cfg.Running)
	assert.Equal(t, uint(0), cfg.TotalDeployed)
	assert.Empty(t, cfg.LaunchedKeys)
	assert.Equal(t, uint(3), cfg.MaxDeployments)
	assert.True(t, cfg.RequireRealImage)

	logs, err := h.store.GetLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "started")
}

func TestStart_Validation(t *testing.T) {
	h := newHarness(t)
	valid := StartRequest{Launchpad: "clawnch", Agent: "moltbook", Wallet: "W", MaxDeployments: 1}

	tests := []struct {
		name   string
		mutate func(*StartRequest)
	}{
		{"missing launchpad", func(r *StartRequest) { r.Launchpad = "" }},
		{"missing agent", func(r *StartRequest) { r.Agent = "" }},
		{"missing wallet", func(r *StartRequest) { r.Wallet = "" }},
		{"zero max", func(r *StartRequest) { r.MaxDeployments = 0 }},
		{"bad mode", func(r *StartRequest) { r.Mode = "BROWSER" }},
		{"bad trend", func(r *StartRequest) { r.TrendFilter = "losers" }},
		{"negative volume", func(r *StartRequest) { r.MinVolume = -1 }},
		{"bad tax", func(r *StartRequest) {
			r.Tax = &domain.TaxConfig{RatePercent: 5, Distribution: map[string]int{"a": 10}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := h.orch.Start(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := h.store.GetConfig(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound, "invalid start must not write")
}

func TestStart_Defaults(t *testing.T) {
	h := newHarness(t)
	cfg, err := h.orch.Start(context.Background(), StartRequest{
		Launchpad: "clawnch", Agent: "moltbook", Wallet: "W", MaxDeployments: 1,
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ModeExternalTimer, cfg.Mode)
	assert.Equal(t, domain.ChainAny, cfg.Chain)
	assert.Equal(t, "rotate", cfg.Source)
}

func TestStart_TargetValidator(t *testing.T) {
	h := newHarness(t)
	h.orch.validate = func(t domain.Target) error {
		if t.Agent != "moltbook" {
			return errors.New("unknown agent")
		}
		return nil
	}

	_, err := h.orch.Start(context.Background(), StartRequest{
		Launchpad: "clawnch", Agent: "myspace", Wallet: "W", MaxDeployments: 1,
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStart_RedactsKey(t *testing.T) {
	h := newHarness(t)
	cfg, err := h.orch.Start(context.Background(), StartRequest{
		Launchpad: "clawnch", Agent: "4claw", Wallet: "W", MaxDeployments: 1, AgentAPIKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "***", cfg.AgentAPIKey)
	assert.Equal(t, "secret", h.config(t).AgentAPIKey)

	status, err := h.orch.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "***", status.Config.AgentAPIKey)
}

func TestStop_Idempotent(t *testing.T) {
	h := newHarness(t, cand("ABC", "AlphaCoin"))
	h.start(t, 5)
	h.step(t)

	_, err := h.orch.Stop(context.Background())
	require.NoError(t, err)
	before := h.config(t)
	logsBefore, _ := h.store.GetLogs(context.Background())

	_, err = h.orch.Stop(context.Background())
	require.NoError(t, err)
	after := h.config(t)
	logsAfter, _ := h.store.GetLogs(context.Background())

	assert.Equal(t, before.StartedAt, after.StartedAt)
	assert.Equal(t, before.TotalDeployed, after.TotalDeployed)
	assert.Equal(t, before.StoppedAt, after.StoppedAt)
	assert.Len(t, logsAfter, len(logsBefore))
	assert.Equal(t, StateHaltedByUser, StateOf(after))
}

func TestStop_NoRun(t *testing.T) {
	h := newHarness(t)
	cfg, err := h.orch.Stop(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestClear(t *testing.T) {
	h := newHarness(t, cand("ABC", "AlphaCoin"))
	h.start(t, 5)
	h.step(t)

	require.NoError(t, h.orch.Clear(context.Background()))

	status, err := h.orch.Status(context.Background())
	require.NoError(t, err)
	assert.Nil(t, status.Config)
	assert.Empty(t, status.Logs)
	assert.Equal(t, StateIdle, status.State)
}

func TestStatus_Active(t *testing.T) {
	h := newHarness(t, cand("ABC", "AlphaCoin"))
	h.start(t, 5)
	h.step(t)

	status, err := h.orch.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateActive, status.State)
	require.Len(t, status.Logs, 2)
	assert.Equal(t, domain.LogSuccess, status.Logs[0].Kind, "newest first")
}
