package app

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/config"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/notify"
)

func quiet() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestOpenStore_Memory(t *testing.T) {
	store, cleanup, err := OpenStore(context.Background(), config.Default(), quiet())
	require.NoError(t, err)
	defer cleanup()

	require.NoError(t, store.PutConfig(context.Background(), &domain.RunConfig{RunID: "r"}))
	cfg, err := store.GetConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r", cfg.RunID)
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "redis"
	_, _, err := OpenStore(context.Background(), cfg, quiet())
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestNewDeployer_DryRun(t *testing.T) {
	cfg := config.Default()
	cfg.Deploy.DryRun = true

	d := NewDeployer(cfg, NewRegistry(), quiet())
	out := d.Deploy(context.Background(),
		domain.Candidate{Name: "AlphaCoin", Symbol: "ABC"},
		domain.Target{Launchpad: "clawnch", Agent: "moltbook", Wallet: "W"})
	assert.True(t, out.Success)
	assert.Contains(t, out.Message, "dry run")
}

func TestNewNotifier_DefaultsToLogger(t *testing.T) {
	n, err := NewNotifier(config.Default(), quiet())
	require.NoError(t, err)
	assert.IsType(t, &notify.Logger{}, n)
}

func TestValidateTarget(t *testing.T) {
	validate := ValidateTarget(NewRegistry())

	assert.NoError(t, validate(domain.Target{Agent: "moltbook", Launchpad: "clawnch"}))
	assert.Error(t, validate(domain.Target{Agent: "nobody", Launchpad: "clawnch"}))
	assert.Error(t, validate(domain.Target{Agent: "moltx", Launchpad: "nowhere"}))
}
