package driver

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"token-launchpad/internal/deploy"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage/memory"
	"token-launchpad/internal/tokensource"
)

func quiet() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func candidate(symbol, name string) domain.Candidate {
	return domain.Candidate{
		Symbol:       symbol,
		Name:         name,
		ImageURL:     "https://ipfs.io/ipfs/" + symbol,
		HasRealImage: true,
		Chain:        domain.ChainSolana,
	}
}

type env struct {
	store    *memory.RunStateStore
	deployer *deploy.Stub
	source   *tokensource.Fetcher
	orch     *orchestrator.Orchestrator
}

func newEnv(t *testing.T, batch ...domain.Candidate) *env {
	t.Helper()
	e := &env{
		store:    memory.NewRunStateStore(0),
		deployer: deploy.NewStub(),
	}
	e.source = tokensource.NewFetcher(tokensource.Options{
		Sources: []tokensource.Source{&tokensource.Static{Label: "static", Candidates: batch}},
		Logger:  quiet(),
	})
	e.orch = orchestrator.New(orchestrator.Options{
		Store:    e.store,
		Source:   e.source,
		Deployer: e.deployer,
		Logger:   quiet(),
	})
	return e
}

func (e *env) start(t *testing.T, mode domain.Mode, limit, delay uint) {
	t.Helper()
	_, err := e.orch.Start(context.Background(), orchestrator.StartRequest{
		Mode:           mode,
		Launchpad:      "clawnch",
		Agent:          "moltbook",
		Wallet:         "W",
		MaxDeployments: limit,
		DelaySeconds:   delay,
	})
	require.NoError(t, err)
}

// fakeClock advances only when sleep is called.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}
