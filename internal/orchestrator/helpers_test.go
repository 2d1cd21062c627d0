package orchestrator

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"token-launchpad/internal/deploy"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/storage/memory"
	"token-launchpad/internal/tokensource"
)

// fakeSource returns a fixed batch and counts calls.
type fakeSource struct {
	mu    sync.Mutex
	batch []domain.Candidate
	calls int
	err   error
}

func (f *fakeSource) Fetch(ctx context.Context, selector string, filters tokensource.Filters, nextIndex int) tokensource.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([]domain.Candidate, len(f.batch))
	copy(out, f.batch)
	return tokensource.Result{
		Candidates:      out,
		NextSourceIndex: nextIndex + 1,
		SourceLabel:     "fake",
		Err:             f.err,
	}
}

// failingStore fails every call once broken is set.
type failingStore struct {
	storage.RunStateStore
	broken bool
}

func (s *failingStore) GetConfig(ctx context.Context) (*domain.RunConfig, error) {
	if s.broken {
		return nil, storage.ErrUnavailable
	}
	return s.RunStateStore.GetConfig(ctx)
}

func (s *failingStore) PutConfig(ctx context.Context, cfg *domain.RunConfig) error {
	if s.broken {
		return storage.ErrUnavailable
	}
	return s.RunStateStore.PutConfig(ctx, cfg)
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []*domain.DeploymentOutcome
}

func (n *recordingNotifier) Notify(ctx context.Context, c domain.Candidate, out *domain.DeploymentOutcome) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, out)
	return nil
}

func cand(symbol, name string) domain.Candidate {
	return domain.Candidate{
		Symbol:       symbol,
		Name:         name,
		ImageURL:     "https://ipfs.io/ipfs/" + symbol,
		HasRealImage: true,
		Chain:        domain.ChainSolana,
		SourceLabel:  "fake",
	}
}

type harness struct {
	orch     *Orchestrator
	store    *memory.RunStateStore
	source   *fakeSource
	deployer *deploy.Stub
	clock    time.Time
}

func newHarness(t *testing.T, batch ...domain.Candidate) *harness {
	t.Helper()
	h := &harness{
		store:    memory.NewRunStateStore(0),
		source:   &fakeSource{batch: batch},
		deployer: deploy.NewStub(),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	h.orch = New(Options{
		Store:    h.store,
		Source:   h.source,
		Deployer: h.deployer,
		Now: func() time.Time {
			h.clock = h.clock.Add(time.Second)
			return h.clock
		},
		Logger: log.New(io.Discard, "", 0),
	})
	return h
}

func (h *harness) start(t *testing.T, max uint) *domain.RunConfig {
	t.Helper()
	cfg, err := h.orch.Start(context.Background(), StartRequest{
		Launchpad:      "clawnch",
		Agent:          "moltbook",
		Wallet:         "Wallet111",
		Chain:          domain.ChainAny,
		MaxDeployments: max,
	})
	require.NoError(t, err)
	return cfg
}

func (h *harness) config(t *testing.T) *domain.RunConfig {
	t.Helper()
	cfg, err := h.store.GetConfig(context.Background())
	require.NoError(t, err)
	return cfg
}

func (h *harness) step(t *testing.T) *StepResult {
	t.Helper()
	res, err := h.orch.Step(context.Background())
	require.NoError(t, err)
	return res
}
