package deploy

import (
	"context"
	"fmt"
	"sync"

	"token-launchpad/internal/domain"
)

// Stub is an in-process deployer for dry runs and tests. It records every
// call and succeeds unless the candidate's dedup key is listed in Fail.
type Stub struct {
	mu    sync.Mutex
	calls []domain.Candidate

	Fail map[string]string // dedup key -> failure message
}

// NewStub creates a new Stub.
func NewStub() *Stub {
	return &Stub{Fail: make(map[string]string)}
}

// Deploy implements the orchestrator's deployer contract.
func (s *Stub) Deploy(ctx context.Context, c domain.Candidate, t domain.Target) *domain.DeploymentOutcome {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	msg, failing := s.Fail[c.DedupKey()]
	n := len(s.calls)
	s.mu.Unlock()

	out := &domain.DeploymentOutcome{}
	out.Logf("dry run: %s ($%s) via %s -> %s", c.Name, c.Symbol, t.Agent, t.Launchpad)
	if failing {
		out.Message = "publish: " + msg
		out.Logf("%s", out.Message)
		return out
	}
	out.Success = true
	out.PostID = fmt.Sprintf("dry-%d", n)
	out.Message = fmt.Sprintf("dry run: would launch $%s on %s", c.Symbol, t.Launchpad)
	return out
}

// Calls returns a copy of the candidates passed to Deploy.
func (s *Stub) Calls() []domain.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Candidate, len(s.calls))
	copy(out, s.calls)
	return out
}
