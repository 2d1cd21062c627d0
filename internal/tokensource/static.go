package tokensource

import (
	"context"

	"token-launchpad/internal/domain"
)

// Static is a fixed in-memory source, used for dry runs and tests.
type Static struct {
	Label      string
	Candidates []domain.Candidate
	Err        error
}

// Name implements Source.
func (s *Static) Name() string {
	if s.Label == "" {
		return "static"
	}
	return s.Label
}

// Fetch implements Source.
func (s *Static) Fetch(ctx context.Context, f Filters) ([]domain.Candidate, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]domain.Candidate, len(s.Candidates))
	copy(out, s.Candidates)
	return out, nil
}
