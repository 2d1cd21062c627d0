package tokensource

import (
	"sort"

	"token-launchpad/internal/domain"
)

// Apply filters and orders a batch. The input slice is not modified.
func Apply(in []domain.Candidate, f Filters) []domain.Candidate {
	out := make([]domain.Candidate, 0, len(in))
	for _, c := range in {
		if c.Volume24h < f.MinVolume {
			continue
		}
		if !domain.ChainMatches(f.Chain, c.Chain) {
			continue
		}
		out = append(out, c)
	}

	switch f.Trend {
	case TrendVolume:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Volume24h > out[j].Volume24h
		})
	case TrendGainers:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PriceChange > out[j].PriceChange
		})
	}
	// TrendNew keeps provider order (newest listings first).

	limit := f.Limit
	if limit <= 0 || limit > MaxCandidates {
		limit = MaxCandidates
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
