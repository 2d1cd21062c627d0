package orchestrator

import (
	"fmt"

	"token-launchpad/internal/domain"
)

// Eligible reports whether c may be deployed under cfg, and why not.
func Eligible(cfg *domain.RunConfig, c domain.Candidate) (bool, string) {
	if cfg.HasKey(c.DedupKey()) {
		return false, "launched"
	}
	if cfg.RequireRealImage && !c.HasRealImage {
		return false, "no image"
	}
	if !domain.ChainMatches(cfg.Chain, c.Chain) {
		return false, "chain"
	}
	return true, ""
}

// selectCandidate returns the first eligible candidate in batch order.
// When none qualifies it returns a summary of skip reasons.
func selectCandidate(cfg *domain.RunConfig, batch []domain.Candidate) (*domain.Candidate, string) {
	counts := map[string]int{}
	for i := range batch {
		ok, why := Eligible(cfg, batch[i])
		if ok {
			c := batch[i]
			return &c, ""
		}
		counts[why]++
	}
	return nil, fmt.Sprintf("%d launched, %d no image, %d chain",
		counts["launched"], counts["no image"], counts["chain"])
}
