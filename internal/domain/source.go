package domain

// Chain identifiers used for candidate filtering.
const (
	ChainAny    = "any" // wildcard: matches every chain
	ChainSolana = "solana"
	ChainBase   = "base"
	ChainEth    = "ethereum"
	ChainBSC    = "bsc"
)

// ChainMatches reports whether a candidate chain satisfies the configured chain.
// A configured chain of "any" (or empty) disables the filter; a candidate tagged
// "any" matches every configured chain.
func ChainMatches(configured, candidate string) bool {
	if configured == "" || configured == ChainAny {
		return true
	}
	if candidate == ChainAny {
		return true
	}
	return configured == candidate
}
