package tokensource

import "token-launchpad/internal/httpx"

// Endpoints overrides provider base URLs (tests, proxies).
type Endpoints struct {
	DexScreener   string
	GeckoTerminal string
	CoinGecko     string
}

// DefaultSources returns every public provider in rotation order.
func DefaultSources(client *httpx.Client, ep Endpoints) []Source {
	return []Source{
		NewDexScreenerBoosts(client, ep.DexScreener),
		NewDexScreenerProfiles(client, ep.DexScreener),
		NewGeckoTerminalTrending(client, ep.GeckoTerminal),
		NewGeckoTerminalNew(client, ep.GeckoTerminal),
		NewCoinGeckoTrending(client, ep.CoinGecko),
	}
}
