package tokensource

import (
	"context"
	"fmt"
	"strings"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/httpx"
)

// GeckoTerminal source names.
const (
	SourceGeckoTrending = "geckoterminal-trending"
	SourceGeckoNew      = "geckoterminal-new"

	DefaultGeckoTerminalURL = "https://api.geckoterminal.com/api/v2"
)

// geckoNetworks maps chain identifiers to GeckoTerminal network ids.
var geckoNetworks = map[string]string{
	domain.ChainSolana: "solana",
	domain.ChainBase:   "base",
	domain.ChainEth:    "eth",
	domain.ChainBSC:    "bsc",
}

// GeckoTerminal reads trending or newly created pools for one network.
type GeckoTerminal struct {
	name     string
	endpoint string
	baseURL  string
	client   *httpx.Client
}

// NewGeckoTerminalTrending creates the trending-pools source.
func NewGeckoTerminalTrending(client *httpx.Client, baseURL string) *GeckoTerminal {
	return newGeckoTerminal(SourceGeckoTrending, "trending_pools", client, baseURL)
}

// NewGeckoTerminalNew creates the new-pools source.
func NewGeckoTerminalNew(client *httpx.Client, baseURL string) *GeckoTerminal {
	return newGeckoTerminal(SourceGeckoNew, "new_pools", client, baseURL)
}

func newGeckoTerminal(name, endpoint string, client *httpx.Client, baseURL string) *GeckoTerminal {
	if baseURL == "" {
		baseURL = DefaultGeckoTerminalURL
	}
	return &GeckoTerminal{
		name:     name,
		endpoint: endpoint,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
	}
}

// Name implements Source.
func (g *GeckoTerminal) Name() string { return g.name }

type geckoPoolsResponse struct {
	Data []struct {
		Attributes struct {
			Address     string `json:"address"`
			VolumeUSD   struct {
				H24 string `json:"h24"`
			} `json:"volume_usd"`
			PriceChange struct {
				H24 string `json:"h24"`
			} `json:"price_change_percentage"`
		} `json:"attributes"`
		Relationships struct {
			BaseToken struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"base_token"`
		} `json:"relationships"`
	} `json:"data"`
	Included []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Address  string `json:"address"`
			Name     string `json:"name"`
			Symbol   string `json:"symbol"`
			ImageURL string `json:"image_url"`
		} `json:"attributes"`
	} `json:"included"`
}

// Fetch implements Source.
func (g *GeckoTerminal) Fetch(ctx context.Context, f Filters) ([]domain.Candidate, error) {
	chain := f.Chain
	network, ok := geckoNetworks[chain]
	if !ok {
		chain = domain.ChainSolana
		network = geckoNetworks[chain]
	}

	u := fmt.Sprintf("%s/networks/%s/%s?include=base_token", g.baseURL, network, g.endpoint)
	var resp geckoPoolsResponse
	if err := g.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}

	tokens := make(map[string]int, len(resp.Included))
	for i, inc := range resp.Included {
		if inc.Type == "token" {
			tokens[inc.ID] = i
		}
	}

	seen := make(map[string]bool)
	out := make([]domain.Candidate, 0, len(resp.Data))
	for _, pool := range resp.Data {
		idx, ok := tokens[pool.Relationships.BaseToken.Data.ID]
		if !ok {
			continue
		}
		tok := resp.Included[idx].Attributes
		if tok.Symbol == "" || seen[tok.Address] {
			continue
		}
		seen[tok.Address] = true

		image := tok.ImageURL
		if image == "missing.png" {
			image = ""
		}
		out = append(out, domain.Candidate{
			Name:        tok.Name,
			Symbol:      tok.Symbol,
			Address:     tok.Address,
			ImageURL:    image,
			Volume24h:   parseFloat(pool.Attributes.VolumeUSD.H24),
			PriceChange: parseFloat(pool.Attributes.PriceChange.H24),
			Chain:       chain,
			SourceLabel: g.name,
		})
	}
	return out, nil
}
