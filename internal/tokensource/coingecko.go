package tokensource

import (
	"context"
	"fmt"
	"strings"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/httpx"
)

// CoinGecko source constants.
const (
	SourceCoinGeckoTrending = "coingecko-trending"

	DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
)

// CoinGecko reads the trending-search list. Coins are not chain specific,
// so candidates are tagged with the wildcard chain.
type CoinGecko struct {
	baseURL string
	client  *httpx.Client
}

// NewCoinGeckoTrending creates the trending source.
func NewCoinGeckoTrending(client *httpx.Client, baseURL string) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Name implements Source.
func (c *CoinGecko) Name() string { return SourceCoinGeckoTrending }

type coingeckoTrending struct {
	Coins []struct {
		Item struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Symbol string `json:"symbol"`
			Large  string `json:"large"`
			Small  string `json:"small"`
			Data   struct {
				TotalVolume string `json:"total_volume"`
				PriceChange struct {
					USD float64 `json:"usd"`
				} `json:"price_change_percentage_24h"`
				Content *struct {
					Description string `json:"description"`
				} `json:"content"`
			} `json:"data"`
		} `json:"item"`
	} `json:"coins"`
}

// Fetch implements Source.
func (c *CoinGecko) Fetch(ctx context.Context, f Filters) ([]domain.Candidate, error) {
	var resp coingeckoTrending
	if err := c.client.GetJSON(ctx, c.baseURL+"/search/trending", &resp); err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	out := make([]domain.Candidate, 0, len(resp.Coins))
	for _, coin := range resp.Coins {
		it := coin.Item
		if it.Symbol == "" {
			continue
		}
		image := it.Large
		if image == "" {
			image = it.Small
		}
		cand := domain.Candidate{
			Name:        it.Name,
			Symbol:      strings.ToUpper(it.Symbol),
			Address:     it.ID,
			ImageURL:    image,
			Volume24h:   parseFloat(it.Data.TotalVolume),
			PriceChange: it.Data.PriceChange.USD,
			Chain:       domain.ChainAny,
			SourceLabel: SourceCoinGeckoTrending,
		}
		if it.Data.Content != nil {
			cand.Description = it.Data.Content.Description
		}
		out = append(out, cand)
	}
	return out, nil
}
