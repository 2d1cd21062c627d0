package tokensource

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/httpx"
)

// DexScreener source names.
const (
	SourceDexBoosts   = "dexscreener-boosts"
	SourceDexProfiles = "dexscreener-profiles"

	DefaultDexScreenerURL = "https://api.dexscreener.com"
)

// DexScreener reads the latest boosted or profiled tokens and resolves
// name, symbol and volume through the pair lookup endpoint.
type DexScreener struct {
	name    string
	path    string
	baseURL string
	client  *httpx.Client
}

// NewDexScreenerBoosts creates the token-boosts source.
func NewDexScreenerBoosts(client *httpx.Client, baseURL string) *DexScreener {
	return newDexScreener(SourceDexBoosts, "/token-boosts/latest/v1", client, baseURL)
}

// NewDexScreenerProfiles creates the token-profiles source.
func NewDexScreenerProfiles(client *httpx.Client, baseURL string) *DexScreener {
	return newDexScreener(SourceDexProfiles, "/token-profiles/latest/v1", client, baseURL)
}

func newDexScreener(name, path string, client *httpx.Client, baseURL string) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	return &DexScreener{
		name:    name,
		path:    path,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name implements Source.
func (d *DexScreener) Name() string { return d.name }

type dexProfile struct {
	ChainID      string    `json:"chainId"`
	TokenAddress string    `json:"tokenAddress"`
	Icon         string    `json:"icon"`
	Description  string    `json:"description"`
	Links        []dexLink `json:"links"`
}

type dexLink struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	URL   string `json:"url"`
}

type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type dexPair struct {
	ChainID   string `json:"chainId"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Info *struct {
		ImageURL string `json:"imageUrl"`
		Websites []struct {
			URL string `json:"url"`
		} `json:"websites"`
		Socials []struct {
			Type string `json:"type"`
			URL  string `json:"url"`
		} `json:"socials"`
	} `json:"info"`
}

// Fetch implements Source.
func (d *DexScreener) Fetch(ctx context.Context, f Filters) ([]domain.Candidate, error) {
	var profiles []dexProfile
	if err := d.client.GetJSON(ctx, d.baseURL+d.path, &profiles); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}

	seen := make(map[string]bool)
	var ordered []dexProfile
	for _, p := range profiles {
		if p.TokenAddress == "" || seen[p.TokenAddress] {
			continue
		}
		if !domain.ChainMatches(f.Chain, p.ChainID) {
			continue
		}
		seen[p.TokenAddress] = true
		ordered = append(ordered, p)
		if len(ordered) == MaxCandidates {
			break
		}
	}
	if len(ordered) == 0 {
		return nil, nil
	}

	addrs := make([]string, len(ordered))
	for i, p := range ordered {
		addrs[i] = p.TokenAddress
	}

	var pairs dexPairsResponse
	if err := d.client.GetJSON(ctx, d.baseURL+"/latest/dex/tokens/"+strings.Join(addrs, ","), &pairs); err != nil {
		return nil, fmt.Errorf("lookup pairs: %w", err)
	}

	// Highest-volume pair per base token.
	best := make(map[string]dexPair)
	for _, p := range pairs.Pairs {
		cur, ok := best[p.BaseToken.Address]
		if !ok || p.Volume.H24 > cur.Volume.H24 {
			best[p.BaseToken.Address] = p
		}
	}

	out := make([]domain.Candidate, 0, len(ordered))
	for _, prof := range ordered {
		pair, ok := best[prof.TokenAddress]
		if !ok || pair.BaseToken.Symbol == "" {
			continue
		}
		c := domain.Candidate{
			Name:        pair.BaseToken.Name,
			Symbol:      pair.BaseToken.Symbol,
			Address:     prof.TokenAddress,
			ImageURL:    prof.Icon,
			Description: prof.Description,
			Volume24h:   pair.Volume.H24,
			PriceChange: pair.PriceChange.H24,
			Chain:       prof.ChainID,
			SourceLabel: d.name,
		}
		for _, l := range prof.Links {
			assignLink(&c, l.Type, l.Label, l.URL)
		}
		if pair.Info != nil {
			if c.ImageURL == "" {
				c.ImageURL = pair.Info.ImageURL
			}
			if c.Website == "" && len(pair.Info.Websites) > 0 {
				c.Website = pair.Info.Websites[0].URL
			}
			for _, s := range pair.Info.Socials {
				assignLink(&c, s.Type, "", s.URL)
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// assignLink fills the first matching empty link field.
func assignLink(c *domain.Candidate, typ, label, u string) {
	if u == "" {
		return
	}
	switch strings.ToLower(typ) {
	case "twitter", "x":
		if c.Twitter == "" {
			c.Twitter = u
		}
		return
	case "telegram":
		if c.Telegram == "" {
			c.Telegram = u
		}
		return
	}
	if typ == "" && strings.EqualFold(label, "website") && c.Website == "" {
		c.Website = u
	}
}

// parseFloat parses the stringly-typed numbers some feeds return.
func parseFloat(s string) float64 {
	s = strings.TrimSpace(strings.NewReplacer("$", "", ",", "").Replace(s))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
