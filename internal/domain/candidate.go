package domain

import "strings"

// Candidate represents a token description fetched from a market-data feed.
// Candidates are ephemeral: produced by a token source, consumed by one step.
type Candidate struct {
	Name         string  `json:"name"`
	Symbol       string  `json:"symbol"`
	Address      string  `json:"address,omitempty"` // token or pool address on its chain
	ImageURL     string  `json:"image_url,omitempty"`
	HasRealImage bool    `json:"has_real_image"` // set by the source's image predicate
	Website      string  `json:"website,omitempty"`
	Twitter      string  `json:"twitter,omitempty"`
	Telegram     string  `json:"telegram,omitempty"`
	Description  string  `json:"description,omitempty"`
	Volume24h    float64 `json:"volume_24h,omitempty"`
	PriceChange  float64 `json:"price_change_24h,omitempty"` // percent
	Chain        string  `json:"chain"`
	SourceLabel  string  `json:"source_label"` // provenance, e.g. "dexscreener-boosts"
}

// DedupKey returns the uniqueness identity used to decide "already deployed".
// Formula: lowercase(symbol + "_" + name)
func (c Candidate) DedupKey() string {
	return DedupKey(c.Symbol, c.Name)
}

// DedupKey computes the dedup key for a symbol/name pair.
func DedupKey(symbol, name string) string {
	return strings.ToLower(symbol + "_" + name)
}
