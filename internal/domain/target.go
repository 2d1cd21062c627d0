package domain

import "fmt"

// Target selects the external protocol variant for a deployment.
type Target struct {
	Launchpad   string     `json:"launchpad"`
	Agent       string     `json:"agent"`
	Chain       string     `json:"chain"`
	Wallet      string     `json:"wallet"`
	AgentAPIKey string     `json:"agent_api_key,omitempty"`
	Tax         *TaxConfig `json:"tax,omitempty"`
}

// TaxConfig is the optional trading-tax block some launchpads accept.
// Distribution shares are percentages and must sum to 100.
type TaxConfig struct {
	RatePercent  int            `json:"rate_percent"`
	Distribution map[string]int `json:"distribution"`
}

// Clone returns a deep copy.
func (t TaxConfig) Clone() TaxConfig {
	out := TaxConfig{RatePercent: t.RatePercent}
	if t.Distribution != nil {
		out.Distribution = make(map[string]int, len(t.Distribution))
		for k, v := range t.Distribution {
			out.Distribution[k] = v
		}
	}
	return out
}

// Validate checks rate bounds and that the distribution sums to 100.
func (t TaxConfig) Validate() error {
	if t.RatePercent < 0 || t.RatePercent > 100 {
		return fmt.Errorf("tax rate %d out of range [0,100]", t.RatePercent)
	}
	if len(t.Distribution) == 0 {
		return fmt.Errorf("tax distribution is empty")
	}
	sum := 0
	for name, share := range t.Distribution {
		if share < 0 {
			return fmt.Errorf("tax share %q is negative", name)
		}
		sum += share
	}
	if sum != 100 {
		return fmt.Errorf("tax distribution sums to %d, want 100", sum)
	}
	return nil
}
