package domain

import "time"

// Mode selects which driver owns ticking for an active run.
type Mode string

const (
	ModeExternalTimer           Mode = "EXTERNAL_TIMER"
	ModeSelfReschedulingSession Mode = "SELF_RESCHEDULING_SESSION"
)

// String returns the string representation of Mode.
func (m Mode) String() string {
	return string(m)
}

// IsValid checks if the mode is a valid value.
func (m Mode) IsValid() bool {
	return m == ModeExternalTimer || m == ModeSelfReschedulingSession
}

// RunConfig is the singleton auto-launch run record.
// Corresponds to the "config" record of the run state store.
type RunConfig struct {
	RunID   string `json:"run_id"`
	Running bool   `json:"running"`
	Mode    Mode   `json:"mode"`

	// Target selection
	Launchpad   string     `json:"launchpad"`
	Agent       string     `json:"agent"`
	Chain       string     `json:"chain"`
	Source      string     `json:"source"`
	Wallet      string     `json:"wallet"`
	AgentAPIKey string     `json:"agent_api_key,omitempty"` // user supplied, never generated
	Tax         *TaxConfig `json:"tax,omitempty"`

	// Source filters
	MinVolume        float64 `json:"min_volume,omitempty"`
	TrendFilter      string  `json:"trend_filter,omitempty"`
	RequireRealImage bool    `json:"require_real_image"`
	NextSourceIndex  int     `json:"next_source_index"`

	// Pacing and ceiling
	DelaySeconds   uint `json:"delay_seconds"`
	MaxDeployments uint `json:"max_deployments"`
	TotalDeployed  uint `json:"total_deployed"`

	StartedAt time.Time  `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LaunchedKeys is the append-only dedup set, kept as a slice for stable JSON.
	LaunchedKeys []string `json:"launched_keys"`
}

// HasKey reports whether key was already deployed in this run.
func (c *RunConfig) HasKey(key string) bool {
	for _, k := range c.LaunchedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// AddKey appends key to the dedup set. Returns false if it was already present.
func (c *RunConfig) AddKey(key string) bool {
	if c.HasKey(key) {
		return false
	}
	c.LaunchedKeys = append(c.LaunchedKeys, key)
	return true
}

// LimitReached reports whether the deployment ceiling has been hit.
func (c *RunConfig) LimitReached() bool {
	return c.TotalDeployed >= c.MaxDeployments
}

// Target returns the deployment target described by this config.
func (c *RunConfig) Target() Target {
	return Target{
		Launchpad:   c.Launchpad,
		Agent:       c.Agent,
		Chain:       c.Chain,
		Wallet:      c.Wallet,
		AgentAPIKey: c.AgentAPIKey,
		Tax:         c.Tax,
	}
}

// Clone returns a deep copy.
func (c *RunConfig) Clone() *RunConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.LaunchedKeys = append([]string(nil), c.LaunchedKeys...)
	if c.StoppedAt != nil {
		t := *c.StoppedAt
		out.StoppedAt = &t
	}
	if c.LastRunAt != nil {
		t := *c.LastRunAt
		out.LastRunAt = &t
	}
	if c.Tax != nil {
		tax := c.Tax.Clone()
		out.Tax = &tax
	}
	return &out
}

// Redacted returns a copy safe for status output.
func (c *RunConfig) Redacted() *RunConfig {
	out := c.Clone()
	if out != nil && out.AgentAPIKey != "" {
		out.AgentAPIKey = "***"
	}
	return out
}
