package domain

import "fmt"

// Credentials are generated on a candidate's behalf during deployment.
// They are one-time visible and never persisted.
type Credentials struct {
	APIKey       string `json:"api_key"`
	AgentHandle  string `json:"agent_handle"`
	LinkedWallet string `json:"linked_wallet,omitempty"`
}

// DeploymentOutcome is the result of one deployment protocol attempt.
type DeploymentOutcome struct {
	Success     bool         `json:"success"`
	Degraded    bool         `json:"degraded,omitempty"` // posted, but launchpad trigger failed
	PostID      string       `json:"post_id,omitempty"`
	PostURL     string       `json:"post_url,omitempty"`
	Message     string       `json:"message"`
	Log         []string     `json:"log"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

// Logf formats one line onto the outcome's diagnostic trail.
func (o *DeploymentOutcome) Logf(format string, args ...any) {
	o.Log = append(o.Log, fmt.Sprintf(format, args...))
}
