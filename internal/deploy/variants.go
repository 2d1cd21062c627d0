package deploy

import (
	"fmt"
	"sort"
)

// Format is the post body encoding an agent platform tolerates.
type Format int

const (
	// FormatPlain is command-line style "key: value" lines.
	FormatPlain Format = iota
	// FormatFencedJSON wraps the fields in a fenced json block, for
	// renderers that would mangle plain line breaks.
	FormatFencedJSON
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatFencedJSON:
		return "fenced-json"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// AgentVariant describes one posting-agent platform.
type AgentVariant struct {
	Name          string
	BaseURL       string
	RegisterPath  string // empty: platform has no self-registration
	PostPath      string
	ChallengePath string
	VerifyPath    string
	PostURLFormat string // fmt pattern taking the post id

	RequiresUserKey    bool
	RequiresWalletLink bool
	Format             Format

	// Community is the board/submolt launch posts go to, sent as CommunityField.
	Community      string
	CommunityField string
}

// FieldVocabulary is a launchpad's recognised keyword set.
type FieldVocabulary struct {
	Name        string
	Symbol      string
	Wallet      string
	Description string
	Image       string
	Website     string
	Twitter     string
	Telegram    string
	Chain       string
	Tax         string
	TaxSplit    string
}

// LaunchpadVariant describes one launchpad indexer.
type LaunchpadVariant struct {
	Name        string
	Command     string // first line of every post, e.g. "!clawnch"
	Fields      FieldVocabulary
	TriggerURL  string // empty: launchpad polls its own feed
	SupportsTax bool
}

// DefaultAgents returns the built-in agent platforms.
func DefaultAgents() map[string]AgentVariant {
	return map[string]AgentVariant{
		"moltbook": {
			Name:           "moltbook",
			BaseURL:        "https://www.moltbook.com/api/v1",
			RegisterPath:   "/agents/register",
			PostPath:       "/posts",
			PostURLFormat:  "https://www.moltbook.com/post/%s",
			Format:         FormatPlain,
			Community:      "clawnch",
			CommunityField: "submolt",
		},
		"moltx": {
			Name:               "moltx",
			BaseURL:            "https://moltx.io/v1",
			RegisterPath:       "/agents/register",
			PostPath:           "/posts",
			ChallengePath:      "/agents/me/wallet/challenge",
			VerifyPath:         "/agents/me/wallet/verify",
			PostURLFormat:      "https://moltx.io/post/%s",
			RequiresWalletLink: true,
			Format:             FormatFencedJSON,
		},
		"4claw": {
			Name:            "4claw",
			BaseURL:         "https://www.4claw.org/api/v1",
			PostPath:        "/boards/crypto/threads",
			PostURLFormat:   "https://www.4claw.org/b/crypto/%s",
			RequiresUserKey: true,
			Format:          FormatPlain,
			Community:       "crypto",
			CommunityField:  "board",
		},
	}
}

// DefaultLaunchpads returns the built-in launchpads.
func DefaultLaunchpads() map[string]LaunchpadVariant {
	return map[string]LaunchpadVariant{
		"clawnch": {
			Name:    "clawnch",
			Command: "!clawnch",
			Fields: FieldVocabulary{
				Name:        "name",
				Symbol:      "symbol",
				Wallet:      "wallet",
				Description: "description",
				Image:       "image",
				Website:     "website",
				Twitter:     "twitter",
				Telegram:    "telegram",
				Chain:       "chain",
			},
			TriggerURL: "https://clawn.ch/api/launch",
		},
		"kibu": {
			Name:    "kibu",
			Command: "!kibu",
			Fields: FieldVocabulary{
				Name:        "Name",
				Symbol:      "Ticker",
				Wallet:      "Admin",
				Description: "Description",
				Image:       "Image",
				Website:     "Website",
				Twitter:     "X",
				Telegram:    "Telegram",
				Chain:       "Chain",
				Tax:         "Tax",
				TaxSplit:    "Distribution",
			},
			SupportsTax: true,
		},
		"molaunch": {
			Name:    "molaunch",
			Command: "!molaunch",
			Fields: FieldVocabulary{
				Name:        "token_name",
				Symbol:      "ticker",
				Wallet:      "creator_wallet",
				Description: "about",
				Image:       "logo",
				Website:     "site",
				Twitter:     "x",
				Telegram:    "tg",
			},
		},
	}
}

// Registry resolves agent and launchpad identifiers.
type Registry struct {
	agents     map[string]AgentVariant
	launchpads map[string]LaunchpadVariant
}

// NewRegistry creates a registry; nil maps use the built-in tables.
func NewRegistry(agents map[string]AgentVariant, launchpads map[string]LaunchpadVariant) *Registry {
	if agents == nil {
		agents = DefaultAgents()
	}
	if launchpads == nil {
		launchpads = DefaultLaunchpads()
	}
	return &Registry{agents: agents, launchpads: launchpads}
}

// Agent looks up an agent variant by name.
func (r *Registry) Agent(name string) (AgentVariant, error) {
	a, ok := r.agents[name]
	if !ok {
		return AgentVariant{}, fmt.Errorf("unknown agent %q", name)
	}
	return a, nil
}

// Launchpad looks up a launchpad variant by name.
func (r *Registry) Launchpad(name string) (LaunchpadVariant, error) {
	lp, ok := r.launchpads[name]
	if !ok {
		return LaunchpadVariant{}, fmt.Errorf("unknown launchpad %q", name)
	}
	return lp, nil
}

// AgentNames returns sorted agent names.
func (r *Registry) AgentNames() []string {
	names := make([]string, 0, len(r.agents))
	for n := range r.agents {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LaunchpadNames returns sorted launchpad names.
func (r *Registry) LaunchpadNames() []string {
	names := make([]string, 0, len(r.launchpads))
	for n := range r.launchpads {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
