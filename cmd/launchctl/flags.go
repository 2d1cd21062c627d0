package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"token-launchpad/internal/app"
	"token-launchpad/internal/domain"
	"token-launchpad/internal/tokensource"
)

func addTargetFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("launchpad", "", "launchpad variant (required)")
	f.String("agent", "", "social agent variant (required)")
	f.String("wallet", "", "creator wallet address (required)")
	f.String("chain", domain.ChainAny, "target chain")
	f.String("agent-api-key", "", "use this agent key instead of registering a fresh identity")
	f.Int("tax-rate", -1, "trading tax percent (launchpads that support it)")
	f.String("tax-split", "", "tax distribution, e.g. creator=60,treasury=40")
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("source", tokensource.SelectorRotate, "token source name or 'rotate'")
	f.Float64("min-volume", 0, "minimum 24h volume")
	f.String("filter", tokensource.TrendNone, "trend filter: volume, gainers, new")
}

func targetFromFlags(cmd *cobra.Command) (domain.Target, error) {
	f := cmd.Flags()
	t := domain.Target{}
	t.Launchpad, _ = f.GetString("launchpad")
	t.Agent, _ = f.GetString("agent")
	t.Wallet, _ = f.GetString("wallet")
	t.Chain, _ = f.GetString("chain")
	t.AgentAPIKey, _ = f.GetString("agent-api-key")

	tax, err := taxFromFlags(cmd)
	if err != nil {
		return t, err
	}
	t.Tax = tax
	return t, nil
}

func taxFromFlags(cmd *cobra.Command) (*domain.TaxConfig, error) {
	rate, _ := cmd.Flags().GetInt("tax-rate")
	split, _ := cmd.Flags().GetString("tax-split")
	if rate < 0 && split == "" {
		return nil, nil
	}
	if rate < 0 || split == "" {
		return nil, fmt.Errorf("%w: --tax-rate and --tax-split go together", errConfig)
	}

	dist, err := parseSplit(split)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	tax := &domain.TaxConfig{RatePercent: rate, Distribution: dist}
	if err := tax.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errConfig, err)
	}
	return tax, nil
}

// parseSplit parses "name=share,name=share".
func parseSplit(s string) (map[string]int, error) {
	out := make(map[string]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, share, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("tax split entry %q is not name=share", part)
		}
		n, err := strconv.Atoi(strings.TrimSpace(share))
		if err != nil {
			return nil, fmt.Errorf("tax split entry %q: %v", part, err)
		}
		out[strings.TrimSpace(name)] = n
	}
	return out, nil
}

func filtersFromFlags(cmd *cobra.Command) (string, tokensource.Filters) {
	f := cmd.Flags()
	source, _ := f.GetString("source")
	minVolume, _ := f.GetFloat64("min-volume")
	trend, _ := f.GetString("filter")
	chain, _ := f.GetString("chain")
	return source, tokensource.Filters{MinVolume: minVolume, Trend: trend, Chain: chain}
}

// requiredTarget reads the target flags for commands that deploy directly,
// without a run config to validate them.
func requiredTarget(cmd *cobra.Command, rt *runtime) (domain.Target, error) {
	t, err := targetFromFlags(cmd)
	if err != nil {
		return t, err
	}
	if t.Launchpad == "" || t.Agent == "" || t.Wallet == "" {
		return t, fmt.Errorf("%w: --launchpad, --agent and --wallet are required", errConfig)
	}
	if err := app.ValidateTarget(rt.registry)(t); err != nil {
		return t, fmt.Errorf("%w: %v", errConfig, err)
	}
	return t, nil
}
