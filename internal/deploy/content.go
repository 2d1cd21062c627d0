package deploy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"token-launchpad/internal/domain"
)

// Content is an outbound post.
type Content struct {
	Title string
	Body  string
}

type field struct {
	key   string
	value string
}

// BuildContent encodes candidate and target into a launchpad post in the
// agent's format. Field order is fixed so the same inputs always produce
// the same body.
func BuildContent(lp LaunchpadVariant, format Format, c domain.Candidate, t domain.Target) (Content, error) {
	name := singleLine(c.Name)
	symbol := strings.ToUpper(singleLine(c.Symbol))
	if name == "" || symbol == "" {
		return Content{}, fmt.Errorf("candidate name and symbol are required")
	}
	if t.Wallet == "" {
		return Content{}, fmt.Errorf("wallet is required")
	}

	v := lp.Fields
	fields := []field{
		{v.Name, name},
		{v.Symbol, symbol},
		{v.Wallet, t.Wallet},
		{v.Description, singleLine(c.Description)},
		{v.Image, c.ImageURL},
		{v.Website, c.Website},
		{v.Twitter, c.Twitter},
		{v.Telegram, c.Telegram},
		{v.Chain, contentChain(c, t)},
	}

	var tax *domain.TaxConfig
	if t.Tax != nil && lp.SupportsTax {
		if err := t.Tax.Validate(); err != nil {
			return Content{}, fmt.Errorf("invalid tax: %w", err)
		}
		tax = t.Tax
	}

	var body string
	switch format {
	case FormatPlain:
		body = plainBody(lp, fields, tax)
	case FormatFencedJSON:
		b, err := fencedJSONBody(lp, fields, tax)
		if err != nil {
			return Content{}, err
		}
		body = b
	default:
		return Content{}, fmt.Errorf("unsupported format %s", format)
	}

	return Content{
		Title: fmt.Sprintf("Launching %s ($%s)", name, symbol),
		Body:  body,
	}, nil
}

func plainBody(lp LaunchpadVariant, fields []field, tax *domain.TaxConfig) string {
	var b strings.Builder
	b.WriteString(lp.Command)
	b.WriteByte('\n')
	for _, f := range fields {
		if f.key == "" || f.value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.key, f.value)
	}
	if tax != nil {
		fmt.Fprintf(&b, "%s: %d%%\n", lp.Fields.Tax, tax.RatePercent)
		fmt.Fprintf(&b, "%s:\n", lp.Fields.TaxSplit)
		for _, k := range sortedKeys(tax.Distribution) {
			fmt.Fprintf(&b, "  %s: %d\n", k, tax.Distribution[k])
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func fencedJSONBody(lp LaunchpadVariant, fields []field, tax *domain.TaxConfig) (string, error) {
	obj := make(map[string]interface{}, len(fields)+2)
	for _, f := range fields {
		if f.key == "" || f.value == "" {
			continue
		}
		obj[f.key] = f.value
	}
	if tax != nil {
		obj[lp.Fields.Tax] = tax.RatePercent
		obj[lp.Fields.TaxSplit] = tax.Distribution
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(obj); err != nil {
		return "", fmt.Errorf("encode content: %w", err)
	}
	return lp.Command + "\n```json\n" + strings.TrimRight(buf.String(), "\n") + "\n```", nil
}

// contentChain prefers the configured chain and never emits the wildcard.
func contentChain(c domain.Candidate, t domain.Target) string {
	if t.Chain != "" && t.Chain != domain.ChainAny {
		return t.Chain
	}
	if c.Chain != domain.ChainAny {
		return c.Chain
	}
	return ""
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
