package domain

import (
	"testing"
	"time"
)

func TestDedupKey(t *testing.T) {
	tests := []struct {
		symbol, name string
		expected     string
	}{
		{"ABC", "AlphaCoin", "abc_alphacoin"},
		{"pepe", "Pepe", "pepe_pepe"},
		{"", "NoSymbol", "_nosymbol"},
	}

	for _, tt := range tests {
		c := Candidate{Symbol: tt.symbol, Name: tt.name}
		if got := c.DedupKey(); got != tt.expected {
			t.Errorf("DedupKey(%q, %q) = %q, want %q", tt.symbol, tt.name, got, tt.expected)
		}
	}
}

func TestChainMatches(t *testing.T) {
	tests := []struct {
		configured, candidate string
		expected              bool
	}{
		{"", "solana", true},
		{ChainAny, "base", true},
		{ChainSolana, ChainSolana, true},
		{ChainSolana, ChainBase, false},
		{ChainBase, ChainAny, true},
	}

	for _, tt := range tests {
		if got := ChainMatches(tt.configured, tt.candidate); got != tt.expected {
			t.Errorf("ChainMatches(%q, %q) = %v, want %v", tt.configured, tt.candidate, got, tt.expected)
		}
	}
}

func TestRunConfig_AddKey(t *testing.T) {
	cfg := &RunConfig{}

	if !cfg.AddKey("abc_alphacoin") {
		t.Fatal("expected first AddKey to succeed")
	}
	if cfg.AddKey("abc_alphacoin") {
		t.Error("expected duplicate AddKey to be rejected")
	}
	if len(cfg.LaunchedKeys) != 1 {
		t.Errorf("expected 1 key, got %d", len(cfg.LaunchedKeys))
	}
	if !cfg.HasKey("abc_alphacoin") {
		t.Error("expected HasKey to find added key")
	}
}

func TestRunConfig_CloneIsDeep(t *testing.T) {
	now := time.Now()
	cfg := &RunConfig{
		LaunchedKeys: []string{"a_a"},
		LastRunAt:    &now,
		Tax:          &TaxConfig{RatePercent: 5, Distribution: map[string]int{"creator": 100}},
		AgentAPIKey:  "secret",
	}

	clone := cfg.Clone()
	clone.LaunchedKeys[0] = "changed"
	clone.Tax.Distribution["creator"] = 1
	later := now.Add(time.Hour)
	*clone.LastRunAt = later

	if cfg.LaunchedKeys[0] != "a_a" {
		t.Error("clone shares LaunchedKeys backing array")
	}
	if cfg.Tax.Distribution["creator"] != 100 {
		t.Error("clone shares tax distribution map")
	}
	if !cfg.LastRunAt.Equal(now) {
		t.Error("clone shares LastRunAt pointer")
	}

	if got := cfg.Redacted().AgentAPIKey; got != "***" {
		t.Errorf("expected redacted key, got %q", got)
	}
	if cfg.AgentAPIKey != "secret" {
		t.Error("Redacted mutated the original")
	}
}

func TestRunConfig_LimitReached(t *testing.T) {
	cfg := &RunConfig{MaxDeployments: 2, TotalDeployed: 1}
	if cfg.LimitReached() {
		t.Error("expected limit not reached at 1/2")
	}
	cfg.TotalDeployed = 2
	if !cfg.LimitReached() {
		t.Error("expected limit reached at 2/2")
	}
}

func TestTaxConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tax     TaxConfig
		wantErr bool
	}{
		{"valid", TaxConfig{RatePercent: 5, Distribution: map[string]int{"creator": 60, "burn": 40}}, false},
		{"sum below 100", TaxConfig{RatePercent: 5, Distribution: map[string]int{"creator": 60}}, true},
		{"empty distribution", TaxConfig{RatePercent: 5}, true},
		{"rate out of range", TaxConfig{RatePercent: 101, Distribution: map[string]int{"creator": 100}}, true},
		{"negative share", TaxConfig{RatePercent: 1, Distribution: map[string]int{"a": 110, "b": -10}}, true},
	}

	for _, tt := range tests {
		err := tt.tax.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: Validate() error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestModeIsValid(t *testing.T) {
	if !ModeExternalTimer.IsValid() || !ModeSelfReschedulingSession.IsValid() {
		t.Error("expected known modes to be valid")
	}
	if Mode("BROWSER").IsValid() {
		t.Error("expected unknown mode to be invalid")
	}
}

func TestDeploymentOutcome_Logf(t *testing.T) {
	var out DeploymentOutcome
	out.Logf("publish: posted %s", "p-1")
	out.Logf("trigger: %s accepted post %s", "clawnch", "p-1")
	out.Logf("%s", "100% literal")

	want := []string{"publish: posted p-1", "trigger: clawnch accepted post p-1", "100% literal"}
	if len(out.Log) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(out.Log), out.Log)
	}
	for i := range want {
		if out.Log[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], out.Log[i])
		}
	}
}
