package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/tokensource"
)

// ErrInvalidConfig is returned by Start for a malformed request.
var ErrInvalidConfig = errors.New("invalid config")

// Run states derived from the stored config.
const (
	StateIdle          = "IDLE"
	StateActive        = "ACTIVE"
	StateHaltedByLimit = "HALTED_BY_LIMIT"
	StateHaltedByUser  = "HALTED_BY_USER"
)

// StartRequest is the operator's run configuration.
type StartRequest struct {
	Mode             domain.Mode       `json:"mode"`
	Launchpad        string            `json:"launchpad"`
	Agent            string            `json:"agent"`
	Chain            string            `json:"chain"`
	Source           string            `json:"source"`
	Wallet           string            `json:"wallet"`
	AgentAPIKey      string            `json:"agent_api_key,omitempty"`
	Tax              *domain.TaxConfig `json:"tax,omitempty"`
	MinVolume        float64           `json:"min_volume,omitempty"`
	TrendFilter      string            `json:"trend_filter,omitempty"`
	RequireRealImage *bool             `json:"require_real_image,omitempty"` // default true
	DelaySeconds     uint              `json:"delay_seconds"`
	MaxDeployments   uint              `json:"max_deployments"`
}

// Validate checks the request and fills defaults.
func (r *StartRequest) Validate() error {
	if r.Mode == "" {
		r.Mode = domain.ModeExternalTimer
	}
	if !r.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, r.Mode)
	}
	if r.Launchpad == "" {
		return fmt.Errorf("%w: launchpad is required", ErrInvalidConfig)
	}
	if r.Agent == "" {
		return fmt.Errorf("%w: agent is required", ErrInvalidConfig)
	}
	if r.Wallet == "" {
		return fmt.Errorf("%w: wallet is required", ErrInvalidConfig)
	}
	if r.MaxDeployments == 0 {
		return fmt.Errorf("%w: max_deployments must be at least 1", ErrInvalidConfig)
	}
	if r.MinVolume < 0 {
		return fmt.Errorf("%w: min_volume must not be negative", ErrInvalidConfig)
	}
	switch r.TrendFilter {
	case tokensource.TrendNone, tokensource.TrendVolume, tokensource.TrendGainers, tokensource.TrendNew:
	default:
		return fmt.Errorf("%w: unknown trend filter %q", ErrInvalidConfig, r.TrendFilter)
	}
	if r.Tax != nil {
		if err := r.Tax.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if r.Chain == "" {
		r.Chain = domain.ChainAny
	}
	if r.Source == "" {
		r.Source = tokensource.SelectorRotate
	}
	return nil
}

// Start replaces any prior run with a fresh one and clears the log.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (*domain.RunConfig, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	requireImage := true
	if req.RequireRealImage != nil {
		requireImage = *req.RequireRealImage
	}

	cfg := &domain.RunConfig{
		RunID:            uuid.NewString(),
		Running:          true,
		Mode:             req.Mode,
		Launchpad:        req.Launchpad,
		Agent:            req.Agent,
		Chain:            req.Chain,
		Source:           req.Source,
		Wallet:           req.Wallet,
		AgentAPIKey:      req.AgentAPIKey,
		Tax:              req.Tax,
		MinVolume:        req.MinVolume,
		TrendFilter:      req.TrendFilter,
		RequireRealImage: requireImage,
		DelaySeconds:     req.DelaySeconds,
		MaxDeployments:   req.MaxDeployments,
		StartedAt:        o.now(),
		LaunchedKeys:     []string{},
	}
	if o.validate != nil {
		if err := o.validate(cfg.Target()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	if err := o.store.PutConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	if err := o.store.ClearLogs(ctx); err != nil {
		return nil, fmt.Errorf("clear logs: %w", err)
	}
	msg := fmt.Sprintf("started: %s via %s, source %s, max %d, delay %ds, mode %s",
		cfg.Launchpad, cfg.Agent, cfg.Source, cfg.MaxDeployments, cfg.DelaySeconds, cfg.Mode)
	if err := o.appendLog(ctx, domain.LogInfo, msg); err != nil {
		return nil, err
	}
	return cfg.Redacted(), nil
}

// Stop flips running off. Stopping an absent or stopped run changes nothing.
func (o *Orchestrator) Stop(ctx context.Context) (*domain.RunConfig, error) {
	cfg, err := o.store.GetConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.Running {
		return cfg.Redacted(), nil
	}

	now := o.now()
	cfg.Running = false
	cfg.StoppedAt = &now
	if err := o.store.PutConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save config: %w", err)
	}
	msg := fmt.Sprintf("stopped by user after %d/%d deployments", cfg.TotalDeployed, cfg.MaxDeployments)
	if err := o.appendLog(ctx, domain.LogInfo, msg); err != nil {
		return nil, err
	}
	return cfg.Redacted(), nil
}

// Clear deletes all persisted run state.
func (o *Orchestrator) Clear(ctx context.Context) error {
	if err := o.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

// Status is the operator view of the run.
type Status struct {
	State  string            `json:"state"`
	Config *domain.RunConfig `json:"config"`
	Logs   []domain.LogEntry `json:"logs"`
}

// Status returns the redacted config and the log, newest first.
func (o *Orchestrator) Status(ctx context.Context) (*Status, error) {
	cfg, err := o.store.GetConfig(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logs, err := o.store.GetLogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}
	if logs == nil {
		logs = []domain.LogEntry{}
	}
	return &Status{
		State:  StateOf(cfg),
		Config: cfg.Redacted(),
		Logs:   logs,
	}, nil
}

// StateOf derives the state machine position from a config (nil is IDLE).
func StateOf(cfg *domain.RunConfig) string {
	switch {
	case cfg == nil:
		return StateIdle
	case cfg.Running:
		return StateActive
	case cfg.StoppedAt != nil && cfg.LimitReached():
		return StateHaltedByLimit
	case cfg.StoppedAt != nil:
		return StateHaltedByUser
	default:
		return StateIdle
	}
}
