// Package orchestrator runs the auto-launch state machine.
// One Step fetches a candidate batch, picks the first eligible candidate,
// makes exactly one deployment attempt and folds the outcome into run state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/tokensource"
)

// Skip reasons reported by Step.
const (
	SkipNotRunning   = "not running"
	SkipMaxReached   = "max reached"
	SkipNoCandidates = "no candidates"
	SkipNoEligible   = "no eligible candidate"
)

// TokenSource supplies candidate batches.
type TokenSource interface {
	Fetch(ctx context.Context, selector string, filters tokensource.Filters, nextIndex int) tokensource.Result
}

// Deployer runs the deployment protocol for one candidate.
type Deployer interface {
	Deploy(ctx context.Context, c domain.Candidate, t domain.Target) *domain.DeploymentOutcome
}

// Notifier surfaces one-time credentials and outcomes to an operator.
type Notifier interface {
	Notify(ctx context.Context, c domain.Candidate, out *domain.DeploymentOutcome) error
}

// StepResult summarises one Step invocation.
type StepResult struct {
	Skipped        string            `json:"skipped,omitempty"`
	Deployed       bool              `json:"deployed"`
	Attempted      bool              `json:"attempted"`
	TotalDeployed  uint              `json:"total_deployed"`
	MaxDeployments uint              `json:"max_deployments"`
	Candidate      *domain.Candidate `json:"candidate,omitempty"`
	Message        string            `json:"message,omitempty"`
	Dropped        bool              `json:"dropped,omitempty"` // run cleared or replaced mid-attempt

	// Outcome of the attempt, if any. Not serialised: it may carry credentials.
	Outcome *domain.DeploymentOutcome `json:"-"`
}

// Orchestrator drives run state through the store. It keeps no in-memory
// copy of the run config across calls.
type Orchestrator struct {
	store    storage.RunStateStore
	source   TokenSource
	deployer Deployer
	notifier Notifier
	validate func(domain.Target) error
	onLog    func(domain.LogEntry)
	now      func() time.Time
	logger   *log.Logger
}

// Options for creating Orchestrator.
type Options struct {
	Store    storage.RunStateStore
	Source   TokenSource
	Deployer Deployer
	Notifier Notifier // optional

	// ValidateTarget checks launchpad/agent identifiers on Start (optional).
	ValidateTarget func(domain.Target) error
	// OnLog observes every run log entry after it is stored (optional).
	OnLog func(domain.LogEntry)

	Now    func() time.Time
	Logger *log.Logger
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		store:    opts.Store,
		source:   opts.Source,
		deployer: opts.Deployer,
		notifier: opts.Notifier,
		validate: opts.ValidateTarget,
		onLog:    opts.OnLog,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	return o
}

// Step performs one bounded invocation: at most one deployment attempt.
// Only store errors are returned; everything else is recorded in the run log.
func (o *Orchestrator) Step(ctx context.Context) (*StepResult, error) {
	cfg, err := o.store.GetConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return &StepResult{Skipped: SkipNotRunning}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.Running {
		if cfg.LimitReached() {
			return skipped(cfg, SkipMaxReached), nil
		}
		return skipped(cfg, SkipNotRunning), nil
	}

	// Auto-halt if the ceiling was reached without halting (concurrent step).
	if cfg.LimitReached() {
		now := o.now()
		cfg.Running = false
		cfg.StoppedAt = &now
		cfg.LastRunAt = &now
		if err := o.store.PutConfig(ctx, cfg); err != nil {
			return nil, fmt.Errorf("save config: %w", err)
		}
		msg := fmt.Sprintf("max reached: %d/%d deployed, stopping", cfg.TotalDeployed, cfg.MaxDeployments)
		if err := o.appendLog(ctx, domain.LogInfo, msg); err != nil {
			return nil, err
		}
		return skipped(cfg, SkipMaxReached), nil
	}

	filters := tokensource.Filters{
		MinVolume: cfg.MinVolume,
		Trend:     cfg.TrendFilter,
		Chain:     cfg.Chain,
	}
	batch := o.source.Fetch(ctx, cfg.Source, filters, cfg.NextSourceIndex)

	if len(batch.Candidates) == 0 {
		latest, applied, err := o.commit(ctx, cfg.RunID, func(c *domain.RunConfig) {
			c.NextSourceIndex = batch.NextSourceIndex
		})
		if err != nil {
			return nil, err
		}
		if !applied {
			return skipped(latest, SkipNoCandidates), nil
		}
		msg := "skip: no candidates"
		if batch.SourceLabel != "" {
			msg += " from " + batch.SourceLabel
		}
		if batch.Err != nil {
			msg += " (" + batch.Err.Error() + ")"
		}
		if err := o.appendLog(ctx, domain.LogSkip, msg); err != nil {
			return nil, err
		}
		return skipped(latest, SkipNoCandidates), nil
	}

	pick, reasons := selectCandidate(cfg, batch.Candidates)
	if pick == nil {
		latest, applied, err := o.commit(ctx, cfg.RunID, func(c *domain.RunConfig) {
			c.NextSourceIndex = batch.NextSourceIndex
		})
		if err != nil {
			return nil, err
		}
		if !applied {
			return skipped(latest, SkipNoEligible), nil
		}
		msg := fmt.Sprintf("skip: no eligible candidate among %d from %s (%s)",
			len(batch.Candidates), batch.SourceLabel, reasons)
		if err := o.appendLog(ctx, domain.LogSkip, msg); err != nil {
			return nil, err
		}
		return skipped(latest, SkipNoEligible), nil
	}

	o.logger.Printf("deploying %s ($%s) from %s", pick.Name, pick.Symbol, pick.SourceLabel)
	outcome := o.deployer.Deploy(ctx, *pick, cfg.Target())

	// Re-read: the deployment call is a suspension point.
	key := pick.DedupKey()
	halted := false
	latest, applied, err := o.commit(ctx, cfg.RunID, func(c *domain.RunConfig) {
		c.NextSourceIndex = batch.NextSourceIndex
		if outcome.Success && c.AddKey(key) {
			c.TotalDeployed++
		}
		if c.Running && c.LimitReached() {
			now := o.now()
			c.Running = false
			c.StoppedAt = &now
			halted = true
		}
	})
	if err != nil {
		return nil, err
	}

	result := skipped(latest, "")
	result.Attempted = true
	result.Deployed = outcome.Success
	result.Candidate = pick
	result.Message = outcome.Message
	result.Outcome = outcome
	result.Dropped = !applied

	kind := domain.LogSuccess
	msg := fmt.Sprintf("deployed $%s (%s): %s", pick.Symbol, pick.Name, outcome.Message)
	if !outcome.Success {
		kind = domain.LogError
		msg = fmt.Sprintf("failed $%s (%s): %s", pick.Symbol, pick.Name, outcome.Message)
	}
	if applied {
		if err := o.appendLog(ctx, kind, msg); err != nil {
			return nil, err
		}
	} else {
		// The run log belongs to whichever run is current now.
		o.logger.Printf("run %s gone, not logged: %s", cfg.RunID, msg)
	}
	if halted {
		msg := fmt.Sprintf("max reached: %d/%d deployed, stopping", latest.TotalDeployed, latest.MaxDeployments)
		if err := o.appendLog(ctx, domain.LogInfo, msg); err != nil {
			return nil, err
		}
	}

	if o.notifier != nil && (outcome.Success || outcome.Credentials != nil) {
		if err := o.notifier.Notify(ctx, *pick, outcome); err != nil {
			o.logger.Printf("notify failed: %v", err)
		}
	}
	return result, nil
}

// commit re-reads the config and applies this step's deltas plus lastRunAt.
// If the run was cleared or replaced meanwhile, nothing is written, applied
// is false and the current config (possibly nil) is returned. Callers must
// then leave the run log alone too.
func (o *Orchestrator) commit(ctx context.Context, runID string, apply func(*domain.RunConfig)) (cfg *domain.RunConfig, applied bool, err error) {
	cfg, err = o.store.GetConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		o.logger.Printf("run %s cleared during step, result dropped", runID)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reload config: %w", err)
	}
	if cfg.RunID != runID {
		o.logger.Printf("run %s replaced by %s during step, result dropped", runID, cfg.RunID)
		return cfg, false, nil
	}

	apply(cfg)
	now := o.now()
	cfg.LastRunAt = &now
	if err := o.store.PutConfig(ctx, cfg); err != nil {
		return nil, false, fmt.Errorf("save config: %w", err)
	}
	return cfg, true, nil
}

func (o *Orchestrator) appendLog(ctx context.Context, kind domain.LogKind, msg string) error {
	entry := domain.NewLogEntry(o.now(), kind, msg)
	if err := o.store.AppendLog(ctx, entry); err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	if o.onLog != nil {
		o.onLog(entry)
	}
	return nil
}

func skipped(cfg *domain.RunConfig, reason string) *StepResult {
	r := &StepResult{Skipped: reason}
	if cfg != nil {
		r.TotalDeployed = cfg.TotalDeployed
		r.MaxDeployments = cfg.MaxDeployments
	}
	return r
}
