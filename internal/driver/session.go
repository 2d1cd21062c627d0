package driver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage"
)

// Session defaults.
const (
	DefaultSessionBudget = 55 * time.Second
	DefaultSessionMargin = 2 * time.Second
	MinSessionPause      = time.Second
)

// Session end reasons.
const (
	ReasonNotRunning = "not running"
	ReasonMode       = "mode changed"
	ReasonMaxReached = "max reached"
	ReasonBudget     = "budget exhausted"
	ReasonCancelled  = "cancelled"
)

// SessionResult summarises one bounded session. Continue tells the invoker
// whether to trigger another session.
type SessionResult struct {
	Steps    int           `json:"steps"`
	Deployed int           `json:"deployed"`
	Reason   string        `json:"reason"`
	Continue bool          `json:"continue"`
	Elapsed  time.Duration `json:"elapsed_ns"`
}

// Session repeatedly steps the orchestrator within a wall-clock budget.
// It never re-invokes itself; the caller decides whether to start another.
type Session struct {
	stepper Stepper
	store   storage.RunStateStore
	budget  time.Duration
	margin  time.Duration
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
	logger  *log.Logger
}

// SessionOptions for creating Session.
type SessionOptions struct {
	Stepper Stepper
	Store   storage.RunStateStore
	Budget  time.Duration // 0 uses DefaultSessionBudget
	Margin  time.Duration // reserved at the end of the budget; 0 uses DefaultSessionMargin
	Now     func() time.Time
	Sleep   func(context.Context, time.Duration) error
	Logger  *log.Logger
}

// NewSession creates a new Session.
func NewSession(opts SessionOptions) *Session {
	s := &Session{
		stepper: opts.Stepper,
		store:   opts.Store,
		budget:  opts.Budget,
		margin:  opts.Margin,
		now:     opts.Now,
		sleep:   opts.Sleep,
		logger:  opts.Logger,
	}
	if s.budget <= 0 {
		s.budget = DefaultSessionBudget
	}
	if s.margin <= 0 {
		s.margin = DefaultSessionMargin
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.sleep == nil {
		s.sleep = sleepCtx
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Run executes one session. Store errors end the session and are returned
// together with the partial result.
func (s *Session) Run(ctx context.Context) (*SessionResult, error) {
	start := s.now()
	deadline := start.Add(s.budget)
	res := &SessionResult{}
	defer func() {
		res.Elapsed = s.now().Sub(start)
	}()

	for {
		cfg, err := s.store.GetConfig(ctx)
		if errors.Is(err, storage.ErrNotFound) {
			res.Reason = ReasonNotRunning
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("load config: %w", err)
		}
		if !cfg.Running {
			res.Reason = ReasonNotRunning
			return res, nil
		}
		if cfg.Mode != domain.ModeSelfReschedulingSession {
			res.Reason = ReasonMode
			return res, nil
		}

		step, err := s.stepper.Step(ctx)
		if err != nil {
			return res, err
		}
		res.Steps++
		if step.Deployed {
			res.Deployed++
		}
		switch step.Skipped {
		case orchestrator.SkipMaxReached:
			res.Reason = ReasonMaxReached
			return res, nil
		case orchestrator.SkipNotRunning:
			res.Reason = ReasonNotRunning
			return res, nil
		}
		if step.MaxDeployments > 0 && step.TotalDeployed >= step.MaxDeployments {
			res.Reason = ReasonMaxReached
			return res, nil
		}

		remaining := deadline.Sub(s.now()) - s.margin
		if remaining < MinSessionPause {
			res.Reason = ReasonBudget
			res.Continue = true
			return res, nil
		}

		pause := time.Duration(cfg.DelaySeconds) * time.Second
		if pause < MinSessionPause {
			pause = MinSessionPause
		}
		if pause > remaining {
			pause = remaining
		}
		if err := s.sleep(ctx, pause); err != nil {
			res.Reason = ReasonCancelled
			res.Continue = true
			return res, nil
		}
		if !s.now().Before(deadline.Add(-s.margin)) {
			res.Reason = ReasonBudget
			res.Continue = true
			return res, nil
		}
	}
}
