package driver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage"
)

// Timer defaults.
const (
	DefaultSchedule    = "@every 1m"
	DefaultTickTimeout = 55 * time.Second
)

// SkipOtherDriver is reported when the run is owned by the session driver.
const SkipOtherDriver = "driver not selected"

// cronParser accepts standard 5-field expressions, an optional seconds
// field and descriptors such as "@every 1m".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Timer fires one step per schedule tick while the run's mode is
// EXTERNAL_TIMER. Ticks never overlap within one process.
type Timer struct {
	cron     *cron.Cron
	schedule string
	stepper  Stepper
	store    storage.RunStateStore
	timeout  time.Duration
	logger   *log.Logger
	onTick   func(*orchestrator.StepResult, error, time.Duration)

	mu      sync.Mutex
	running bool
	ticks   int
	lastRun time.Time
}

// TimerOptions for creating Timer.
type TimerOptions struct {
	Schedule string        // cron expression; empty uses DefaultSchedule
	Stepper  Stepper
	Store    storage.RunStateStore
	Timeout  time.Duration // per-tick bound; 0 uses DefaultTickTimeout
	Logger   *log.Logger

	// OnTick observes every completed tick (metrics hook).
	OnTick func(res *orchestrator.StepResult, err error, elapsed time.Duration)
}

// NewTimer creates a new Timer. The schedule is validated here.
func NewTimer(opts TimerOptions) (*Timer, error) {
	t := &Timer{
		schedule: opts.Schedule,
		stepper:  opts.Stepper,
		store:    opts.Store,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		onTick:   opts.OnTick,
	}
	if t.schedule == "" {
		t.schedule = DefaultSchedule
	}
	if t.timeout <= 0 {
		t.timeout = DefaultTickTimeout
	}
	if t.logger == nil {
		t.logger = log.Default()
	}
	if _, err := cronParser.Parse(t.schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", t.schedule, err)
	}
	return t, nil
}

// Run schedules ticks until ctx is cancelled, then waits for an in-flight tick.
func (t *Timer) Run(ctx context.Context) error {
	t.cron = cron.New(cron.WithParser(cronParser))
	_, err := t.cron.AddFunc(t.schedule, func() {
		if _, err := t.Tick(ctx); err != nil {
			t.logger.Printf("tick failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule tick: %w", err)
	}

	t.logger.Printf("timer started (schedule: %s)", t.schedule)
	t.cron.Start()

	<-ctx.Done()
	<-t.cron.Stop().Done()
	t.logger.Println("timer stopped")
	return ctx.Err()
}

// Tick runs one guarded step. A tick that finds another in flight is skipped.
func (t *Timer) Tick(ctx context.Context) (*orchestrator.StepResult, error) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.logger.Println("step already running, skipping...")
		return nil, nil
	}
	t.running = true
	t.mu.Unlock()

	start := time.Now()
	defer func() {
		t.mu.Lock()
		t.running = false
		t.ticks++
		t.lastRun = time.Now()
		t.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	res, err := t.tick(ctx)
	if t.onTick != nil {
		t.onTick(res, err, time.Since(start))
	}
	return res, err
}

func (t *Timer) tick(ctx context.Context) (*orchestrator.StepResult, error) {
	cfg, err := t.store.GetConfig(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return &orchestrator.StepResult{Skipped: orchestrator.SkipNotRunning}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Running && cfg.Mode != domain.ModeExternalTimer {
		return &orchestrator.StepResult{
			Skipped:        SkipOtherDriver,
			TotalDeployed:  cfg.TotalDeployed,
			MaxDeployments: cfg.MaxDeployments,
		}, nil
	}

	res, err := t.stepper.Step(ctx)
	if err != nil {
		return nil, err
	}
	if res.Skipped == "" {
		t.logger.Printf("tick: deployed=%v total=%d/%d", res.Deployed, res.TotalDeployed, res.MaxDeployments)
	}
	return res, nil
}

// TimerStats is a snapshot of timer activity.
type TimerStats struct {
	Schedule string    `json:"schedule"`
	Ticks    int       `json:"ticks"`
	Running  bool      `json:"running"`
	LastRun  time.Time `json:"last_run,omitempty"`
}

// Stats returns a snapshot of timer activity.
func (t *Timer) Stats() TimerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerStats{
		Schedule: t.schedule,
		Ticks:    t.ticks,
		Running:  t.running,
		LastRun:  t.lastRun,
	}
}
