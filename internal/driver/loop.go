package driver

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/tokensource"
)

// stopPoll is how often a delay sleep re-checks the stop flag.
const stopPoll = 250 * time.Millisecond

// LoopConfig configures a client-driven run.
type LoopConfig struct {
	Target           domain.Target
	Source           string
	Filters          tokensource.Filters
	RequireRealImage bool
	Delay            time.Duration
	MaxDeployments   int
}

// LoopSummary is returned when a loop ends.
type LoopSummary struct {
	Attempts int
	Deployed int
	Keys     []string
	Reason   string
}

// Loop is the foreground driver: it calls the token source and deployer
// directly, keeps its dedup set in memory and stops cooperatively.
type Loop struct {
	source   orchestrator.TokenSource
	deployer orchestrator.Deployer
	onEvent  func(domain.LogEntry)
	now      func() time.Time
	stop     atomic.Bool
}

// LoopOptions for creating Loop.
type LoopOptions struct {
	Source   orchestrator.TokenSource
	Deployer orchestrator.Deployer
	OnEvent  func(domain.LogEntry) // receives every log line
	Now      func() time.Time
}

// NewLoop creates a new Loop.
func NewLoop(opts LoopOptions) *Loop {
	l := &Loop{
		source:   opts.Source,
		deployer: opts.Deployer,
		onEvent:  opts.OnEvent,
		now:      opts.Now,
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.onEvent == nil {
		l.onEvent = func(domain.LogEntry) {}
	}
	return l
}

// Stop requests the loop to end. It never interrupts an in-flight deployment.
func (l *Loop) Stop() {
	l.stop.Store(true)
}

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool {
	return l.stop.Load()
}

// Run loops until the ceiling is reached, Stop is called or ctx ends.
// A Loop is single use: once stopped it stays stopped.
func (l *Loop) Run(ctx context.Context, cfg LoopConfig) *LoopSummary {
	if cfg.MaxDeployments <= 0 {
		cfg.MaxDeployments = 1
	}

	state := &domain.RunConfig{
		Chain:            cfg.Target.Chain,
		RequireRealImage: cfg.RequireRealImage,
		LaunchedKeys:     []string{},
	}
	sum := &LoopSummary{}
	next := 0

	l.emit(domain.LogInfo, fmt.Sprintf("loop started: %s via %s, max %d", cfg.Target.Launchpad, cfg.Target.Agent, cfg.MaxDeployments))

	for {
		if reason := l.halt(ctx, sum, cfg); reason != "" {
			sum.Reason = reason
			break
		}

		batch := l.source.Fetch(ctx, cfg.Source, cfg.Filters, next)
		next = batch.NextSourceIndex
		if len(batch.Candidates) == 0 {
			l.emit(domain.LogSkip, "skip: no candidates from "+batch.SourceLabel)
		}

		attempted := false
		for _, c := range batch.Candidates {
			if reason := l.halt(ctx, sum, cfg); reason != "" {
				break
			}
			if ok, why := orchestrator.Eligible(state, c); !ok {
				if why == "no image" {
					l.emit(domain.LogSkip, fmt.Sprintf("skip $%s: no real image", c.Symbol))
				}
				continue
			}

			attempted = true
			sum.Attempts++
			l.emit(domain.LogInfo, fmt.Sprintf("deploying $%s (%s)", c.Symbol, c.Name))
			out := l.deployer.Deploy(ctx, c, cfg.Target)
			if out.Success {
				state.AddKey(c.DedupKey())
				sum.Deployed++
				l.emit(domain.LogSuccess, fmt.Sprintf("deployed $%s: %s", c.Symbol, out.Message))
			} else {
				l.emit(domain.LogError, fmt.Sprintf("failed $%s: %s", c.Symbol, out.Message))
			}

			if sum.Deployed < cfg.MaxDeployments {
				l.pause(ctx, cfg.Delay)
			}
		}

		if !attempted && len(batch.Candidates) > 0 {
			l.emit(domain.LogSkip, "skip: no eligible candidate in batch")
		}
		if !attempted {
			l.pause(ctx, max(cfg.Delay, stopPoll))
		}
	}

	sum.Keys = append([]string(nil), state.LaunchedKeys...)
	l.emit(domain.LogInfo, fmt.Sprintf("loop ended (%s): %d deployed in %d attempts", sum.Reason, sum.Deployed, sum.Attempts))
	return sum
}

func (l *Loop) halt(ctx context.Context, sum *LoopSummary, cfg LoopConfig) string {
	switch {
	case l.Stopped():
		return ReasonNotRunning
	case ctx.Err() != nil:
		return ReasonCancelled
	case sum.Deployed >= cfg.MaxDeployments:
		return ReasonMaxReached
	}
	return ""
}

// pause sleeps d in short slices so Stop takes effect between them.
func (l *Loop) pause(ctx context.Context, d time.Duration) {
	for d > 0 && !l.Stopped() {
		slice := stopPoll
		if d < slice {
			slice = d
		}
		if sleepCtx(ctx, slice) != nil {
			return
		}
		d -= slice
	}
}

func (l *Loop) emit(kind domain.LogKind, msg string) {
	l.onEvent(domain.NewLogEntry(l.now(), kind, msg))
}
