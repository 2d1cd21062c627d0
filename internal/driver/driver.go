// Package driver provides the execution contexts that invoke the
// orchestrator step: a cron timer, a bounded self-rescheduling session and a
// client-driven foreground loop.
package driver

import (
	"context"
	"time"

	"token-launchpad/internal/orchestrator"
)

// Stepper runs one orchestrator step.
type Stepper interface {
	Step(ctx context.Context) (*orchestrator.StepResult, error)
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
