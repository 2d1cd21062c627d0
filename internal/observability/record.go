package observability

import (
	"context"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
)

// RecordStep records the result of one orchestrator step.
func RecordStep(res *orchestrator.StepResult, err error) {
	switch {
	case err != nil:
		DefaultMetrics.StepsTotal.WithLabelValues("error").Inc()
		return
	case res == nil:
		DefaultMetrics.StepsTotal.WithLabelValues("overlap").Inc()
		return
	case res.Skipped != "":
		DefaultMetrics.StepsTotal.WithLabelValues("skipped").Inc()
		DefaultMetrics.StepSkips.WithLabelValues(res.Skipped).Inc()
	case res.Deployed:
		DefaultMetrics.StepsTotal.WithLabelValues("deployed").Inc()
	default:
		DefaultMetrics.StepsTotal.WithLabelValues("failed").Inc()
	}
	DefaultMetrics.LastSuccessfulStep.Set(float64(time.Now().Unix()))
	DefaultMetrics.RunTotalDeployed.Set(float64(res.TotalDeployed))
}

// RecordDeployment records one deployment attempt.
func RecordDeployment(t domain.Target, out *domain.DeploymentOutcome, seconds float64) {
	status := "error"
	switch {
	case out.Success && out.Degraded:
		status = "degraded"
	case out.Success:
		status = "success"
	}
	DefaultMetrics.DeploymentsTotal.WithLabelValues(t.Launchpad, t.Agent, status).Inc()
	DefaultMetrics.DeploymentDuration.WithLabelValues(t.Launchpad).Observe(seconds)
	if out.Success {
		DefaultMetrics.LastSuccessfulDeployment.Set(float64(time.Now().Unix()))
	}
}

// RecordRunState updates the run gauges from a stored config.
func RecordRunState(cfg *domain.RunConfig) {
	if cfg == nil {
		DefaultMetrics.RunActive.Set(0)
		DefaultMetrics.RunTotalDeployed.Set(0)
		return
	}
	active := 0.0
	if cfg.Running {
		active = 1
	}
	DefaultMetrics.RunActive.Set(active)
	DefaultMetrics.RunTotalDeployed.Set(float64(cfg.TotalDeployed))
}

// RecordLogEntry counts one run log entry.
func RecordLogEntry(e domain.LogEntry) {
	DefaultMetrics.LogEntries.WithLabelValues(string(e.Kind)).Inc()
}

// RecordSourceFetch records one provider fetch.
func RecordSourceFetch(source string, n int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DefaultMetrics.SourceFetches.WithLabelValues(source, status).Inc()
	DefaultMetrics.SourceCandidates.WithLabelValues(source).Observe(float64(n))
}

// RecordTick records one timer tick.
func RecordTick(res *orchestrator.StepResult, err error, elapsed time.Duration) {
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case res == nil:
		status = "overlap"
	case res.Skipped != "":
		status = "skipped"
	}
	DefaultMetrics.TimerTicks.WithLabelValues(status).Inc()
	DefaultMetrics.TickDuration.Observe(elapsed.Seconds())
	RecordStep(res, err)
}

// RecordSession records a finished session.
func RecordSession(reason string, steps int, elapsed time.Duration) {
	DefaultMetrics.SessionsTotal.WithLabelValues(reason).Inc()
	DefaultMetrics.SessionSteps.Observe(float64(steps))
	DefaultMetrics.SessionDuration.Observe(elapsed.Seconds())
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Deployer is the deployment contract being measured.
type Deployer interface {
	Deploy(ctx context.Context, c domain.Candidate, t domain.Target) *domain.DeploymentOutcome
}

type instrumentedDeployer struct {
	next Deployer
}

// InstrumentDeployer records attempt counts and durations around d.
func InstrumentDeployer(d Deployer) Deployer {
	return instrumentedDeployer{next: d}
}

func (d instrumentedDeployer) Deploy(ctx context.Context, c domain.Candidate, t domain.Target) *domain.DeploymentOutcome {
	start := time.Now()
	out := d.next.Deploy(ctx, c, t)
	RecordDeployment(t, out, time.Since(start).Seconds())
	return out
}
