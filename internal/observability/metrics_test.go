package observability

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/orchestrator"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/storage/memory"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.GetCounter().GetValue()
	case out.Gauge != nil:
		return out.GetGauge().GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestRecordStep(t *testing.T) {
	before := value(t, DefaultMetrics.StepSkips.WithLabelValues(orchestrator.SkipNoEligible))

	RecordStep(&orchestrator.StepResult{Skipped: orchestrator.SkipNoEligible, TotalDeployed: 3}, nil)

	assert.Equal(t, before+1, value(t, DefaultMetrics.StepSkips.WithLabelValues(orchestrator.SkipNoEligible)))
	assert.Equal(t, 3.0, value(t, DefaultMetrics.RunTotalDeployed))
}

func TestRecordDeployment(t *testing.T) {
	target := domain.Target{Launchpad: "kibu", Agent: "moltx"}
	degraded := DefaultMetrics.DeploymentsTotal.WithLabelValues("kibu", "moltx", "degraded")
	before := value(t, degraded)

	RecordDeployment(target, &domain.DeploymentOutcome{Success: true, Degraded: true}, 1.5)

	assert.Equal(t, before+1, value(t, degraded))
}

func TestRecordSourceFetch(t *testing.T) {
	errs := DefaultMetrics.SourceFetches.WithLabelValues("static-test", "error")
	before := value(t, errs)

	RecordSourceFetch("static-test", 0, assert.AnError)

	assert.Equal(t, before+1, value(t, errs))
}

func TestInstrumentedStore(t *testing.T) {
	ctx := context.Background()
	store := InstrumentStore(memory.NewRunStateStore(0), "memory-test")

	_, err := store.GetConfig(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0.0, value(t, DefaultMetrics.DBQueryErrors.WithLabelValues("memory-test", "get_config")),
		"not found is not a query error")

	require.NoError(t, store.PutConfig(ctx, &domain.RunConfig{RunID: "r1", Running: true, TotalDeployed: 2}))
	assert.Equal(t, 1.0, value(t, DefaultMetrics.RunActive))

	require.NoError(t, store.AppendLog(ctx, domain.NewLogEntry(time.Now(), domain.LogInfo, "hello")))
	logs, err := store.GetLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0.0, value(t, DefaultMetrics.RunActive))
}
