package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flamecast/pkg/observability"
)

func TestMetricsRecordEvents(t *testing.T) {
	ctx := context.Background()
	m := New()

	m.OnIteration(ctx, true, 0.1, 2.5, 40)
	m.OnIteration(ctx, false, 0.1, 2.0, 41)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.IterationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcceptedNeighborsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CurrentCost))

	m.OnSolveComplete(ctx, 2, 1.5, time.Second, nil)
	m.OnSolveComplete(ctx, 0, 0, 0, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolvesTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SolvesTotal.WithLabelValues("error")))

	m.OnCacheHit(ctx, "solve")
	m.OnCacheMiss(ctx, "solve")
	m.OnCacheMiss(ctx, "solve")
	m.OnCacheSet(ctx, "solve", 512)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("solve", "miss")))
	assert.Equal(t, 512.0, testutil.ToFloat64(m.CacheWrittenBytesTotal))

	m.OnResponse(ctx, "POST", "/v1/solve", 200, 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/solve", "200")))
}

func TestInstall(t *testing.T) {
	defer observability.Reset()
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Install(reg))
	assert.Same(t, m, observability.Solve())
	assert.Error(t, New().Install(reg), "duplicate registration")
}
