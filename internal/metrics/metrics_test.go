package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelsec/scanflow/internal/metrics"
	"github.com/kestrelsec/scanflow/internal/store"
	"github.com/kestrelsec/scanflow/pkg/api"
)

func TestMetricsEmptyStore(t *testing.T) {
	agg := metrics.NewAggregator(store.New(nil))

	m := agg.Metrics()
	assert.Equal(t, 0, m.TotalScans)
	assert.Equal(t, 0, m.OpenIssues)
	assert.Zero(t, m.SuccessRate)
}

func TestMetricsMixedOutcomes(t *testing.T) {
	s := store.New(nil)
	agg := metrics.NewAggregator(s)

	first := s.Create("a", api.MethodNormal)
	second := s.Create("b", api.MethodNormal)
	third := s.Create("c", api.MethodNormal)

	s.Complete(first.ID, &api.ScanResults{
		Statistics: api.Statistics{TotalIssues: 4},
	})
	s.Complete(second.ID, &api.ScanResults{
		Statistics: api.Statistics{TotalIssues: 3},
	})
	s.Fail(third.ID, api.CodeExecutionError, "boom")

	m := agg.Metrics()
	assert.Equal(t, 3, m.TotalScans)
	assert.Equal(t, 7, m.OpenIssues)
	assert.InDelta(t, 200.0/3.0, m.SuccessRate, 0.0001)
}

func TestMetricsCountsActiveAgainstRate(t *testing.T) {
	s := store.New(nil)
	agg := metrics.NewAggregator(s)

	done := s.Create("a", api.MethodNormal)
	s.Create("b", api.MethodNormal)
	s.Complete(done.ID, &api.ScanResults{})

	m := agg.Metrics()
	assert.Equal(t, 2, m.TotalScans)
	assert.InDelta(t, 50.0, m.SuccessRate, 0.0001)
}
