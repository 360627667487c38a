// Package metrics derives fleet-wide scan statistics from the flow store.
package metrics

import (
	"github.com/kestrelsec/scanflow/internal/store"
	"github.com/kestrelsec/scanflow/pkg/api"
)

// Aggregator computes metrics over the current flow population
type Aggregator struct {
	store *store.Store
}

// NewAggregator creates an aggregator reading from the given store
func NewAggregator(s *store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Metrics summarizes all flows ever created. The success rate counts only
// completed flows against the total, so pending and in-progress flows drag
// the rate down until they finish
func (a *Aggregator) Metrics() api.Metrics {
	flows := a.store.ListAll()

	var completed, openIssues int
	for _, f := range flows {
		if f.Status == api.FlowCompleted {
			completed++
		}
		if f.Results != nil {
			openIssues += f.Results.Statistics.TotalIssues
		}
	}

	res := api.Metrics{
		TotalScans: len(flows),
		OpenIssues: openIssues,
	}
	if len(flows) > 0 {
		res.SuccessRate = float64(completed) / float64(len(flows)) * 100
	}
	return res
}
