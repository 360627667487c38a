package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelsec/scanflow/pkg/api"
)

func step(status api.StepStatus, progress int) *api.Step {
	return &api.Step{Status: status, Progress: progress}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		steps    []*api.Step
		expected int
	}{
		{
			name:     "no_steps",
			steps:    nil,
			expected: 0,
		},
		{
			name: "all_pending",
			steps: []*api.Step{
				step(api.StepPending, 0),
				step(api.StepPending, 0),
			},
			expected: 0,
		},
		{
			name: "all_completed",
			steps: []*api.Step{
				step(api.StepCompleted, 100),
				step(api.StepCompleted, 100),
			},
			expected: 100,
		},
		{
			name: "one_of_five_completed",
			steps: []*api.Step{
				step(api.StepCompleted, 100),
				step(api.StepPending, 0),
				step(api.StepPending, 0),
				step(api.StepPending, 0),
				step(api.StepPending, 0),
			},
			expected: 20,
		},
		{
			name: "running_step_contributes_fraction",
			steps: []*api.Step{
				step(api.StepCompleted, 100),
				step(api.StepRunning, 50),
				step(api.StepPending, 0),
				step(api.StepPending, 0),
				step(api.StepPending, 0),
			},
			expected: 30,
		},
		{
			name: "errored_step_contributes_nothing",
			steps: []*api.Step{
				step(api.StepCompleted, 100),
				step(api.StepError, 40),
				step(api.StepPending, 0),
				step(api.StepPending, 0),
			},
			expected: 25,
		},
		{
			name: "rounds_to_nearest",
			steps: []*api.Step{
				step(api.StepCompleted, 100),
				step(api.StepCompleted, 100),
				step(api.StepPending, 0),
			},
			expected: 67,
		},
		{
			name: "running_at_full_progress",
			steps: []*api.Step{
				step(api.StepRunning, 100),
				step(api.StepPending, 0),
			},
			expected: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, api.Aggregate(tt.steps))
		})
	}
}
