package api

import "math"

// Aggregate derives a flow's overall 0-100 progress from its step states.
// Completed steps contribute an equal share each; a running step contributes
// the fraction of its share matching its local progress. The result is
// recomputed on every step mutation rather than stored and trusted
func Aggregate(steps []*Step) int {
	total := len(steps)
	if total == 0 {
		return 0
	}

	completed := 0
	var runningBonus float64
	for _, s := range steps {
		switch s.Status {
		case StepCompleted:
			completed++
		case StepRunning:
			runningBonus = float64(s.Progress) / 100 * (100 / float64(total))
		}
	}

	base := float64(completed) / float64(total) * 100
	return int(math.Round(math.Min(100, base+runningBonus)))
}
