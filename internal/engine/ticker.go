package engine

import (
	"math/rand/v2"
	"time"

	"github.com/kestrelsec/scanflow/pkg/api"
)

type (
	// ProgressSource supplies the progress increment applied to a running
	// step on each tick. Implementations must be safe for concurrent use
	ProgressSource interface {
		NextIncrement() int
	}

	randomSource struct{}
)

const (
	minIncrement  = 5
	incrementSpan = 15
)

// NewRandomSource returns the default progress source, yielding increments
// that make simulated work advance unevenly the way real probes do
func NewRandomSource() ProgressSource {
	return randomSource{}
}

func (randomSource) NextIncrement() int {
	return minIncrement + rand.IntN(incrementSpan)
}

// startTicker advances the named step until it leaves the running state or
// the returned stop function is called. Stop must be called before the step
// is completed so a late tick cannot race the completion
func (e *Engine) startTicker(id api.FlowID, name api.StepName) func() {
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		ticker := time.NewTicker(e.cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-e.ctx.Done():
				return
			case <-ticker.C:
				delta := e.source.NextIncrement()
				if !e.store.AdvanceStep(id, name, delta, e.cfg.TickCeiling) {
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		<-finished
	}
}
