package store

import (
	"github.com/kestrelsec/scanflow/pkg/api"
	"github.com/kestrelsec/scanflow/pkg/events"
)

// MarkInProgress transitions a pending flow into execution. Flows already
// past pending are left untouched
func (s *Store) MarkInProgress(id api.FlowID) {
	flow, ok := s.update(id, func(f *api.Flow) *api.Flow {
		if f.Status != api.FlowPending {
			return nil
		}
		return f.SetStatus(api.FlowInProgress)
	})
	if ok {
		s.publish(events.EventFlowStarted, id, flow)
	}
}

// StartStep marks the named step running with zero progress and records its
// start time. A step only ever enters running once
func (s *Store) StartStep(id api.FlowID, name api.StepName) {
	s.stepTransition(id, name, func(f *api.Flow, step *api.Step) *api.Step {
		if step.Status != api.StepPending {
			return nil
		}
		return step.SetStatus(api.StepRunning).
			SetProgress(0).
			SetStartTime(s.now())
	})
}

// AdvanceStep raises a running step's progress by delta, clamped to the
// ceiling. Progress never regresses. Returns false once the step is no
// longer running, which tells tickers to stop
func (s *Store) AdvanceStep(
	id api.FlowID, name api.StepName, delta, ceiling int,
) bool {
	running := false
	s.stepTransition(id, name, func(f *api.Flow, step *api.Step) *api.Step {
		if step.Status != api.StepRunning {
			return nil
		}
		running = true
		next := step.Progress + delta
		if next > ceiling {
			next = ceiling
		}
		if next <= step.Progress {
			return nil
		}
		return step.SetProgress(next)
	})
	return running
}

// CompleteStep forces a running step to full progress and marks it completed
func (s *Store) CompleteStep(id api.FlowID, name api.StepName) {
	s.stepTransition(id, name, func(f *api.Flow, step *api.Step) *api.Step {
		if step.Status != api.StepRunning {
			return nil
		}
		return step.SetStatus(api.StepCompleted).
			SetProgress(100).
			SetEndTime(s.now())
	})
}

// FailStep marks a running step as errored, keeping its partial progress
func (s *Store) FailStep(id api.FlowID, name api.StepName) {
	s.stepTransition(id, name, func(f *api.Flow, step *api.Step) *api.Step {
		if step.Status != api.StepRunning {
			return nil
		}
		return step.SetStatus(api.StepError).SetEndTime(s.now())
	})
}

// AppendLog appends a timestamped entry to the flow's activity log
func (s *Store) AppendLog(
	id api.FlowID, t api.LogType, node, action, message, details string,
) {
	entry := &api.LogEntry{
		Timestamp: s.now(),
		Type:      t,
		Node:      node,
		Action:    action,
		Message:   message,
		Details:   details,
	}
	_, ok := s.update(id, func(f *api.Flow) *api.Flow {
		return f.AppendLog(entry)
	})
	if ok {
		s.publish(events.EventLogAppended, id, entry)
	}
}

// Complete atomically attaches the assembled results and moves the flow to
// completed, setting the end time exactly once. Readers never observe
// results on a non-completed flow
func (s *Store) Complete(id api.FlowID, results *api.ScanResults) {
	flow, ok := s.update(id, func(f *api.Flow) *api.Flow {
		if f.Status.IsTerminal() {
			return nil
		}
		return f.SetStatus(api.FlowCompleted).
			SetProgress(100).
			SetResults(results).
			SetEndTime(s.now())
	})
	if ok {
		s.publish(events.EventFlowCompleted, id, flow)
	}
}

// Fail moves the flow to failed with the given error, setting the end time
// exactly once. Step states and logs present at failure time are kept
func (s *Store) Fail(id api.FlowID, code, message string) {
	flow, ok := s.update(id, func(f *api.Flow) *api.Flow {
		if f.Status.IsTerminal() {
			return nil
		}
		return f.SetStatus(api.FlowFailed).
			SetError(&api.ScanError{Code: code, Message: message}).
			SetEndTime(s.now())
	})
	if ok {
		s.publish(events.EventFlowFailed, id, flow)
	}
}

// stepTransition applies fn to the named step and reinstalls the flow with
// its aggregate progress recomputed in the same atomic update. Steps of a
// terminal flow never mutate
func (s *Store) stepTransition(
	id api.FlowID, name api.StepName,
	fn func(*api.Flow, *api.Step) *api.Step,
) {
	flow, ok := s.update(id, func(f *api.Flow) *api.Flow {
		if f.Status.IsTerminal() {
			return nil
		}
		step := f.GetStep(name)
		if step == nil {
			return nil
		}
		next := fn(f, step)
		if next == nil {
			return nil
		}
		res := f.SetStep(next)
		return res.SetProgress(api.Aggregate(res.Steps))
	})
	if ok {
		s.publish(events.EventStepUpdated, id, flow.GetStep(name))
	}
}
