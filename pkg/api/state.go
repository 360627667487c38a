package api

import (
	"slices"
	"time"
)

type (
	// ScanMethod selects the aggressiveness of a scan
	ScanMethod string

	// FlowStatus represents the current state of a flow
	FlowStatus string

	// StepStatus represents the current state of a pipeline step
	StepStatus string

	// LogType classifies a flow log entry
	LogType string

	// Flow contains the complete state of one scan job. Flow values held by
	// the store are immutable snapshots; mutations go through the Set*
	// methods, which return a modified copy
	Flow struct {
		StartTime    time.Time    `json:"startTime"`
		EndTime      time.Time    `json:"endTime,omitzero"`
		LastActivity time.Time    `json:"lastActivity"`
		Results      *ScanResults `json:"results,omitempty"`
		Error        *ScanError   `json:"error,omitempty"`
		ID           FlowID       `json:"id"`
		Target       string       `json:"target"`
		Method       ScanMethod   `json:"method"`
		Status       FlowStatus   `json:"status"`
		Steps        []*Step      `json:"steps"`
		Logs         []*LogEntry  `json:"logs"`
		Progress     int          `json:"progress"`
	}

	// Step is one named stage of a flow's fixed pipeline
	Step struct {
		StartTime time.Time  `json:"startTime,omitzero"`
		EndTime   time.Time  `json:"endTime,omitzero"`
		Name      StepName   `json:"name"`
		Status    StepStatus `json:"status"`
		Progress  int        `json:"progress"`
	}

	// LogEntry is an immutable, timestamped activity record
	LogEntry struct {
		Timestamp time.Time `json:"timestamp"`
		Type      LogType   `json:"type"`
		Node      string    `json:"node"`
		Action    string    `json:"action"`
		Message   string    `json:"message"`
		Details   string    `json:"details,omitempty"`
	}

	// ScanError describes why a flow failed
	ScanError struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
	}
)

const (
	MethodSlow       ScanMethod = "slow"
	MethodNormal     ScanMethod = "normal"
	MethodAggressive ScanMethod = "aggressive"
)

const (
	FlowPending    FlowStatus = "pending"
	FlowInProgress FlowStatus = "in-progress"
	FlowCompleted  FlowStatus = "completed"
	FlowFailed     FlowStatus = "failed"
)

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

const (
	LogInfo    LogType = "info"
	LogWarning LogType = "warning"
	LogError   LogType = "error"
	LogSuccess LogType = "success"
)

// ValidMethod reports whether m is one of the supported scan methods
func ValidMethod(m ScanMethod) bool {
	switch m {
	case MethodSlow, MethodNormal, MethodAggressive:
		return true
	}
	return false
}

// IsTerminal reports whether no transitions may leave this status
func (s FlowStatus) IsTerminal() bool {
	return s == FlowCompleted || s == FlowFailed
}

// IsActive reports whether the flow still has work pending
func (s FlowStatus) IsActive() bool {
	return s == FlowPending || s == FlowInProgress
}

// SetStatus returns a new Flow with the updated status
func (f *Flow) SetStatus(s FlowStatus) *Flow {
	res := *f
	res.Status = s
	return &res
}

// SetProgress returns a new Flow with the aggregate progress set
func (f *Flow) SetProgress(p int) *Flow {
	res := *f
	res.Progress = p
	return &res
}

// SetEndTime returns a new Flow with the end timestamp set
func (f *Flow) SetEndTime(t time.Time) *Flow {
	res := *f
	res.EndTime = t
	return &res
}

// SetLastActivity returns a new Flow with the last activity timestamp set
func (f *Flow) SetLastActivity(t time.Time) *Flow {
	res := *f
	res.LastActivity = t
	return &res
}

// SetResults returns a new Flow with the assembled scan results attached
func (f *Flow) SetResults(r *ScanResults) *Flow {
	res := *f
	res.Results = r
	return &res
}

// SetError returns a new Flow with the failure details set
func (f *Flow) SetError(e *ScanError) *Flow {
	res := *f
	res.Error = e
	return &res
}

// SetStep returns a new Flow with the named step replaced. The steps
// sequence keeps its creation order and size
func (f *Flow) SetStep(step *Step) *Flow {
	res := *f
	res.Steps = slices.Clone(f.Steps)
	for i, s := range res.Steps {
		if s.Name == step.Name {
			res.Steps[i] = step
			break
		}
	}
	return &res
}

// AppendLog returns a new Flow with the log entry appended
func (f *Flow) AppendLog(entry *LogEntry) *Flow {
	res := *f
	res.Logs = append(slices.Clone(f.Logs), entry)
	return &res
}

// GetStep returns the named step, or nil if the template lacks it
func (f *Flow) GetStep(name StepName) *Step {
	for _, s := range f.Steps {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SetStatus returns a new Step with the updated status
func (s *Step) SetStatus(st StepStatus) *Step {
	res := *s
	res.Status = st
	return &res
}

// SetProgress returns a new Step with the local progress set
func (s *Step) SetProgress(p int) *Step {
	res := *s
	res.Progress = p
	return &res
}

// SetStartTime returns a new Step with the start timestamp set
func (s *Step) SetStartTime(t time.Time) *Step {
	res := *s
	res.StartTime = t
	return &res
}

// SetEndTime returns a new Step with the end timestamp set
func (s *Step) SetEndTime(t time.Time) *Step {
	res := *s
	res.EndTime = t
	return &res
}
