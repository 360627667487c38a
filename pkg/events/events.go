package events

import (
	"time"

	"github.com/kestrelsec/scanflow/pkg/api"
)

type (
	// EventType classifies a flow lifecycle event
	EventType string

	// Event is a single flow lifecycle notification
	Event struct {
		Timestamp time.Time  `json:"timestamp"`
		Type      EventType  `json:"type"`
		FlowID    api.FlowID `json:"flowId"`
		Data      any        `json:"data,omitempty"`
	}

	// Filter decides whether a subscriber receives an event
	Filter func(*Event) bool
)

const (
	EventFlowCreated   EventType = "flow-created"
	EventFlowStarted   EventType = "flow-started"
	EventStepUpdated   EventType = "step-updated"
	EventLogAppended   EventType = "log-appended"
	EventFlowCompleted EventType = "flow-completed"
	EventFlowFailed    EventType = "flow-failed"
)

// New builds an event stamped with the current time
func New(t EventType, id api.FlowID, data any) *Event {
	return &Event{
		Timestamp: time.Now(),
		Type:      t,
		FlowID:    id,
		Data:      data,
	}
}

// ForFlow creates a filter matching events for a single flow
func ForFlow(id api.FlowID) Filter {
	return func(ev *Event) bool {
		return ev.FlowID == id
	}
}

// ForTypes creates a filter matching any of the given event types
func ForTypes(types ...EventType) Filter {
	matched := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		matched[t] = struct{}{}
	}
	return func(ev *Event) bool {
		_, ok := matched[ev.Type]
		return ok
	}
}

// And combines filters so that all must accept an event
func And(filters ...Filter) Filter {
	return func(ev *Event) bool {
		for _, f := range filters {
			if !f(ev) {
				return false
			}
		}
		return true
	}
}

// MatchAll accepts every event
func MatchAll(*Event) bool { return true }

// MatchNone rejects every event
func MatchNone(*Event) bool { return false }
