// Package store provides the in-memory registry of flow records. Every
// mutation swaps in a fresh copy-on-write snapshot, so readers always
// observe a consistent point-in-time Flow and never a half-applied update.
package store

import (
	"sync"
	"time"

	"github.com/kestrelsec/scanflow/pkg/api"
	"github.com/kestrelsec/scanflow/pkg/events"
)

type (
	// Store is the process-lifetime registry of flows. All operations are
	// atomic with respect to a single flow
	Store struct {
		hub      *events.Hub
		flows    map[api.FlowID]*api.Flow
		order    []api.FlowID
		template []api.StepName
		now      func() time.Time
		mu       sync.RWMutex
	}

	// Option adjusts store construction
	Option func(*Store)
)

// DefaultTemplate is the fixed pipeline every flow is created with. The
// template is injectable; deployments that fold service detection into
// port scanning supply their own
var DefaultTemplate = []api.StepName{
	api.StepInitialization,
	api.StepPortScanning,
	api.StepServiceDetect,
	api.StepVulnAnalysis,
	api.StepReportGenerated,
}

// WithClock overrides the store's time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithTemplate overrides the step template used for new flows
func WithTemplate(template []api.StepName) Option {
	return func(s *Store) {
		s.template = template
	}
}

// New creates an empty store publishing mutations to the given hub
func New(hub *events.Hub, opts ...Option) *Store {
	s := &Store{
		hub:      hub,
		flows:    map[api.FlowID]*api.Flow{},
		template: DefaultTemplate,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new pending flow with steps initialized from the
// template and returns its initial snapshot
func (s *Store) Create(target string, method api.ScanMethod) *api.Flow {
	now := s.now()
	steps := make([]*api.Step, len(s.template))
	for i, name := range s.template {
		steps[i] = &api.Step{
			Name:   name,
			Status: api.StepPending,
		}
	}

	flow := &api.Flow{
		ID:           api.NewFlowID(),
		Target:       target,
		Method:       method,
		Status:       api.FlowPending,
		StartTime:    now,
		LastActivity: now,
		Steps:        steps,
		Logs:         []*api.LogEntry{},
	}

	s.mu.Lock()
	s.flows[flow.ID] = flow
	s.order = append(s.order, flow.ID)
	s.mu.Unlock()

	s.publish(events.EventFlowCreated, flow.ID, flow)
	return flow
}

// Get returns the current snapshot of a flow
func (s *Store) Get(id api.FlowID) (*api.Flow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	flow, ok := s.flows[id]
	return flow, ok
}

// ListAll returns snapshots of every flow in creation order
func (s *Store) ListAll() []*api.Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*api.Flow, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.flows[id])
	}
	return res
}

// ListActive returns snapshots of flows that are pending or in progress
func (s *Store) ListActive() []*api.Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*api.Flow
	for _, id := range s.order {
		if flow := s.flows[id]; flow.Status.IsActive() {
			res = append(res, flow)
		}
	}
	return res
}

// Update applies fn to the flow's current snapshot and installs the result,
// refreshing last activity. Silently no-ops when the id is absent
func (s *Store) Update(id api.FlowID, fn func(*api.Flow) *api.Flow) bool {
	_, ok := s.update(id, fn)
	return ok
}

func (s *Store) update(
	id api.FlowID, fn func(*api.Flow) *api.Flow,
) (*api.Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[id]
	if !ok {
		return nil, false
	}
	next := fn(flow)
	if next == nil {
		return nil, false
	}
	next = next.SetLastActivity(s.now())
	s.flows[id] = next
	return next, true
}

func (s *Store) publish(t events.EventType, id api.FlowID, data any) {
	if s.hub != nil {
		s.hub.Publish(events.New(t, id, data))
	}
}
