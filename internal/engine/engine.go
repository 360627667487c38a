// Package engine drives scan flows through their step pipeline. Each flow
// runs on its own goroutine and reports progress through the store, so API
// readers and websocket subscribers see every transition as it happens.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/kestrelsec/scanflow/internal/config"
	"github.com/kestrelsec/scanflow/internal/scanner"
	"github.com/kestrelsec/scanflow/internal/store"
	"github.com/kestrelsec/scanflow/pkg/api"
	"github.com/kestrelsec/scanflow/pkg/log"
)

type (
	// Engine executes scan flows against a backend, one goroutine per flow
	Engine struct {
		cfg     *config.Config
		store   *store.Store
		backend scanner.Backend
		source  ProgressSource
		ctx     context.Context
		cancel  context.CancelFunc
		now     func() time.Time
		wg      sync.WaitGroup
	}

	// Dependencies carries the collaborators an Engine is wired with
	Dependencies struct {
		Store   *store.Store
		Backend scanner.Backend

		// Source is optional and defaults to a randomized increment
		Source ProgressSource

		// Now is optional and defaults to time.Now
		Now func() time.Time
	}
)

var (
	ErrNoStore         = errors.New("engine requires a store")
	ErrNoBackend       = errors.New("engine requires a scan backend")
	ErrNotStarted      = errors.New("engine not started")
	ErrStopped         = errors.New("engine stopped")
	ErrInvalidTarget   = errors.New("scan target is required")
	ErrInvalidMethod   = errors.New("unsupported scan method")
	ErrShutdownTimeout = errors.New("timed out waiting for flows to stop")
)

// New creates an engine from the given configuration and dependencies
func New(cfg *config.Config, deps Dependencies) (*Engine, error) {
	if deps.Store == nil {
		return nil, ErrNoStore
	}
	if deps.Backend == nil {
		return nil, ErrNoBackend
	}

	e := &Engine{
		cfg:     cfg,
		store:   deps.Store,
		backend: deps.Backend,
		source:  deps.Source,
		now:     deps.Now,
	}
	if e.source == nil {
		e.source = NewRandomSource()
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Start readies the engine to accept flows
func (e *Engine) Start() error {
	e.ctx, e.cancel = context.WithCancel(context.Background())
	slog.Info("Engine started",
		slog.Duration("tick_interval", e.cfg.TickInterval),
		slog.Int("tick_ceiling", e.cfg.TickCeiling))
	return nil
}

// Stop cancels all running flows and waits for them to wind down. Flows that
// were still executing fail with an execution error rather than hanging in
// progress forever
func (e *Engine) Stop() error {
	if e.cancel == nil {
		return ErrNotStarted
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Engine stopped")
		return nil
	case <-time.After(e.cfg.ShutdownTimeout):
		return ErrShutdownTimeout
	}
}

// StartFlow registers a new flow for the target and begins executing it in
// the background. The returned snapshot is the flow's initial pending state
func (e *Engine) StartFlow(
	target string, method api.ScanMethod,
) (*api.Flow, error) {
	if e.ctx == nil {
		return nil, ErrNotStarted
	}
	if e.ctx.Err() != nil {
		return nil, ErrStopped
	}
	if target == "" {
		return nil, ErrInvalidTarget
	}
	if !api.ValidMethod(method) {
		return nil, ErrInvalidMethod
	}

	flow := e.store.Create(target, method)
	slog.Info("Flow created",
		log.FlowID(flow.ID),
		log.Target(target),
		log.Method(method))

	e.wg.Add(1)
	go e.runFlow(flow.ID)
	return flow, nil
}
