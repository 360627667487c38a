package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrelsec/scanflow/pkg/api"
	"github.com/kestrelsec/scanflow/pkg/log"
)

type (
	// flowRun accumulates the intermediate products of one flow execution
	flowRun struct {
		id      api.FlowID
		target  string
		method  api.ScanMethod
		started time.Time
		ports   []api.Port
		vulns   map[int][]api.Vulnerability
		results *api.ScanResults
	}

	stage struct {
		name api.StepName
		run  func(context.Context, *flowRun) error
	}
)

// Log entry node names
const (
	nodeEngine  = "engine"
	nodeScanner = "scanner"
)

func (e *Engine) stages() []stage {
	return []stage{
		{api.StepInitialization, e.initStage},
		{api.StepPortScanning, e.portScanStage},
		{api.StepServiceDetect, e.serviceStage},
		{api.StepVulnAnalysis, e.vulnStage},
		{api.StepReportGenerated, e.reportStage},
	}
}

// runFlow walks the flow through every pipeline stage in order. The first
// stage failure ends the run; later steps are left pending and the flow
// carries the failure detail
func (e *Engine) runFlow(id api.FlowID) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Flow panicked",
				log.FlowID(id),
				slog.Any("panic", r))
			e.store.Fail(id, api.CodeExecutionError,
				fmt.Sprintf("internal failure: %v", r))
		}
	}()

	flow, ok := e.store.Get(id)
	if !ok {
		return
	}
	run := &flowRun{
		id:      id,
		target:  flow.Target,
		method:  flow.Method,
		started: e.now(),
	}

	e.store.MarkInProgress(id)
	e.store.AppendLog(id, api.LogInfo, nodeEngine, "flow-start",
		fmt.Sprintf("Starting %s scan of %s", run.method, run.target), "")

	for _, st := range e.stages() {
		if err := e.runStage(run, st); err != nil {
			e.failFlow(run, st.name, err)
			return
		}
	}

	e.store.AppendLog(id, api.LogSuccess, nodeEngine, "flow-complete",
		fmt.Sprintf("Scan of %s completed", run.target),
		fmt.Sprintf("%d findings across %d ports",
			run.results.Statistics.TotalIssues, run.results.TotalPorts))
	e.store.Complete(id, run.results)

	slog.Info("Flow completed",
		log.FlowID(id),
		log.Target(run.target),
		slog.Int("total_issues", run.results.Statistics.TotalIssues))
}

func (e *Engine) runStage(run *flowRun, st stage) error {
	e.store.StartStep(run.id, st.name)
	stop := e.startTicker(run.id, st.name)
	err := e.execStage(run, st)
	stop()
	if err != nil {
		e.store.FailStep(run.id, st.name)
		return err
	}
	e.store.CompleteStep(run.id, st.name)
	return nil
}

// execStage runs the stage's work, converting a panic into an error so the
// ticker is stopped and the step marked errored like any other stage failure
func (e *Engine) execStage(run *flowRun, st stage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Stage panicked",
				log.FlowID(run.id),
				log.Step(st.name),
				slog.Any("panic", r))
			err = fmt.Errorf("internal failure in %s: %v", st.name, r)
		}
	}()
	return st.run(e.ctx, run)
}

func (e *Engine) failFlow(run *flowRun, name api.StepName, err error) {
	e.store.AppendLog(run.id, api.LogError, nodeEngine, "flow-fail",
		fmt.Sprintf("%s failed", name), err.Error())
	e.store.Fail(run.id, api.CodeExecutionError, err.Error())

	slog.Error("Flow failed",
		log.FlowID(run.id),
		log.Step(name),
		log.Error(err))
}

func (e *Engine) initStage(ctx context.Context, run *flowRun) error {
	e.store.AppendLog(run.id, api.LogInfo, nodeEngine, "initialize",
		fmt.Sprintf("Preparing %s scan of %s", run.method, run.target), "")
	return sleep(ctx, e.cfg.InitDelay)
}

func (e *Engine) portScanStage(ctx context.Context, run *flowRun) error {
	ports, err := e.backend.DiscoverPorts(ctx, run.target, run.method)
	if err != nil {
		return err
	}
	run.ports = ports

	open := 0
	for _, p := range ports {
		if p.State == api.PortOpen {
			open++
		}
	}
	e.store.AppendLog(run.id, api.LogSuccess, nodeScanner, "port-scan",
		fmt.Sprintf("Discovered %d ports, %d open", len(ports), open), "")
	return nil
}

func (e *Engine) serviceStage(ctx context.Context, run *flowRun) error {
	ports, err := e.backend.DetectServices(ctx, run.ports)
	if err != nil {
		return err
	}
	run.ports = ports

	e.store.AppendLog(run.id, api.LogSuccess, nodeScanner, "service-detect",
		fmt.Sprintf("Identified services on %d ports", len(ports)), "")
	return nil
}

func (e *Engine) vulnStage(ctx context.Context, run *flowRun) error {
	vulns, err := e.backend.FindVulnerabilities(
		ctx, run.target, run.method, run.ports,
	)
	if err != nil {
		return err
	}
	run.vulns = vulns

	total := 0
	for _, found := range vulns {
		total += len(found)
	}
	logType := api.LogSuccess
	if total > 0 {
		logType = api.LogWarning
	}
	e.store.AppendLog(run.id, logType, nodeScanner, "vuln-analysis",
		fmt.Sprintf("Analysis found %d issues", total), "")
	return nil
}

func (e *Engine) reportStage(ctx context.Context, run *flowRun) error {
	if err := sleep(ctx, e.cfg.ReportDelay); err != nil {
		return err
	}
	run.results = e.assembleResults(run)

	e.store.AppendLog(run.id, api.LogSuccess, nodeEngine, "report",
		"Report generated", "")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
