package server_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/kestrelsec/scanflow"
	"github.com/kestrelsec/scanflow/internal/config"
	"github.com/kestrelsec/scanflow/internal/engine"
	"github.com/kestrelsec/scanflow/internal/metrics"
	"github.com/kestrelsec/scanflow/internal/scanner"
	"github.com/kestrelsec/scanflow/internal/server"
	"github.com/kestrelsec/scanflow/internal/store"
	"github.com/kestrelsec/scanflow/pkg/api"
	"github.com/kestrelsec/scanflow/pkg/events"
)

type testServer struct {
	router *gin.Engine
	store  *store.Store
	engine *engine.Engine
	hub    *events.Hub
	api    *server.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewDefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.InitDelay = 5 * time.Millisecond
	cfg.ReportDelay = 5 * time.Millisecond
	cfg.SlowScanDelay = 10 * time.Millisecond
	cfg.NormalScanDelay = 10 * time.Millisecond
	cfg.AggressiveScanDelay = 10 * time.Millisecond
	cfg.ShutdownTimeout = 2 * time.Second

	hub := events.NewHub()
	st := store.New(hub)
	backend := scanner.NewMock(scanner.Delays{
		Slow:       cfg.SlowScanDelay,
		Normal:     cfg.NormalScanDelay,
		Aggressive: cfg.AggressiveScanDelay,
	})

	eng, err := engine.New(cfg, engine.Dependencies{
		Store:   st,
		Backend: backend,
	})
	require.NoError(t, err)
	require.NoError(t, eng.Start())

	srv := server.NewServer(eng, st, metrics.NewAggregator(st), hub)
	ts := &testServer{
		router: srv.SetupRoutes(),
		store:  st,
		engine: eng,
		hub:    hub,
		api:    srv,
	}

	t.Cleanup(func() {
		ts.api.CloseWebSockets()
		_ = eng.Stop()
		hub.Close()
	})
	return ts
}

func (ts *testServer) request(
	t *testing.T, method, path string, body any,
) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var res T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func (ts *testServer) waitForStatus(
	t *testing.T, id api.FlowID, status api.FlowStatus,
) {
	t.Helper()
	assert.Eventually(t, func() bool {
		flow, ok := ts.store.Get(id)
		return ok && flow.Status == status
	}, 5*time.Second, 5*time.Millisecond)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decodeBody[api.HealthResponse](t, rec)
	assert.Equal(t, app.Name, health.Service)
	assert.Equal(t, app.Version, health.Version)
	assert.Equal(t, "healthy", health.Status)
}

func TestCreateFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/flows", api.CreateFlowRequest{
		Target: "10.0.0.5",
		Method: api.MethodNormal,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	flow := decodeBody[api.Flow](t, rec)
	assert.NotEmpty(t, flow.ID)
	assert.Equal(t, api.FlowPending, flow.Status)
	assert.Equal(t, 0, flow.Progress)
	assert.Len(t, flow.Steps, 5)
	for _, step := range flow.Steps {
		assert.Equal(t, api.StepPending, step.Status)
	}
}

func TestCreateFlowInvalidMethod(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/flows", api.CreateFlowRequest{
		Target: "10.0.0.5",
		Method: "warp-speed",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decodeBody[api.ErrorResponse](t, rec)
	assert.Equal(t, api.CodeInvalidRequest, res.Error.Code)

	// a rejected create leaves no flow behind
	rec = ts.request(t, http.MethodGet, "/flows", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[api.FlowsListResponse](t, rec)
	assert.Equal(t, 0, all.Count)
}

func TestCreateFlowMissingTarget(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/flows", api.CreateFlowRequest{
		Method: api.MethodNormal,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	res := decodeBody[api.ErrorResponse](t, rec)
	assert.Equal(t, api.CodeInvalidRequest, res.Error.Code)
}

func TestCreateFlowMalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(
		http.MethodPost, "/flows", bytes.NewReader([]byte("{nope")),
	)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeBody[api.ErrorResponse](t, rec)
	assert.Equal(t, api.CodeInvalidRequest, res.Error.Code)
}

func TestListFlows(t *testing.T) {
	ts := newTestServer(t)

	first := ts.store.Create("a", api.MethodNormal)
	second := ts.store.Create("b", api.MethodSlow)
	ts.store.Complete(second.ID, &api.ScanResults{})

	rec := ts.request(t, http.MethodGet, "/flows", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[api.FlowsListResponse](t, rec)
	assert.Equal(t, 2, all.Count)

	rec = ts.request(t, http.MethodGet, "/flows?status=active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decodeBody[api.FlowsListResponse](t, rec)
	require.Equal(t, 1, active.Count)
	assert.Equal(t, first.ID, active.Flows[0].ID)

	rec = ts.request(t, http.MethodGet, "/flows/active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active = decodeBody[api.FlowsListResponse](t, rec)
	assert.Equal(t, 1, active.Count)
}

func TestGetFlow(t *testing.T) {
	ts := newTestServer(t)
	flow := ts.store.Create("10.0.0.5", api.MethodNormal)

	rec := ts.request(
		t, http.MethodGet, fmt.Sprintf("/flows/%s", flow.ID), nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)

	fetched := decodeBody[api.Flow](t, rec)
	assert.Equal(t, flow.ID, fetched.ID)
	assert.Equal(t, "10.0.0.5", fetched.Target)
}

func TestGetFlowNotFound(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/flows/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	res := decodeBody[api.ErrorResponse](t, rec)
	assert.Equal(t, api.CodeNotFound, res.Error.Code)
}

func TestGetFlowLogs(t *testing.T) {
	ts := newTestServer(t)
	flow := ts.store.Create("10.0.0.5", api.MethodNormal)
	ts.store.AppendLog(
		flow.ID, api.LogInfo, "engine", "initialize", "starting", "",
	)

	rec := ts.request(
		t, http.MethodGet, fmt.Sprintf("/flows/%s/logs", flow.ID), nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)

	logs := decodeBody[api.FlowLogsResponse](t, rec)
	require.Equal(t, 1, logs.Count)
	assert.Equal(t, "starting", logs.Logs[0].Message)
}

func TestGetResultsBeforeCompletion(t *testing.T) {
	ts := newTestServer(t)
	flow := ts.store.Create("10.0.0.5", api.MethodNormal)
	ts.store.MarkInProgress(flow.ID)

	rec := ts.request(
		t, http.MethodGet, fmt.Sprintf("/flows/%s/results", flow.ID), nil,
	)
	require.Equal(t, http.StatusNotFound, rec.Code)

	res := decodeBody[api.ErrorResponse](t, rec)
	assert.Equal(t, api.CodeResultsNotAvailable, res.Error.Code)
}

func TestGetResultsOfFailedFlow(t *testing.T) {
	ts := newTestServer(t)
	flow := ts.store.Create("10.0.0.5", api.MethodNormal)
	ts.store.Fail(flow.ID, api.CodeExecutionError, "boom")

	rec := ts.request(
		t, http.MethodGet, fmt.Sprintf("/flows/%s/results", flow.ID), nil,
	)
	require.Equal(t, http.StatusNotFound, rec.Code)

	res := decodeBody[api.ErrorResponse](t, rec)
	assert.Equal(t, api.CodeResultsNotAvailable, res.Error.Code)
}

func TestGetResultsAfterCompletion(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/flows", api.CreateFlowRequest{
		Target: "10.0.0.5",
		Method: api.MethodNormal,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	flow := decodeBody[api.Flow](t, rec)

	ts.waitForStatus(t, flow.ID, api.FlowCompleted)

	rec = ts.request(
		t, http.MethodGet, fmt.Sprintf("/flows/%s/results", flow.ID), nil,
	)
	require.Equal(t, http.StatusOK, rec.Code)

	results := decodeBody[api.ScanResults](t, rec)
	assert.Equal(t, flow.ID, results.ID)
	assert.Equal(t, "10.0.0.5", results.Target)
	assert.NotEmpty(t, results.OpenPorts)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)

	first := ts.store.Create("a", api.MethodNormal)
	second := ts.store.Create("b", api.MethodNormal)
	third := ts.store.Create("c", api.MethodNormal)

	ts.store.Complete(first.ID, &api.ScanResults{
		Statistics: api.Statistics{TotalIssues: 2},
	})
	ts.store.Complete(second.ID, &api.ScanResults{
		Statistics: api.Statistics{TotalIssues: 1},
	})
	ts.store.Fail(third.ID, api.CodeExecutionError, "boom")

	rec := ts.request(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	m := decodeBody[api.Metrics](t, rec)
	assert.Equal(t, 3, m.TotalScans)
	assert.Equal(t, 3, m.OpenIssues)
	assert.InDelta(t, 200.0/3.0, m.SuccessRate, 0.0001)
}

func TestCORSHeaders(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodOptions, "/flows", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
