package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kestrelsec/scanflow/internal/engine"
	"github.com/kestrelsec/scanflow/pkg/api"
)

var (
	ErrFlowNotFound        = errors.New("flow not found")
	ErrResultsNotAvailable = errors.New("results not available")
)

func (s *Server) createFlow(c *gin.Context) {
	var req api.CreateFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewErrorResponse(
			api.CodeInvalidRequest, fmt.Sprintf("invalid request: %v", err),
		))
		return
	}

	flow, err := s.engine.StartFlow(req.Target, req.Method)
	if err == nil {
		c.JSON(http.StatusCreated, flow)
		return
	}

	switch {
	case errors.Is(err, engine.ErrInvalidTarget),
		errors.Is(err, engine.ErrInvalidMethod):
		c.JSON(http.StatusBadRequest, api.NewErrorResponse(
			api.CodeInvalidRequest, err.Error(),
		))
	case errors.Is(err, engine.ErrStopped),
		errors.Is(err, engine.ErrNotStarted):
		c.JSON(http.StatusServiceUnavailable, api.NewErrorResponse(
			api.CodeInternalError, err.Error(),
		))
	default:
		c.JSON(http.StatusInternalServerError, api.NewErrorResponse(
			api.CodeInternalError, err.Error(),
		))
	}
}

func (s *Server) listFlows(c *gin.Context) {
	var flows []*api.Flow
	if c.Query("status") == "active" {
		flows = s.store.ListActive()
	} else {
		flows = s.store.ListAll()
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) listActiveFlows(c *gin.Context) {
	flows := s.store.ListActive()
	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: flows,
		Count: len(flows),
	})
}

func (s *Server) getFlow(c *gin.Context) {
	flow, ok := s.lookupFlow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (s *Server) getFlowLogs(c *gin.Context) {
	flow, ok := s.lookupFlow(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, api.FlowLogsResponse{
		Logs:  flow.Logs,
		Count: len(flow.Logs),
	})
}

// getFlowResults serves the result document of a completed flow. Flows that
// have not completed, including failed ones, have no results to serve
func (s *Server) getFlowResults(c *gin.Context) {
	flow, ok := s.lookupFlow(c)
	if !ok {
		return
	}

	if flow.Results == nil {
		c.JSON(http.StatusNotFound, api.NewErrorResponse(
			api.CodeResultsNotAvailable,
			fmt.Sprintf("%s: %s is %s",
				ErrResultsNotAvailable, flow.ID, flow.Status),
		))
		return
	}

	c.JSON(http.StatusOK, flow.Results)
}

func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.Metrics())
}

func (s *Server) lookupFlow(c *gin.Context) (*api.Flow, bool) {
	id := api.FlowID(c.Param("flowID"))
	flow, ok := s.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, api.NewErrorResponse(
			api.CodeNotFound, fmt.Sprintf("%s: %s", ErrFlowNotFound, id),
		))
		return nil, false
	}
	return flow, true
}
