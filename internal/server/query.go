package server

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/kestrelsec/scanflow/pkg/api"
)

// queryFlows filters flows by evaluating a gjson path against each flow's
// JSON document. When a value is supplied the path's result must match it;
// otherwise the path merely has to exist
func (s *Server) queryFlows(c *gin.Context) {
	var req api.QueryFlowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewErrorResponse(
			api.CodeInvalidRequest, err.Error(),
		))
		return
	}
	if req.Path == "" {
		c.JSON(http.StatusBadRequest, api.NewErrorResponse(
			api.CodeInvalidRequest, "query path is required",
		))
		return
	}

	matched := make([]*api.Flow, 0)
	for _, flow := range s.store.ListAll() {
		doc, err := json.Marshal(flow)
		if err != nil {
			continue
		}
		value := gjson.GetBytes(doc, req.Path)
		if !value.Exists() {
			continue
		}
		if req.Value != "" && value.String() != req.Value {
			continue
		}
		matched = append(matched, flow)
	}

	c.JSON(http.StatusOK, api.FlowsListResponse{
		Flows: matched,
		Count: len(matched),
	})
}
