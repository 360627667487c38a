package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/kestrelsec/scanflow"
	"github.com/kestrelsec/scanflow/pkg/api"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Service: app.Name,
		Version: app.Version,
		Status:  "healthy",
	})
}
