package handler

import (
	"net/http"

	"npcbrain/internal/model"
	"npcbrain/internal/service"

	"github.com/gin-gonic/gin"
)

// NavPointHandler manages the named-location registry over HTTP
type NavPointHandler struct {
	registry *service.NavPointRegistry
}

// NewNavPointHandler creates a new nav point handler
func NewNavPointHandler(registry *service.NavPointRegistry) *NavPointHandler {
	return &NavPointHandler{
		registry: registry,
	}
}

// Register handles POST /api/v1/navpoints
func (h *NavPointHandler) Register(c *gin.Context) {
	var point model.NavPoint
	if err := c.ShouldBindJSON(&point); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	h.registry.Register(point)
	c.JSON(http.StatusOK, gin.H{"registered": point.Name})
}

// RegisterBatch handles POST /api/v1/navpoints/batch. Level load pushes
// the whole point set at once.
func (h *NavPointHandler) RegisterBatch(c *gin.Context) {
	var points []model.NavPoint
	if err := c.ShouldBindJSON(&points); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	for _, p := range points {
		h.registry.Register(p)
	}
	c.JSON(http.StatusOK, gin.H{"registered": len(points)})
}

// List handles GET /api/v1/navpoints
func (h *NavPointHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"navpoints": h.registry.List()})
}
