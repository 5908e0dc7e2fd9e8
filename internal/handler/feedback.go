package handler

import (
	"net/http"

	"npcbrain/internal/model"
	"npcbrain/internal/repository"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler records how executed actions worked out in the world
type FeedbackHandler struct {
	repo *repository.PostgresRepository
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(repo *repository.PostgresRepository) *FeedbackHandler {
	return &FeedbackHandler{
		repo: repo,
	}
}

var validOutcomes = map[string]bool{
	"succeeded":   true,
	"failed":      true,
	"interrupted": true,
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if !validOutcomes[req.Outcome] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid outcome, must be one of: succeeded, failed, interrupted"})
		return
	}

	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Feedback requires a configured database"})
		return
	}

	if err := h.repo.LogOutcome(c.Request.Context(), req.ActionID, req.Outcome, req.Detail); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback recorded",
	})
}
