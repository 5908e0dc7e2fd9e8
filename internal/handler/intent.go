package handler

import (
	"errors"
	"net/http"
	"time"

	"npcbrain/internal/model"
	"npcbrain/internal/service"

	"github.com/gin-gonic/gin"
)

// IntentHandler handles the action pipeline HTTP endpoints
type IntentHandler struct {
	pipeline *service.Pipeline
}

// NewIntentHandler creates a new intent handler
func NewIntentHandler(pipeline *service.Pipeline) *IntentHandler {
	return &IntentHandler{
		pipeline: pipeline,
	}
}

// PostIntent handles POST /api/v1/intent. Runs user input through the full
// pipeline and updates the agent's blackboard on acceptance.
func (h *IntentHandler) PostIntent(c *gin.Context) {
	var req model.IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	startTime := time.Now()
	action, actionID, err := h.pipeline.GenerateAction(c.Request.Context(), req.AgentID, req.Input, req.Temperature)
	took := time.Since(startTime).Milliseconds()

	if err != nil {
		status := http.StatusBadGateway
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			// Rejections are expected with LLM output, not server faults
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, model.IntentResponse{
			Accepted: false,
			Error:    err.Error(),
			ActionID: actionID,
			Took:     took,
		})
		return
	}

	c.JSON(http.StatusOK, model.IntentResponse{
		Accepted: true,
		Action:   &action,
		ActionID: actionID,
		Took:     took,
	})
}

// ProcessResponse handles POST /api/v1/actions/process. The engine did the
// provider call itself and pushes the raw response body through the
// parse/validate/publish half of the pipeline.
func (h *IntentHandler) ProcessResponse(c *gin.Context) {
	var req model.ProcessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	startTime := time.Now()
	action, actionID, err := h.pipeline.ProcessResponse(c.Request.Context(), req.AgentID, req.ResponseBody)
	took := time.Since(startTime).Milliseconds()

	if err != nil {
		status := http.StatusBadRequest
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, model.IntentResponse{
			Accepted: false,
			Error:    err.Error(),
			ActionID: actionID,
			Took:     took,
		})
		return
	}

	c.JSON(http.StatusOK, model.IntentResponse{
		Accepted: true,
		Action:   &action,
		ActionID: actionID,
		Took:     took,
	})
}

// GetBlackboard handles GET /api/v1/blackboard/:agent
func (h *IntentHandler) GetBlackboard(c *gin.Context) {
	agentID := c.Param("agent")
	bb := h.pipeline.Blackboard(agentID)
	c.JSON(http.StatusOK, gin.H{
		"agent_id": agentID,
		"values":   bb.Snapshot(),
	})
}

// ClearBlackboard handles DELETE /api/v1/blackboard/:agent. Removes all
// pipeline-owned keys for an agent.
func (h *IntentHandler) ClearBlackboard(c *gin.Context) {
	agentID := c.Param("agent")
	h.pipeline.Blackboard(agentID).ClearActionKeys()
	c.JSON(http.StatusOK, gin.H{"agent_id": agentID, "cleared": true})
}

// GetSystemPrompt handles GET /api/v1/prompt. Returns the recommended system
// instruction for engines that do the provider call themselves.
func (h *IntentHandler) GetSystemPrompt(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"system_prompt": service.RecommendedSystemPrompt()})
}
