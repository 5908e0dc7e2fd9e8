package handler

import (
	"net/http"
	"time"

	"npcbrain/internal/model"
	"npcbrain/internal/repository"
	"npcbrain/internal/service"

	"github.com/gin-gonic/gin"
)

const defaultRecallTopK = 5

// UtteranceHandler serves similar-command recall from the utterance memory
type UtteranceHandler struct {
	gemini *service.GeminiClient
	repo   *repository.PostgresRepository
	ranker *service.RecallRanker
}

// NewUtteranceHandler creates a new utterance handler
func NewUtteranceHandler(gemini *service.GeminiClient, repo *repository.PostgresRepository, ranker *service.RecallRanker) *UtteranceHandler {
	return &UtteranceHandler{
		gemini: gemini,
		repo:   repo,
		ranker: ranker,
	}
}

// Recall handles POST /api/v1/utterances/recall
func (h *UtteranceHandler) Recall(c *gin.Context) {
	var req model.RecallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Utterance memory requires a configured database"})
		return
	}
	if h.gemini == nil || !h.gemini.IsEnabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Utterance recall requires the Gemini API to be enabled"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = defaultRecallTopK
	}

	startTime := time.Now()

	embedding, err := h.gemini.EmbedText(c.Request.Context(), req.Query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to embed query: " + err.Error()})
		return
	}

	matches, err := h.repo.FindSimilarUtterances(c.Request.Context(), embedding, req.AgentID, topK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Recall failed: " + err.Error()})
		return
	}

	matches = h.ranker.Rank(matches)

	c.JSON(http.StatusOK, model.RecallResponse{
		Matches: matches,
		Took:    time.Since(startTime).Milliseconds(),
	})
}
