package model

// IntentRequest asks the service to turn one user utterance into an action
type IntentRequest struct {
	AgentID     string   `json:"agent_id" binding:"required"`
	Input       string   `json:"input" binding:"required"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// IntentResponse carries the pipeline outcome for an IntentRequest
type IntentResponse struct {
	Accepted bool    `json:"accepted"`
	Action   *Action `json:"action,omitempty"`
	ActionID int64   `json:"action_id,omitempty"`
	Error    string  `json:"error,omitempty"`
	Took     int64   `json:"took_ms"`
}

// ProcessRequest pushes a raw provider response body through the pipeline.
// Used when the engine performs the HTTP call itself and only needs the
// parse/validate/publish half.
type ProcessRequest struct {
	AgentID      string `json:"agent_id" binding:"required"`
	ResponseBody string `json:"response_body" binding:"required"`
}

// NavPoint is a named world location the resolver can map MoveTo names onto
type NavPoint struct {
	Name     string   `json:"name" binding:"required"`
	Position Vector3  `json:"position"`
	Aliases  []string `json:"aliases,omitempty"`
}

// RecallRequest asks for past utterances similar to a query text
type RecallRequest struct {
	AgentID string `json:"agent_id,omitempty"`
	Query   string `json:"query" binding:"required"`
	TopK    int    `json:"top_k,omitempty"`
}

// UtteranceMatch is one recalled utterance with its score components
type UtteranceMatch struct {
	ID         int64   `json:"id"`
	AgentID    string  `json:"agent_id"`
	Text       string  `json:"text"`
	Intent     string  `json:"intent"`
	Similarity float64 `json:"similarity"`
	AgeSeconds float64 `json:"age_seconds"`
	Score      float64 `json:"score"`
}

// RecallResponse lists recalled utterances, best first
type RecallResponse struct {
	Matches []UtteranceMatch `json:"matches"`
	Took    int64            `json:"took_ms"`
}

// FeedbackRequest reports how an executed action worked out in the world
type FeedbackRequest struct {
	ActionID int64  `json:"action_id" binding:"required"`
	Outcome  string `json:"outcome" binding:"required"` // succeeded, failed, interrupted
	Detail   string `json:"detail,omitempty"`
}

// FeedbackResponse acknowledges a feedback submission
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
