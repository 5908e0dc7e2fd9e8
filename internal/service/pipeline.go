package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"npcbrain/internal/blackboard"
	"npcbrain/internal/model"
	"npcbrain/internal/utils"
)

// ActionRepository persists pipeline outcomes. Optional: a nil repository
// disables history and utterance memory without affecting the pipeline.
type ActionRepository interface {
	LogAction(ctx context.Context, agentID, userInput string, action *model.Action, accepted bool, rejectReason string) (int64, error)
	SaveUtterance(ctx context.Context, agentID, text, intent string, embedding []float32) error
}

// Pipeline glues the stages end to end: generate → extract → parse →
// validate → normalize → publish. Each invocation owns its own values;
// multiple invocations may run concurrently for different agents.
type Pipeline struct {
	gemini    *GeminiClient
	boards    *blackboard.Manager
	resolver  NameResolver
	repo      ActionRepository
	threshold float64
}

// NewPipeline creates a pipeline. resolver and repo may be nil.
func NewPipeline(
	gemini *GeminiClient,
	boards *blackboard.Manager,
	resolver NameResolver,
	repo ActionRepository,
	threshold float64,
) *Pipeline {
	return &Pipeline{
		gemini:    gemini,
		boards:    boards,
		resolver:  resolver,
		repo:      repo,
		threshold: threshold,
	}
}

// GenerateAction runs the full pipeline for one user input: a single
// outbound generation call, then response processing. No retry; callers
// needing resilience re-invoke the whole pipeline. Cancellation flows
// through ctx.
func (p *Pipeline) GenerateAction(ctx context.Context, agentID, userInput string, temperature *float64) (model.Action, int64, error) {
	cfg := GenerateConfig{
		SystemInstruction: RecommendedSystemPrompt(),
		Temperature:       temperature,
		ForceJSONResponse: true,
	}

	log.Printf("[Pipeline] Sending user input to LLM for agent %s: %s", agentID, userInput)

	body, err := p.gemini.GenerateContent(ctx, userInput, cfg)
	if err != nil {
		return model.Action{}, 0, fmt.Errorf("generate: %w", err)
	}

	return p.process(ctx, agentID, userInput, body)
}

// ProcessResponse runs the response half of the pipeline on a raw provider
// response body, for callers that performed the HTTP call themselves
func (p *Pipeline) ProcessResponse(ctx context.Context, agentID, rawBody string) (model.Action, int64, error) {
	return p.process(ctx, agentID, "", rawBody)
}

func (p *Pipeline) process(ctx context.Context, agentID, userInput, rawBody string) (model.Action, int64, error) {
	jsonText, err := utils.ExtractJSONSubstring(rawBody)
	if err != nil {
		return model.Action{}, 0, fmt.Errorf("extract: %w", err)
	}
	log.Printf("[Pipeline] Extracted JSON: %s", jsonText)

	action, err := ParseAction(jsonText)
	if err != nil {
		return model.Action{}, 0, fmt.Errorf("parse: %w", err)
	}

	if err := ValidateAction(action); err != nil {
		log.Printf("[Pipeline] Action validation failed: %v", err)
		id := p.recordAction(ctx, agentID, userInput, &action, false, err.Error())
		return action, id, fmt.Errorf("validate: %w", err)
	}

	// Best effort: normalization never fails the pipeline
	action = NormalizeAction(action, p.resolver)

	bb := p.boards.For(agentID)
	if err := PublishAction(bb, action, p.threshold); err != nil {
		id := p.recordAction(ctx, agentID, userInput, &action, false, err.Error())
		return action, id, fmt.Errorf("publish: %w", err)
	}

	id := p.recordAction(ctx, agentID, userInput, &action, true, "")
	if userInput != "" {
		p.rememberUtterance(agentID, userInput, action.Intent)
	}

	log.Printf("[Pipeline] Published %s action for agent %s (confidence %.2f)", action.Intent, agentID, action.Confidence)
	return action, id, nil
}

// recordAction writes history when a repository is configured. Failures are
// logged, not fatal: the blackboard write already happened.
func (p *Pipeline) recordAction(ctx context.Context, agentID, userInput string, action *model.Action, accepted bool, reason string) int64 {
	if p.repo == nil {
		return 0
	}
	id, err := p.repo.LogAction(ctx, agentID, userInput, action, accepted, reason)
	if err != nil {
		log.Printf("Warning: failed to log action: %v", err)
		return 0
	}
	return id
}

// rememberUtterance embeds and stores the user input asynchronously so
// recall never adds latency to the action path
func (p *Pipeline) rememberUtterance(agentID, text string, intent model.Intent) {
	if p.repo == nil || p.gemini == nil || !p.gemini.IsEnabled() {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		embedding, err := p.gemini.EmbedText(ctx, text)
		if err != nil {
			log.Printf("Warning: failed to embed utterance: %v", err)
			return
		}
		if err := p.repo.SaveUtterance(ctx, agentID, text, string(intent), embedding); err != nil {
			log.Printf("Warning: failed to save utterance: %v", err)
		}
	}()
}

// Blackboard returns the blackboard for an agent
func (p *Pipeline) Blackboard(agentID string) *blackboard.Blackboard {
	return p.boards.For(agentID)
}
