package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"npcbrain/internal/blackboard"
	"npcbrain/internal/model"
	"npcbrain/internal/utils"
)

// fakeRepo records pipeline persistence calls in memory
type fakeRepo struct {
	mu         sync.Mutex
	nextID     int64
	actions    []fakeLoggedAction
	utterances []string
}

type fakeLoggedAction struct {
	agentID  string
	input    string
	intent   model.Intent
	accepted bool
	reason   string
}

func (f *fakeRepo) LogAction(_ context.Context, agentID, userInput string, action *model.Action, accepted bool, rejectReason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.actions = append(f.actions, fakeLoggedAction{
		agentID:  agentID,
		input:    userInput,
		intent:   action.Intent,
		accepted: accepted,
		reason:   rejectReason,
	})
	return f.nextID, nil
}

func (f *fakeRepo) SaveUtterance(_ context.Context, agentID, text, intent string, _ []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.utterances = append(f.utterances, text)
	return nil
}

const speakResponseBody = `{"candidates":[{"content":{"parts":[{"text":"{\"intent\":\"Speak\",\"speak\":\"Hello\",\"confidence\":0.95}"}]}}]}`

func newTestPipeline(repo ActionRepository) *Pipeline {
	return NewPipeline(nil, blackboard.NewManager(), nil, repo, DefaultConfidenceThreshold)
}

func TestProcessResponse_EndToEnd(t *testing.T) {
	repo := &fakeRepo{}
	p := newTestPipeline(repo)

	action, id, err := p.ProcessResponse(context.Background(), "npc-1", speakResponseBody)
	if err != nil {
		t.Fatalf("ProcessResponse() error: %v", err)
	}
	if action.Intent != model.IntentSpeak || action.Speak != "Hello" {
		t.Errorf("action = %+v", action)
	}
	if id != 1 {
		t.Errorf("action id = %d, want 1", id)
	}

	bb := p.Blackboard("npc-1")
	if v, _ := bb.GetString(blackboard.KeyIntent); v != "Speak" {
		t.Errorf("Intent = %q", v)
	}
	if v, _ := bb.GetString(blackboard.KeySpeakText); v != "Hello" {
		t.Errorf("SpeakText = %q", v)
	}
	if v, _ := bb.GetFloat(blackboard.KeyConfidence); v != 0.95 {
		t.Errorf("Confidence = %f", v)
	}
	for _, key := range []string{
		blackboard.KeyTargetLocation,
		blackboard.KeyTargetID,
		blackboard.KeyTargetType,
		blackboard.KeyMontageName,
		blackboard.KeyMontageSection,
		blackboard.KeyMontagePlayRate,
		blackboard.KeyMontageLoop,
	} {
		if bb.Has(key) {
			t.Errorf("key %s should not be set for a Speak action", key)
		}
	}

	if len(repo.actions) != 1 || !repo.actions[0].accepted {
		t.Errorf("logged actions = %+v", repo.actions)
	}
}

func TestProcessResponse_ExtractionError(t *testing.T) {
	p := newTestPipeline(nil)

	_, _, err := p.ProcessResponse(context.Background(), "npc-1", `{"candidates":[]}`)
	if !errors.Is(err, utils.ErrNoCandidates) {
		t.Errorf("error = %v, want ErrNoCandidates", err)
	}
	if p.Blackboard("npc-1").Has(blackboard.KeyIntent) {
		t.Error("nothing should be published on extraction failure")
	}
}

func TestProcessResponse_ProseWrappedJSON(t *testing.T) {
	p := newTestPipeline(nil)

	body := `{"candidates":[{"content":{"parts":[{"text":"Sure! Here you go: {\"intent\":\"Speak\",\"speak\":\"Hi\",\"confidence\":0.8} Hope it helps."}]}}]}`
	action, _, err := p.ProcessResponse(context.Background(), "npc-1", body)
	if err != nil {
		t.Fatalf("ProcessResponse() error: %v", err)
	}
	if action.Intent != model.IntentSpeak || action.Speak != "Hi" {
		t.Errorf("action = %+v", action)
	}
}

func TestProcessResponse_RejectedActionLogged(t *testing.T) {
	repo := &fakeRepo{}
	p := newTestPipeline(repo)

	// Valid publish first, then a rejected one; the blackboard keeps the first
	if _, _, err := p.ProcessResponse(context.Background(), "npc-1", speakResponseBody); err != nil {
		t.Fatal(err)
	}

	lowConf := `{"candidates":[{"content":{"parts":[{"text":"{\"intent\":\"Speak\",\"speak\":\"psst\",\"confidence\":0.2}"}]}}]}`
	_, _, err := p.ProcessResponse(context.Background(), "npc-1", lowConf)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}

	bb := p.Blackboard("npc-1")
	if v, _ := bb.GetString(blackboard.KeySpeakText); v != "Hello" {
		t.Errorf("SpeakText = %q, previous action should survive", v)
	}

	if len(repo.actions) != 2 {
		t.Fatalf("logged actions = %d, want 2", len(repo.actions))
	}
	if repo.actions[1].accepted || repo.actions[1].reason == "" {
		t.Errorf("rejected action log = %+v", repo.actions[1])
	}
}

func TestProcessResponse_UnknownIntentPublishesIdle(t *testing.T) {
	p := newTestPipeline(nil)

	body := `{"candidates":[{"content":{"parts":[{"text":"{\"intent\":\"Backflip\",\"confidence\":0.9}"}]}}]}`
	action, _, err := p.ProcessResponse(context.Background(), "npc-1", body)
	if err != nil {
		t.Fatalf("ProcessResponse() error: %v", err)
	}
	if action.Intent != model.IntentIdle {
		t.Errorf("intent = %s, want Idle", action.Intent)
	}
	if v, _ := p.Blackboard("npc-1").GetString(blackboard.KeyIntent); v != "Idle" {
		t.Errorf("blackboard intent = %q", v)
	}
}

func TestProcessResponse_ResolverFillsLocation(t *testing.T) {
	resolver := &stubResolver{points: map[string]model.Vector3{
		"Fountain": {X: 100, Y: 200, Z: 0},
	}}
	p := NewPipeline(nil, blackboard.NewManager(), resolver, nil, DefaultConfidenceThreshold)

	body := `{"candidates":[{"content":{"parts":[{"text":"{\"intent\":\"MoveTo\",\"location\":\"Fountain\",\"confidence\":0.9}"}]}}]}`
	if _, _, err := p.ProcessResponse(context.Background(), "npc-1", body); err != nil {
		t.Fatal(err)
	}

	bb := p.Blackboard("npc-1")
	if v, _ := bb.GetVector(blackboard.KeyTargetLocation); v != (model.Vector3{X: 100, Y: 200, Z: 0}) {
		t.Errorf("TargetLocation = %+v", v)
	}
	if bb.Has(blackboard.KeyTargetID) {
		t.Error("resolved nav point should not also set TargetId")
	}
}

func TestProcessResponse_AgentsIsolated(t *testing.T) {
	p := newTestPipeline(nil)

	if _, _, err := p.ProcessResponse(context.Background(), "npc-1", speakResponseBody); err != nil {
		t.Fatal(err)
	}
	if p.Blackboard("npc-2").Has(blackboard.KeyIntent) {
		t.Error("publishing for one agent must not touch another's blackboard")
	}
}
