package service

import (
	"fmt"
	"log"

	"npcbrain/internal/blackboard"
	"npcbrain/internal/model"
)

// PublishAction writes a validated action into an agent's blackboard.
//
// Defense in depth: the threshold and validation checks run here again even
// though the pipeline already performed them, so a caller invoking the
// publish step directly still cannot write an invalid action. The write is
// all-or-nothing: checks run first, then every pipeline-owned key is
// cleared, then the keys relevant to the intent are set. A rejected action
// leaves the previous blackboard content untouched.
func PublishAction(bb *blackboard.Blackboard, action model.Action, threshold float64) error {
	if bb == nil {
		return fmt.Errorf("blackboard is nil")
	}

	if action.Confidence < threshold {
		log.Printf("[Publisher] Action confidence %.2f below threshold %.2f, not writing to blackboard",
			action.Confidence, threshold)
		return &ValidationError{Reason: fmt.Sprintf("confidence %.2f below threshold %.2f", action.Confidence, threshold)}
	}

	if err := ValidateAction(action); err != nil {
		log.Printf("[Publisher] Action validation failed: %v", err)
		return err
	}

	// Stale keys from a previous action must never linger after a new write
	bb.ClearActionKeys()

	bb.SetString(blackboard.KeyIntent, string(action.Intent))
	bb.SetFloat(blackboard.KeyConfidence, action.Confidence)

	switch action.Intent {
	case model.IntentMoveTo:
		if action.Location.UsesCoordinates {
			bb.SetVector(blackboard.KeyTargetLocation, action.Location.Coordinates)
			log.Printf("[Publisher] Set TargetLocation: (%.1f, %.1f, %.1f)",
				action.Location.Coordinates.X, action.Location.Coordinates.Y, action.Location.Coordinates.Z)
		} else {
			// Unresolved nav point name rides in TargetId for later resolution
			bb.SetString(blackboard.KeyTargetID, action.Location.NavPointName)
			log.Printf("[Publisher] Set TargetId (nav point): %s", action.Location.NavPointName)
		}

	case model.IntentInteract:
		if action.Target.ID != "" {
			bb.SetString(blackboard.KeyTargetID, action.Target.ID)
		}
		if action.Target.Type != "" {
			bb.SetString(blackboard.KeyTargetType, action.Target.Type)
		}
		log.Printf("[Publisher] Set Interact target: id=%s type=%s", action.Target.ID, action.Target.Type)

	case model.IntentSpeak:
		bb.SetString(blackboard.KeySpeakText, action.Speak)
		log.Printf("[Publisher] Set SpeakText: %s", action.Speak)

	case model.IntentPlayMontage:
		bb.SetString(blackboard.KeyMontageName, action.Montage.Name)
		bb.SetString(blackboard.KeyMontageSection, action.Montage.Section)
		bb.SetFloat(blackboard.KeyMontagePlayRate, action.Montage.PlayRate)
		bb.SetBool(blackboard.KeyMontageLoop, action.Montage.Loop)
		log.Printf("[Publisher] Set Montage: name=%s section=%s rate=%.2f loop=%v",
			action.Montage.Name, action.Montage.Section, action.Montage.PlayRate, action.Montage.Loop)
	}

	return nil
}
