package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"unicode/utf8"

	"npcbrain/internal/model"
)

// DefaultConfidenceThreshold gates publishing when the caller doesn't supply one
const DefaultConfidenceThreshold = 0.5

// SpeakMaxLen caps speak text length in characters
const SpeakMaxLen = 500

// Parse failures
var (
	ErrMalformedAction = errors.New("action text is not a JSON object")
	ErrMissingIntent   = errors.New("action is missing the 'intent' field")
)

// ValidationError is a business-rule rejection. Frequent and expected with
// LLM output; callers must not execute an action that failed validation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NameResolver resolves named navigation points to world coordinates.
// Implemented by the nav point registry; the normalizer only consumes it.
type NameResolver interface {
	ResolveNavPoint(name string) (model.Vector3, bool)
}

// ParseAction deserializes a JSON action payload into a typed Action.
// Tolerant of missing optional fields: only a malformed document or a
// missing intent is fatal. Unknown intent strings degrade to Idle because
// the producing model is untrusted.
func ParseAction(jsonText string) (model.Action, error) {
	action := model.NewAction()
	action.RawJSON = jsonText

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonText), &fields); err != nil {
		return action, fmt.Errorf("%w: %v", ErrMalformedAction, err)
	}
	if fields == nil {
		return action, ErrMalformedAction
	}

	// intent (required)
	intentStr, ok := tryString(fields["intent"])
	if !ok {
		return action, ErrMissingIntent
	}
	intent, known := model.ParseIntent(intentStr)
	if !known {
		log.Printf("[ActionParser] Unknown intent '%s', defaulting to Idle", intentStr)
	}
	action.Intent = intent

	// target (optional)
	if raw, ok := fields["target"]; ok {
		var target struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &target); err == nil {
			action.Target.ID = target.ID
			action.Target.Type = target.Type
		}
	}

	// location (optional): object with numeric x,y,z means coordinates,
	// a plain string means a named nav point. Anything else keeps the
	// default zero-coordinates mode; per-intent validation catches it.
	if raw, ok := fields["location"]; ok {
		var coords struct {
			X *float64 `json:"x"`
			Y *float64 `json:"y"`
			Z *float64 `json:"z"`
		}
		if err := json.Unmarshal(raw, &coords); err == nil &&
			coords.X != nil && coords.Y != nil && coords.Z != nil {
			action.Location.Coordinates = model.Vector3{X: *coords.X, Y: *coords.Y, Z: *coords.Z}
			action.Location.UsesCoordinates = true
		} else if name, ok := tryString(raw); ok {
			action.Location.NavPointName = name
			action.Location.UsesCoordinates = false
		}
	}

	// speak (optional)
	if speak, ok := tryString(fields["speak"]); ok {
		action.Speak = speak
	}

	// params (optional): kept as an opaque JSON string. A malformed extras
	// object is ignored rather than failing the whole action.
	if raw, ok := fields["params"]; ok {
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err == nil && obj != nil {
			var buf bytes.Buffer
			if err := json.Compact(&buf, raw); err == nil {
				action.Params = buf.String()
			}
		}
	}

	// confidence (optional, clamped, default 1.0)
	if conf, ok := tryFloat(fields["confidence"]); ok {
		action.Confidence = clamp01(conf)
	}

	// montage (optional)
	if raw, ok := fields["montage"]; ok {
		var montage struct {
			Name     string   `json:"name"`
			Section  string   `json:"section"`
			PlayRate *float64 `json:"playRate"`
			Loop     bool     `json:"loop"`
		}
		if err := json.Unmarshal(raw, &montage); err == nil {
			action.Montage.Name = montage.Name
			action.Montage.Section = montage.Section
			action.Montage.Loop = montage.Loop
			if montage.PlayRate != nil {
				if *montage.PlayRate > 0 {
					action.Montage.PlayRate = *montage.PlayRate
				} else {
					log.Printf("[ActionParser] Ignoring non-positive montage playRate %.2f", *montage.PlayRate)
				}
			}
		}
	}

	log.Printf("[ActionParser] Parsed action - Intent: %s, Confidence: %.2f", action.Intent, action.Confidence)
	return action, nil
}

// ValidateAction applies the per-intent business rules, first failure wins.
// Idle short-circuits everything; every other intent must clear the fixed
// confidence floor before its own rule runs.
func ValidateAction(action model.Action) error {
	if action.Intent == model.IntentIdle {
		return nil
	}

	if action.Confidence < DefaultConfidenceThreshold {
		return reject("confidence %.2f below threshold %.2f", action.Confidence, DefaultConfidenceThreshold)
	}

	switch action.Intent {
	case model.IntentMoveTo:
		if action.Location.UsesCoordinates {
			if action.Location.Coordinates.IsZero() {
				return reject("MoveTo requires non-zero coordinates")
			}
		} else if action.Location.NavPointName == "" {
			return reject("MoveTo requires either coordinates or a nav point name")
		}
		return nil

	case model.IntentInteract:
		if action.Target.IsEmpty() {
			return reject("Interact requires target id or type")
		}
		return nil

	case model.IntentSpeak:
		if action.Speak == "" {
			return reject("Speak requires non-empty speak text")
		}
		if utf8.RuneCountInString(action.Speak) > SpeakMaxLen {
			return reject("Speak text exceeds %d character limit", SpeakMaxLen)
		}
		return nil

	case model.IntentPlayMontage:
		if action.Montage.Name == "" {
			return reject("PlayMontage requires a montage name")
		}
		return nil
	}

	return reject("unknown intent: %s", action.Intent)
}

// NormalizeAction applies defaults and attempts named-location resolution.
// Best effort: it never fails the pipeline, it only improves the action.
func NormalizeAction(action model.Action, resolver NameResolver) model.Action {
	if action.Intent == model.IntentMoveTo && !action.Location.UsesCoordinates {
		if resolver == nil {
			log.Printf("[ActionParser] Nav point '%s' requires game-side resolution, leaving as-is", action.Location.NavPointName)
		} else if pos, ok := resolver.ResolveNavPoint(action.Location.NavPointName); ok {
			action.Location.Coordinates = pos
			action.Location.UsesCoordinates = true
			log.Printf("[ActionParser] Resolved nav point '%s' to (%.1f, %.1f, %.1f)",
				action.Location.NavPointName, pos.X, pos.Y, pos.Z)
		} else {
			log.Printf("[ActionParser] Nav point '%s' not registered, resolution pending", action.Location.NavPointName)
		}
	}

	// 0.0 doubles as the unset sentinel; a genuine zero score from the
	// model is indistinguishable and is promoted too.
	if action.Confidence == 0 {
		action.Confidence = 1.0
	}

	if action.Montage.PlayRate <= 0 {
		action.Montage.PlayRate = 1.0
	}

	return action
}

func reject(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func tryString(raw json.RawMessage) (string, bool) {
	if raw == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func tryFloat(raw json.RawMessage) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
