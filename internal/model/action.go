package model

import "strings"

// Intent is the action category classified from LLM output
type Intent string

const (
	IntentIdle        Intent = "Idle"
	IntentMoveTo      Intent = "MoveTo"
	IntentInteract    Intent = "Interact"
	IntentSpeak       Intent = "Speak"
	IntentPlayMontage Intent = "PlayMontage"
)

// ParseIntent maps an intent string to the closed Intent set (case-insensitive).
// Unknown strings map to Idle; LLM output is untrusted, so this never fails.
func ParseIntent(s string) (Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "moveto":
		return IntentMoveTo, true
	case "interact":
		return IntentInteract, true
	case "speak":
		return IntentSpeak, true
	case "playmontage":
		return IntentPlayMontage, true
	case "idle":
		return IntentIdle, true
	}
	return IntentIdle, false
}

// Vector3 is a world-space position
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IsZero reports whether all components are zero
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Target identifies what an Interact action operates on
type Target struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type,omitempty"`
}

// IsEmpty reports whether neither id nor type is set
func (t Target) IsEmpty() bool {
	return t.ID == "" && t.Type == ""
}

// Location is either world coordinates or a named navigation point.
// UsesCoordinates discriminates which representation is meaningful.
type Location struct {
	Coordinates     Vector3 `json:"coordinates"`
	NavPointName    string  `json:"nav_point_name,omitempty"`
	UsesCoordinates bool    `json:"uses_coordinates"`
}

// MontageSpec describes a named animation sequence for PlayMontage actions
type MontageSpec struct {
	Name     string  `json:"name,omitempty"`
	Section  string  `json:"section,omitempty"`
	PlayRate float64 `json:"play_rate"`
	Loop     bool    `json:"loop"`
}

// Action is a parsed and validated command for an NPC.
// Value-typed: produced fresh per parse, optionally adjusted once by
// normalization, then consumed by the blackboard write and discarded.
type Action struct {
	Intent     Intent      `json:"intent"`
	Target     Target      `json:"target,omitempty"`
	Location   Location    `json:"location"`
	Speak      string      `json:"speak,omitempty"`
	Montage    MontageSpec `json:"montage,omitempty"`
	Params     string      `json:"params,omitempty"` // opaque JSON passthrough
	Confidence float64     `json:"confidence"`
	RawJSON    string      `json:"raw_json,omitempty"` // original source text, for diagnostics
}

// NewAction returns an action with the parse-time defaults applied
func NewAction() Action {
	return Action{
		Intent: IntentIdle,
		Location: Location{
			UsesCoordinates: true,
		},
		Montage: MontageSpec{
			PlayRate: 1.0,
		},
		Confidence: 1.0,
	}
}
