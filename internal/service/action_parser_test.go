package service

import (
	"errors"
	"strings"
	"testing"

	"npcbrain/internal/model"
)

func TestParseAction_Intents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.Intent
	}{
		{
			name:  "MoveTo",
			input: `{"intent":"MoveTo"}`,
			want:  model.IntentMoveTo,
		},
		{
			name:  "Case insensitive",
			input: `{"intent":"moveto"}`,
			want:  model.IntentMoveTo,
		},
		{
			name:  "Mixed case interact",
			input: `{"intent":"InTeRaCt"}`,
			want:  model.IntentInteract,
		},
		{
			name:  "Speak",
			input: `{"intent":"SPEAK"}`,
			want:  model.IntentSpeak,
		},
		{
			name:  "PlayMontage",
			input: `{"intent":"playMontage"}`,
			want:  model.IntentPlayMontage,
		},
		{
			name:  "Idle",
			input: `{"intent":"idle"}`,
			want:  model.IntentIdle,
		},
		{
			name:  "Unknown degrades to Idle",
			input: `{"intent":"Backflip"}`,
			want:  model.IntentIdle,
		},
		{
			name:  "Empty string degrades to Idle",
			input: `{"intent":""}`,
			want:  model.IntentIdle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.input)
			if err != nil {
				t.Fatalf("ParseAction() unexpected error: %v", err)
			}
			if action.Intent != tt.want {
				t.Errorf("ParseAction() intent = %s, want %s", action.Intent, tt.want)
			}
		})
	}
}

func TestParseAction_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "Not JSON",
			input:   "not json",
			wantErr: ErrMalformedAction,
		},
		{
			name:    "JSON array instead of object",
			input:   `[1,2,3]`,
			wantErr: ErrMalformedAction,
		},
		{
			name:    "JSON null",
			input:   `null`,
			wantErr: ErrMalformedAction,
		},
		{
			name:    "Missing intent field",
			input:   `{"speak":"hi"}`,
			wantErr: ErrMissingIntent,
		},
		{
			name:    "Intent is not a string",
			input:   `{"intent":42}`,
			wantErr: ErrMissingIntent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAction(tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseAction() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseAction_Fields(t *testing.T) {
	t.Run("Target", func(t *testing.T) {
		action, err := ParseAction(`{"intent":"Interact","target":{"id":"Door_Main","type":"Door"}}`)
		if err != nil {
			t.Fatal(err)
		}
		if action.Target.ID != "Door_Main" || action.Target.Type != "Door" {
			t.Errorf("target = %+v", action.Target)
		}
	})

	t.Run("Target absent stays empty", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"Idle"}`)
		if !action.Target.IsEmpty() {
			t.Errorf("target should be empty, got %+v", action.Target)
		}
	})

	t.Run("Location coordinates", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"MoveTo","location":{"x":1,"y":2.5,"z":-3}}`)
		if !action.Location.UsesCoordinates {
			t.Fatal("expected coordinates mode")
		}
		want := model.Vector3{X: 1, Y: 2.5, Z: -3}
		if action.Location.Coordinates != want {
			t.Errorf("coordinates = %+v, want %+v", action.Location.Coordinates, want)
		}
	})

	t.Run("Location named point", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"MoveTo","location":"Fountain"}`)
		if action.Location.UsesCoordinates {
			t.Fatal("expected named mode")
		}
		if action.Location.NavPointName != "Fountain" {
			t.Errorf("nav point = %q", action.Location.NavPointName)
		}
	})

	t.Run("Location object missing axis keeps default", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"MoveTo","location":{"x":1,"y":2}}`)
		if !action.Location.UsesCoordinates || !action.Location.Coordinates.IsZero() {
			t.Errorf("location = %+v, want default zero coordinates", action.Location)
		}
	})

	t.Run("Location absent keeps default", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"Idle"}`)
		if !action.Location.UsesCoordinates || !action.Location.Coordinates.IsZero() {
			t.Errorf("location = %+v", action.Location)
		}
	})

	t.Run("Params passthrough", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"Idle","params":{"mood": "cheerful", "n": 2}}`)
		if action.Params != `{"mood":"cheerful","n":2}` {
			t.Errorf("params = %q", action.Params)
		}
	})

	t.Run("Malformed params ignored", func(t *testing.T) {
		action, err := ParseAction(`{"intent":"Idle","params":"not an object"}`)
		if err != nil {
			t.Fatalf("malformed params must not fail the action: %v", err)
		}
		if action.Params != "" {
			t.Errorf("params = %q, want empty", action.Params)
		}
	})

	t.Run("Confidence clamped high", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"Idle","confidence":1.7}`)
		if action.Confidence != 1.0 {
			t.Errorf("confidence = %f, want 1.0", action.Confidence)
		}
	})

	t.Run("Confidence clamped low", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"Idle","confidence":-0.2}`)
		if action.Confidence != 0.0 {
			t.Errorf("confidence = %f, want 0.0", action.Confidence)
		}
	})

	t.Run("Confidence defaults to 1.0", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"Idle"}`)
		if action.Confidence != 1.0 {
			t.Errorf("confidence = %f, want 1.0", action.Confidence)
		}
	})

	t.Run("Montage fields", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"PlayMontage","montage":{"name":"Dance","section":"Loop","playRate":1.5,"loop":true}}`)
		m := action.Montage
		if m.Name != "Dance" || m.Section != "Loop" || m.PlayRate != 1.5 || !m.Loop {
			t.Errorf("montage = %+v", m)
		}
	})

	t.Run("Montage defaults", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"PlayMontage","montage":{"name":"Wave"}}`)
		if action.Montage.PlayRate != 1.0 || action.Montage.Loop {
			t.Errorf("montage = %+v, want playRate 1.0 loop false", action.Montage)
		}
	})

	t.Run("Non-positive playRate keeps default", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"PlayMontage","montage":{"name":"Wave","playRate":-2}}`)
		if action.Montage.PlayRate != 1.0 {
			t.Errorf("playRate = %f, want 1.0", action.Montage.PlayRate)
		}
	})

	t.Run("RawJSON preserved", func(t *testing.T) {
		src := `{"intent":"Idle"}`
		action, _ := ParseAction(src)
		if action.RawJSON != src {
			t.Errorf("raw json = %q", action.RawJSON)
		}
	})
}

func TestValidateAction(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantOK  bool
		wantMsg string
	}{
		{
			name:   "Idle always valid",
			json:   `{"intent":"Idle","confidence":0.1}`,
			wantOK: true,
		},
		{
			name:    "Low confidence rejected",
			json:    `{"intent":"Speak","speak":"hi","confidence":0.4}`,
			wantOK:  false,
			wantMsg: "confidence",
		},
		{
			name:   "Confidence exactly at threshold accepted",
			json:   `{"intent":"Speak","speak":"hi","confidence":0.5}`,
			wantOK: true,
		},
		{
			name:    "MoveTo with zero coordinates rejected",
			json:    `{"intent":"MoveTo","location":{"x":0,"y":0,"z":0},"confidence":0.9}`,
			wantOK:  false,
			wantMsg: "non-zero coordinates",
		},
		{
			name:   "MoveTo with named point accepted",
			json:   `{"intent":"MoveTo","location":"Fountain","confidence":0.9}`,
			wantOK: true,
		},
		{
			name:   "MoveTo with real coordinates accepted",
			json:   `{"intent":"MoveTo","location":{"x":10,"y":0,"z":0},"confidence":0.9}`,
			wantOK: true,
		},
		{
			name:    "MoveTo with empty named point rejected",
			json:    `{"intent":"MoveTo","location":"","confidence":0.9}`,
			wantOK:  false,
			wantMsg: "nav point",
		},
		{
			name:    "Interact without target rejected",
			json:    `{"intent":"Interact","confidence":0.9}`,
			wantOK:  false,
			wantMsg: "target",
		},
		{
			name:   "Interact with target type accepted",
			json:   `{"intent":"Interact","target":{"type":"Guard"},"confidence":0.9}`,
			wantOK: true,
		},
		{
			name:    "Speak empty rejected",
			json:    `{"intent":"Speak","speak":"","confidence":0.9}`,
			wantOK:  false,
			wantMsg: "non-empty",
		},
		{
			name:    "PlayMontage without name rejected",
			json:    `{"intent":"PlayMontage","confidence":0.9}`,
			wantOK:  false,
			wantMsg: "montage name",
		},
		{
			name:   "PlayMontage with name accepted",
			json:   `{"intent":"PlayMontage","montage":{"name":"Dance"},"confidence":0.9}`,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := ParseAction(tt.json)
			if err != nil {
				t.Fatalf("ParseAction() error: %v", err)
			}

			err = ValidateAction(action)
			if tt.wantOK {
				if err != nil {
					t.Errorf("ValidateAction() = %v, want nil", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("ValidateAction() = %v, want *ValidationError", err)
			}
			if !strings.Contains(verr.Reason, tt.wantMsg) {
				t.Errorf("reason %q does not mention %q", verr.Reason, tt.wantMsg)
			}
		})
	}
}

func TestValidateAction_SpeakLength(t *testing.T) {
	base := model.NewAction()
	base.Intent = model.IntentSpeak
	base.Confidence = 0.9

	base.Speak = strings.Repeat("a", 500)
	if err := ValidateAction(base); err != nil {
		t.Errorf("500 chars should pass: %v", err)
	}

	base.Speak = strings.Repeat("a", 501)
	if err := ValidateAction(base); err == nil {
		t.Error("501 chars should fail")
	}
}

// stubResolver resolves a fixed set of names
type stubResolver struct {
	points map[string]model.Vector3
}

func (s *stubResolver) ResolveNavPoint(name string) (model.Vector3, bool) {
	p, ok := s.points[name]
	return p, ok
}

func TestNormalizeAction(t *testing.T) {
	t.Run("Confidence sentinel promoted", func(t *testing.T) {
		action := model.NewAction()
		action.Confidence = 0
		got := NormalizeAction(action, nil)
		if got.Confidence != 1.0 {
			t.Errorf("confidence = %f, want 1.0", got.Confidence)
		}
	})

	t.Run("Explicit low confidence untouched", func(t *testing.T) {
		action := model.NewAction()
		action.Confidence = 0.3
		got := NormalizeAction(action, nil)
		if got.Confidence != 0.3 {
			t.Errorf("confidence = %f, want 0.3", got.Confidence)
		}
	})

	t.Run("Nil resolver leaves named location", func(t *testing.T) {
		action, _ := ParseAction(`{"intent":"MoveTo","location":"Fountain","confidence":0.9}`)
		got := NormalizeAction(action, nil)
		if got.Location.UsesCoordinates || got.Location.NavPointName != "Fountain" {
			t.Errorf("location = %+v", got.Location)
		}
	})

	t.Run("Resolver fills coordinates", func(t *testing.T) {
		resolver := &stubResolver{points: map[string]model.Vector3{
			"Fountain": {X: 100, Y: 200, Z: 0},
		}}
		action, _ := ParseAction(`{"intent":"MoveTo","location":"Fountain","confidence":0.9}`)
		got := NormalizeAction(action, resolver)
		if !got.Location.UsesCoordinates {
			t.Fatal("expected coordinates mode after resolution")
		}
		if got.Location.Coordinates != (model.Vector3{X: 100, Y: 200, Z: 0}) {
			t.Errorf("coordinates = %+v", got.Location.Coordinates)
		}
	})

	t.Run("Unresolvable name left pending", func(t *testing.T) {
		resolver := &stubResolver{points: map[string]model.Vector3{}}
		action, _ := ParseAction(`{"intent":"MoveTo","location":"Nowhere","confidence":0.9}`)
		got := NormalizeAction(action, resolver)
		if got.Location.UsesCoordinates || got.Location.NavPointName != "Nowhere" {
			t.Errorf("location = %+v", got.Location)
		}
	})

	t.Run("Non-positive play rate reset", func(t *testing.T) {
		action := model.NewAction()
		action.Montage.PlayRate = -1
		got := NormalizeAction(action, nil)
		if got.Montage.PlayRate != 1.0 {
			t.Errorf("playRate = %f, want 1.0", got.Montage.PlayRate)
		}
	})
}
