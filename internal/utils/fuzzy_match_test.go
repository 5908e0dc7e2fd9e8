package utils

import (
	"testing"
)

func TestFuzzyMatchNavPoint(t *testing.T) {
	tests := []struct {
		name     string
		spoken   string
		navPoint string
		want     bool
	}{
		{
			name:     "Exact match",
			spoken:   "Fountain",
			navPoint: "fountain",
			want:     true,
		},
		{
			name:     "Spoken contained in nav point",
			spoken:   "fountain",
			navPoint: "Fountain Square",
			want:     true,
		},
		{
			name:     "Nav point contained in spoken",
			spoken:   "the old market",
			navPoint: "Market",
			want:     true,
		},
		{
			name:     "Alias match",
			spoken:   "the inn",
			navPoint: "Tavern",
			want:     true,
		},
		{
			name:     "Alias match reversed",
			spoken:   "harbor",
			navPoint: "East Dock",
			want:     true,
		},
		{
			name:     "No relation",
			spoken:   "fountain",
			navPoint: "Graveyard",
			want:     false,
		},
		{
			name:     "Empty spoken",
			spoken:   "",
			navPoint: "Fountain",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FuzzyMatchNavPoint(tt.spoken, tt.navPoint)
			if got != tt.want {
				t.Errorf("FuzzyMatchNavPoint(%q, %q) = %v, want %v", tt.spoken, tt.navPoint, got, tt.want)
			}
		})
	}
}

func TestNormalizeNavPointName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Alias collapses to group key",
			input: "the smithy",
			want:  "forge",
		},
		{
			name:  "Key passes through",
			input: "fountain",
			want:  "fountain",
		},
		{
			name:  "Unknown name trimmed only",
			input: "  Wizard Hut  ",
			want:  "Wizard Hut",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeNavPointName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeNavPointName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
