package game

import "testing"

func TestValidUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     bool
	}{
		{name: "ascii", username: "mia", want: true},
		{name: "digits-and-underscore", username: "kid_42", want: true},
		{name: "cjk", username: "小明", want: true},
		{name: "mixed-cjk-ascii", username: "mia小明", want: true},
		{name: "min-length", username: "ab", want: true},
		{name: "max-length", username: "abcdefghij0123456789", want: true},
		{name: "too-short", username: "a", want: false},
		{name: "too-long", username: "abcdefghij0123456789x", want: false},
		{name: "space", username: "mi a", want: false},
		{name: "punctuation", username: "mia!", want: false},
		{name: "empty", username: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidUsername(tt.username); got != tt.want {
				t.Fatalf("ValidUsername(%q) = %v, want %v", tt.username, got, tt.want)
			}
		})
	}
}

func TestNormalizeMode(t *testing.T) {
	tests := []struct {
		raw  string
		want Mode
	}{
		{raw: "survival", want: ModeSurvival},
		{raw: "level", want: ModeLevel},
		{raw: "training", want: ModeTraining},
		{raw: "", want: ModeSurvival},
		{raw: "speedrun", want: ModeSurvival},
		{raw: "SURVIVAL", want: ModeSurvival},
	}
	for _, tt := range tests {
		if got := NormalizeMode(tt.raw); got != tt.want {
			t.Fatalf("NormalizeMode(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
