package domain

import "testing"

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"easy", DifficultyEasy, false},
		{" Medium ", DifficultyMedium, false},
		{"HARD", DifficultyHard, false},
		{"expert", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDifficulty(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDifficulty(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDifficultyRankOrder(t *testing.T) {
	if !(DifficultyEasy.Rank() < DifficultyMedium.Rank() && DifficultyMedium.Rank() < DifficultyHard.Rank()) {
		t.Fatalf("difficulty ranks are not ordered: %d %d %d",
			DifficultyEasy.Rank(), DifficultyMedium.Rank(), DifficultyHard.Rank())
	}
}

func TestSupportsLanguageIgnoresCase(t *testing.T) {
	c := &Challenge{Languages: []string{"python", "JavaScript"}}
	if !c.SupportsLanguage("javascript") {
		t.Errorf("expected javascript to be supported")
	}
	if c.SupportsLanguage("go") {
		t.Errorf("expected go to be unsupported")
	}
}

func TestCaseVerdictTerminality(t *testing.T) {
	for _, r := range []FailureReason{ReasonNone, ReasonWrongAnswer, ReasonCompileError, ReasonRuntimeError, ReasonTimeout} {
		if !(CaseVerdict{Reason: r}).IsTerminal() {
			t.Errorf("reason %q should be terminal", r)
		}
	}
	for _, r := range []FailureReason{ReasonInfrastructure, ReasonUnsupportedLanguage} {
		if (CaseVerdict{Reason: r}).IsTerminal() {
			t.Errorf("reason %q must not be terminal", r)
		}
	}
}
