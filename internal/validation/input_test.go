package validation

import "testing"

func TestValidatePrompt(t *testing.T) {
	if err := ValidatePrompt("a biomechanical cathedral kernel"); err != nil {
		t.Fatalf("valid prompt rejected: %v", err)
	}
	for _, prompt := range []string{"", "short", "         padded  "} {
		if err := ValidatePrompt(prompt); err == nil {
			t.Fatalf("prompt %q should be rejected", prompt)
		}
	}
}

func TestValidateDifficulty(t *testing.T) {
	for _, d := range []string{"easy", "normal", "hard"} {
		if err := ValidateDifficulty(d); err != nil {
			t.Fatalf("difficulty %q rejected: %v", d, err)
		}
	}
	for _, d := range []string{"", "nightmare", "EASY"} {
		if err := ValidateDifficulty(d); err == nil {
			t.Fatalf("difficulty %q should be rejected", d)
		}
	}
}

func TestValidatePlayerID(t *testing.T) {
	if err := ValidatePlayerID("player_42-abc"); err != nil {
		t.Fatalf("valid ID rejected: %v", err)
	}
	for _, id := range []string{"", "has spaces", "semi;colon", string(make([]byte, 65))} {
		if err := ValidatePlayerID(id); err == nil {
			t.Fatalf("ID %q should be rejected", id)
		}
	}
}

func TestValidateStageNum(t *testing.T) {
	for _, n := range []int{0, 5, 100} {
		if err := ValidateStageNum(n); err != nil {
			t.Fatalf("stage %d rejected: %v", n, err)
		}
	}
	for _, n := range []int{-1, 101} {
		if err := ValidateStageNum(n); err == nil {
			t.Fatalf("stage %d should be rejected", n)
		}
	}
}
