package effects

import (
	"strings"
	"testing"
)

func TestApplyOne(t *testing.T) {
	e := NewEvaluator()
	stats := Stats{"shield": 2, "score": 1000}

	if err := e.ApplyOne(stats, "shield+1"); err != nil {
		t.Fatalf("ApplyOne failed: %v", err)
	}
	if got := stats["shield"]; got != 3 {
		t.Fatalf("shield = %v, want 3", got)
	}

	if err := e.ApplyOne(stats, "score+500"); err != nil {
		t.Fatalf("ApplyOne failed: %v", err)
	}
	if got := stats["score"]; got != 1500 {
		t.Fatalf("score = %v, want 1500", got)
	}
}

func TestApplyOneMissingStatDefaultsToZero(t *testing.T) {
	e := NewEvaluator()
	stats := Stats{}

	if err := e.ApplyOne(stats, "bombs+2"); err != nil {
		t.Fatalf("ApplyOne failed: %v", err)
	}
	if got := stats["bombs"]; got != 2 {
		t.Fatalf("bombs = %v, want 2", got)
	}
}

func TestApplyOneMultiplicative(t *testing.T) {
	e := NewEvaluator()
	stats := Stats{"power": 4}

	if err := e.ApplyOne(stats, "power*2"); err != nil {
		t.Fatalf("ApplyOne failed: %v", err)
	}
	if got := stats["power"]; got != 8 {
		t.Fatalf("power = %v, want 8", got)
	}
}

func TestApplyOneRejectsBadEffects(t *testing.T) {
	e := NewEvaluator()
	stats := Stats{"shield": 2}

	for _, effect := range []string{"+1", "shield+", `"boom"`} {
		if err := e.ApplyOne(stats, effect); err == nil {
			t.Fatalf("effect %q should fail", effect)
		}
	}
	if got := stats["shield"]; got != 2 {
		t.Fatalf("failed effects must not change stats, shield = %v", got)
	}
}

func TestApplyCollectsFailures(t *testing.T) {
	e := NewEvaluator()
	stats := Stats{"shield": 1, "lives": 3}

	failed := e.Apply(stats, []string{"shield+1", "+broken", "lives+1"})
	if len(failed) != 1 {
		t.Fatalf("got %d failures, want 1: %+v", len(failed), failed)
	}
	if failed[0].Effect != "+broken" {
		t.Fatalf("wrong failed effect: %+v", failed[0])
	}
	if !strings.Contains(failed[0].Reason, "+broken") {
		t.Fatalf("reason should mention the effect: %q", failed[0].Reason)
	}
	if stats["shield"] != 2 || stats["lives"] != 4 {
		t.Fatalf("valid effects should still apply: %+v", stats)
	}
}

func TestCompiledProgramsReused(t *testing.T) {
	e := NewEvaluator()
	stats := Stats{"score": 0}

	for i := 0; i < 3; i++ {
		if err := e.ApplyOne(stats, "score+100"); err != nil {
			t.Fatalf("ApplyOne failed: %v", err)
		}
	}
	if got := stats["score"]; got != 300 {
		t.Fatalf("score = %v, want 300", got)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.programs) != 1 {
		t.Fatalf("expected 1 cached program, got %d", len(e.programs))
	}
}
