package db

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCampaignLifecycle(t *testing.T) {
	db := newTestDB(t)

	id, err := db.CreateCampaign("player-1")
	if err != nil {
		t.Fatalf("CreateCampaign failed: %v", err)
	}

	c, err := db.GetCampaign(id)
	if err != nil {
		t.Fatalf("GetCampaign failed: %v", err)
	}
	if c.PlayerID != "player-1" {
		t.Fatalf("player_id = %q", c.PlayerID)
	}
	if c.Lives != 3 || c.Bombs != 3 || c.PowerLevel != 1 || c.CurrentStageNum != 0 {
		t.Fatalf("unexpected campaign defaults: %+v", c)
	}

	ok, err := db.UpdateCampaign(id, map[string]any{
		"current_stage_num": 2,
		"total_score":       15000,
		"lives":             2,
	})
	if err != nil || !ok {
		t.Fatalf("UpdateCampaign = %v, %v", ok, err)
	}

	c, err = db.GetCampaign(id)
	if err != nil {
		t.Fatalf("GetCampaign after update failed: %v", err)
	}
	if c.CurrentStageNum != 2 || c.TotalScore != 15000 || c.Lives != 2 {
		t.Fatalf("update not applied: %+v", c)
	}
}

func TestUpdateCampaignIgnoresUnknownFields(t *testing.T) {
	db := newTestDB(t)
	id, _ := db.CreateCampaign("player-1")

	ok, err := db.UpdateCampaign(id, map[string]any{"player_id": "hijacked", "nonsense": 1})
	if err != nil {
		t.Fatalf("UpdateCampaign failed: %v", err)
	}
	if ok {
		t.Fatal("update with only unknown fields should report false")
	}
	c, _ := db.GetCampaign(id)
	if c.PlayerID != "player-1" {
		t.Fatalf("player_id must not be updatable, got %q", c.PlayerID)
	}
}

func TestUpdateCampaignMissing(t *testing.T) {
	db := newTestDB(t)
	ok, err := db.UpdateCampaign("no-such-campaign", map[string]any{"lives": 1})
	if err != nil {
		t.Fatalf("UpdateCampaign failed: %v", err)
	}
	if ok {
		t.Fatal("update of missing campaign should report false")
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetCampaign("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPlayerCampaigns(t *testing.T) {
	db := newTestDB(t)
	db.CreateCampaign("player-1")
	db.CreateCampaign("player-1")
	db.CreateCampaign("player-2")

	campaigns, err := db.GetPlayerCampaigns("player-1")
	if err != nil {
		t.Fatalf("GetPlayerCampaigns failed: %v", err)
	}
	if len(campaigns) != 2 {
		t.Fatalf("got %d campaigns, want 2", len(campaigns))
	}
}

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	campaignID, _ := db.CreateCampaign("player-1")

	sessionID, err := db.CreateSession(campaignID, "game-abc", 0, map[string]any{
		"score": 100, "lives": 3,
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	ok, err := db.CompleteSession(sessionID, map[string]any{
		"score": 42000, "lives": 1, "time_sec": 183,
	})
	if err != nil || !ok {
		t.Fatalf("CompleteSession = %v, %v", ok, err)
	}

	sessions, err := db.GetCampaignSessions(campaignID)
	if err != nil {
		t.Fatalf("GetCampaignSessions failed: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
	s := sessions[0]
	if !s.Completed || s.Score != 42000 || s.CompletionTime == "" {
		t.Fatalf("completion not recorded: %+v", s)
	}
	if got := s.PlayerStats["time_sec"]; got != float64(183) {
		t.Fatalf("player_stats round trip lost time_sec: %v", got)
	}
}

func TestCompleteSessionMissing(t *testing.T) {
	db := newTestDB(t)
	ok, err := db.CompleteSession("no-such-session", map[string]any{"score": 1})
	if err != nil {
		t.Fatalf("CompleteSession failed: %v", err)
	}
	if ok {
		t.Fatal("completing a missing session should report false")
	}
}

func TestSharedStagePool(t *testing.T) {
	db := newTestDB(t)

	gameData := map[string]any{"game_id": "stage-1", "story": map[string]any{"os_name": "VOIDOS"}}
	stageID, err := db.SaveCompletedStage("player-1", gameData, "haunted kernel", "hard")
	if err != nil {
		t.Fatalf("SaveCompletedStage failed: %v", err)
	}
	if stageID != "stage-1" {
		t.Fatalf("stage should be keyed by game_id, got %q", stageID)
	}

	// Creator exclusion leaves the pool empty.
	if _, err := db.GetRandomStage("player-1", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for excluded creator, got %v", err)
	}

	// Difficulty filter.
	if _, err := db.GetRandomStage("", "easy"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for difficulty miss, got %v", err)
	}

	stage, err := db.GetRandomStage("player-2", "hard")
	if err != nil {
		t.Fatalf("GetRandomStage failed: %v", err)
	}
	if stage.StageID != "stage-1" || stage.GameData["game_id"] != "stage-1" {
		t.Fatalf("unexpected stage: %+v", stage)
	}
}

func TestSaveCompletedStageWithoutGameID(t *testing.T) {
	db := newTestDB(t)
	stageID, err := db.SaveCompletedStage("player-1", map[string]any{"story": "x"}, "prompt text", "")
	if err != nil {
		t.Fatalf("SaveCompletedStage failed: %v", err)
	}
	if stageID == "" {
		t.Fatal("stage ID should be generated when game_id is absent")
	}
	stats, err := db.GetStageStats(stageID)
	if err != nil {
		t.Fatalf("GetStageStats failed: %v", err)
	}
	if stats.Difficulty != "normal" {
		t.Fatalf("difficulty should default to normal, got %q", stats.Difficulty)
	}
}

func TestIncrementStagePlays(t *testing.T) {
	db := newTestDB(t)
	stageID, _ := db.SaveCompletedStage("player-1", map[string]any{"game_id": "s"}, "p", "normal")

	for _, score := range []int{1000, 3000} {
		if err := db.IncrementStagePlays(stageID, score); err != nil {
			t.Fatalf("IncrementStagePlays failed: %v", err)
		}
	}

	stats, err := db.GetStageStats(stageID)
	if err != nil {
		t.Fatalf("GetStageStats failed: %v", err)
	}
	if stats.TimesPlayed != 2 {
		t.Fatalf("times_played = %d, want 2", stats.TimesPlayed)
	}
	if stats.AverageScore != 2000 {
		t.Fatalf("average_score = %d, want 2000", stats.AverageScore)
	}
}

func TestIncrementStagePlaysMissing(t *testing.T) {
	db := newTestDB(t)
	if err := db.IncrementStagePlays("ghost", 100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetStats(t *testing.T) {
	db := newTestDB(t)
	campaignID, _ := db.CreateCampaign("player-1")
	db.CreateSession(campaignID, "g", 0, map[string]any{})
	db.SaveCompletedStage("player-1", map[string]any{"game_id": "s"}, "p", "easy")

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.Campaigns != 1 || stats.Sessions != 1 || stats.CompletedStages != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.DatabasePath == "" {
		t.Fatal("database path should be reported")
	}
}
