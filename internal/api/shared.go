package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fantasyos/shmup-server/internal/db"
	"github.com/fantasyos/shmup-server/internal/effects"
	"github.com/fantasyos/shmup-server/internal/validation"
)

// saveGame records campaign progress and, for completed runs, feeds the
// stage into the shared pool.
func (s *Server) saveGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerID      string         `json:"player_id"`
		CampaignID    string         `json:"campaign_id"`
		GameID        string         `json:"game_id"`
		GameData      map[string]any `json:"game_data"`
		PlayerPrompt  string         `json:"player_prompt"`
		Difficulty    string         `json:"difficulty"`
		StageNum      int            `json:"stage_num"`
		PlayerStats   map[string]any `json:"player_stats"`
		PickupEffects []string       `json:"pickup_effects"`
		Completed     bool           `json:"completed"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if req.PlayerID == "" || req.GameID == "" {
		writeError(w, http.StatusBadRequest, "Missing player_id or game_id")
		return
	}
	if err := validation.ValidatePlayerID(req.PlayerID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateStageNum(req.StageNum); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlayerStats == nil {
		req.PlayerStats = map[string]any{}
	}

	campaignID := req.CampaignID
	if campaignID == "" {
		var err error
		campaignID, err = s.db.CreateCampaign(req.PlayerID)
		if err != nil {
			log.Printf("api: failed to create campaign: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to save game")
			return
		}
	} else if _, err := s.db.GetCampaign(campaignID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save game")
		return
	}

	// Completed runs apply pickup effects to the stats before recording them.
	var effectErrors []effects.EffectError
	if req.Completed && len(req.PickupEffects) > 0 {
		effectErrors = s.effects.Apply(effects.Stats(req.PlayerStats), req.PickupEffects)
		for _, fe := range effectErrors {
			log.Printf("api: pickup effect skipped: %s", fe.Reason)
		}
	}

	sessionID, err := s.db.CreateSession(campaignID, req.GameID, req.StageNum, req.PlayerStats)
	if err != nil {
		log.Printf("api: failed to create session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save game")
		return
	}

	if _, err := s.db.UpdateCampaign(campaignID, map[string]any{
		"current_stage_num": req.StageNum,
		"total_score":       statOr(req.PlayerStats, "score", 0),
		"lives":             statOr(req.PlayerStats, "lives", 3),
		"bombs":             statOr(req.PlayerStats, "bombs", 3),
		"power_level":       statOr(req.PlayerStats, "power", 1),
	}); err != nil {
		log.Printf("api: failed to update campaign %s: %v", campaignID, err)
	}

	response := map[string]any{
		"success":     true,
		"campaign_id": campaignID,
		"session_id":  sessionID,
		"message":     "Game saved",
	}
	if len(effectErrors) > 0 {
		response["effect_errors"] = effectErrors
	}

	if req.Completed {
		if _, err := s.db.CompleteSession(sessionID, req.PlayerStats); err != nil {
			log.Printf("api: failed to complete session %s: %v", sessionID, err)
		}

		if req.GameData != nil && req.PlayerPrompt != "" {
			stageID, err := s.db.SaveCompletedStage(req.PlayerID, req.GameData, req.PlayerPrompt, req.Difficulty)
			if err != nil {
				log.Printf("api: failed to save shared stage: %v", err)
				writeError(w, http.StatusInternalServerError, "Failed to save game")
				return
			}
			response["stage_id"] = stageID
			response["message"] = "Game saved and added to shared world"
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// loadGame returns a campaign and its sessions, defaulting to the player's
// most recent campaign.
func (s *Server) loadGame(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	campaignID := r.URL.Query().Get("campaign_id")

	if playerID == "" {
		writeError(w, http.StatusBadRequest, "Missing player_id")
		return
	}

	var campaign *db.Campaign
	if campaignID != "" {
		var err error
		campaign, err = s.db.GetCampaign(campaignID)
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Campaign not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load game")
			return
		}
	} else {
		campaigns, err := s.db.GetPlayerCampaigns(playerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load game")
			return
		}
		if len(campaigns) == 0 {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"message": "No campaigns found for player",
			})
			return
		}
		campaign = campaigns[0]
	}

	sessions, err := s.db.GetCampaignSessions(campaign.CampaignID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load game")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"campaign":      campaign,
		"sessions":      sessions,
		"session_count": len(sessions),
	})
}

// getNextStage draws a random shared stage made by another player and bumps
// its play counter.
func (s *Server) getNextStage(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player_id")
	difficulty := r.URL.Query().Get("difficulty")

	if difficulty != "" {
		if err := validation.ValidateDifficulty(difficulty); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	stage, err := s.db.GetRandomStage(playerID, difficulty)
	if errors.Is(err, db.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"message": "No stages available in shared world",
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch stage")
		return
	}

	// Drawing a stage counts as a zero-score play, so the exposed average
	// drifts down until the run finishes and reports a real score.
	if err := s.db.IncrementStagePlays(stage.StageID, 0); err != nil {
		log.Printf("api: failed to bump plays for %s: %v", stage.StageID, err)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stage":   stage,
	})
}

// stageStats reports a shared stage's play statistics.
func (s *Server) stageStats(w http.ResponseWriter, r *http.Request) {
	stageID := chi.URLParam(r, "id")
	if err := validation.ValidateEntityID(stageID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.db.GetStageStats(stageID)
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Stage not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch stage stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// databaseStats reports table row counts (dev endpoint).
func (s *Server) databaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetStats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to fetch database stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func statOr(stats map[string]any, key string, def int) any {
	if v, ok := stats[key]; ok {
		return v
	}
	return def
}
