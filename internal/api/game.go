package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/fantasyos/shmup-server/internal/llm"
	"github.com/fantasyos/shmup-server/internal/schema"
	"github.com/fantasyos/shmup-server/internal/validation"
)

// generateGame produces a full validated game document from a theme prompt.
func (s *Server) generateGame(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserPrompt string `json:"user_prompt"`
		PlayerID   string `json:"player_id"`
		Difficulty string `json:"difficulty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := validation.ValidatePrompt(req.UserPrompt); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = "normal"
	}
	if err := validation.ValidateDifficulty(req.Difficulty); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.Printf("api: generating game for prompt %.50q", req.UserPrompt)

	raw, err := s.games.Generate(r.Context(), req.UserPrompt, req.Difficulty)
	if err != nil {
		log.Printf("api: generation failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "Failed to generate game",
			"details": err.Error(),
		})
		return
	}

	validated, err := schema.Validate(raw)
	if err != nil {
		log.Printf("api: generated document failed validation: %v", err)
		// Raw document included so clients can inspect what the model produced.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":    "Generated game data failed validation",
			"details":  err.Error(),
			"raw_data": raw,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"game_data": validated,
		"summary":   schema.Summarize(validated),
		"metadata": map[string]any{
			"user_prompt": req.UserPrompt,
			"difficulty":  req.Difficulty,
			"player_id":   req.PlayerID,
		},
	})
}

// patchStory generates a short narrative bridge between two stages.
func (s *Server) patchStory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PreviousStage *llm.StageTheme `json:"previous_stage"`
		NextStage     *llm.StageTheme `json:"next_stage"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PreviousStage == nil || req.NextStage == nil {
		writeError(w, http.StatusBadRequest, "Missing previous_stage or next_stage")
		return
	}

	bridge, err := llm.Bridge(r.Context(), s.completer, s.textModel, *req.PreviousStage, *req.NextStage)
	if err != nil {
		var genErr *llm.GenerationError
		if errors.As(err, &genErr) {
			log.Printf("api: story bridge failed: %v", genErr)
		}
		writeError(w, http.StatusInternalServerError, "Story generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"bridge":      bridge,
		"previous_os": req.PreviousStage.OSName,
		"next_os":     req.NextStage.OSName,
	})
}
