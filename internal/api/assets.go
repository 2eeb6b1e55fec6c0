package api

import (
	"log"
	"net/http"
)

type spriteRequest struct {
	ID           string `json:"id"`
	SpritePrompt string `json:"sprite_prompt"`
}

type spriteResult struct {
	ID    string `json:"id"`
	Image string `json:"image,omitempty"`
	Error string `json:"error,omitempty"`
}

// generateSprites produces player, enemy, and boss sprites in one batch.
// Each item succeeds or fails independently; the batch itself always
// returns 200.
func (s *Server) generateSprites(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID  string          `json:"game_id"`
		Color   string          `json:"color"`
		Player  *spriteRequest  `json:"player"`
		Enemies []spriteRequest `json:"enemies"`
		Bosses  []spriteRequest `json:"bosses"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	results := map[string]any{
		"game_id":       req.GameID,
		"player_sprite": nil,
	}

	if req.Player != nil {
		if req.Player.SpritePrompt == "" {
			results["player_sprite"] = spriteResult{ID: req.Player.ID, Error: "Missing sprite_prompt"}
		} else if img, err := s.images.PlayerSprite(r.Context(), req.Player.SpritePrompt); err != nil {
			log.Printf("api: player sprite failed: %v", err)
			results["player_sprite"] = spriteResult{ID: req.Player.ID, Error: err.Error()}
		} else {
			results["player_sprite"] = spriteResult{ID: req.Player.ID, Image: img}
		}
	}

	enemySprites := make([]spriteResult, 0, len(req.Enemies))
	for _, enemy := range req.Enemies {
		if enemy.SpritePrompt == "" {
			enemySprites = append(enemySprites, spriteResult{ID: enemy.ID, Error: "Missing sprite_prompt"})
			continue
		}
		img, err := s.images.EnemySprite(r.Context(), enemy.SpritePrompt)
		if err != nil {
			log.Printf("api: enemy sprite %s failed: %v", enemy.ID, err)
			enemySprites = append(enemySprites, spriteResult{ID: enemy.ID, Error: err.Error()})
			continue
		}
		enemySprites = append(enemySprites, spriteResult{ID: enemy.ID, Image: img})
	}
	results["enemy_sprites"] = enemySprites

	bossSprites := make([]spriteResult, 0, len(req.Bosses))
	for _, boss := range req.Bosses {
		if boss.SpritePrompt == "" {
			bossSprites = append(bossSprites, spriteResult{ID: boss.ID, Error: "Missing sprite_prompt"})
			continue
		}
		img, err := s.images.BossSprite(r.Context(), boss.SpritePrompt)
		if err != nil {
			log.Printf("api: boss sprite %s failed: %v", boss.ID, err)
			bossSprites = append(bossSprites, spriteResult{ID: boss.ID, Error: err.Error()})
			continue
		}
		bossSprites = append(bossSprites, spriteResult{ID: boss.ID, Image: img})
	}
	results["boss_sprites"] = bossSprites

	writeJSON(w, http.StatusOK, results)
}

// generateTextures produces parallax background layers and TUI frame
// decorations, with the same per-item failure semantics as sprites.
func (s *Server) generateTextures(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID         string `json:"game_id"`
		Theme          string `json:"theme"`
		Color          string `json:"color"`
		ParallaxLayers []struct {
			ID     string  `json:"id"`
			Prompt string  `json:"prompt"`
			Depth  float64 `json:"depth"`
		} `json:"parallax_layers"`
		TUIFramePrompt string `json:"tui_frame_prompt"`
		TUIFrames      []struct {
			ID     string `json:"id"`
			Prompt string `json:"prompt"`
		} `json:"tui_frames"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Color == "" {
		req.Color = "#00FFD1"
	}

	type parallaxResult struct {
		ID    string  `json:"id"`
		Image string  `json:"image,omitempty"`
		Error string  `json:"error,omitempty"`
		Depth float64 `json:"depth"`
	}

	parallax := make([]parallaxResult, 0, len(req.ParallaxLayers))
	for _, layer := range req.ParallaxLayers {
		depth := layer.Depth
		if depth == 0 {
			depth = 0.5
		}
		img, err := s.images.ParallaxLayer(r.Context(), req.Theme, layer.Prompt, depth)
		if err != nil {
			log.Printf("api: parallax layer %s failed: %v", layer.ID, err)
			parallax = append(parallax, parallaxResult{ID: layer.ID, Error: err.Error(), Depth: depth})
			continue
		}
		parallax = append(parallax, parallaxResult{ID: layer.ID, Image: img, Depth: depth})
	}

	frames := make([]spriteResult, 0, len(req.TUIFrames)+1)
	if req.TUIFramePrompt != "" {
		img, err := s.images.TUIFrame(r.Context(), req.TUIFramePrompt, req.Color)
		if err != nil {
			log.Printf("api: tui frame failed: %v", err)
			frames = append(frames, spriteResult{ID: "main_frame", Error: err.Error()})
		} else {
			frames = append(frames, spriteResult{ID: "main_frame", Image: img})
		}
	}
	for _, frame := range req.TUIFrames {
		if frame.Prompt == "" {
			frames = append(frames, spriteResult{ID: frame.ID, Error: "Missing prompt"})
			continue
		}
		img, err := s.images.TUIFrame(r.Context(), frame.Prompt, req.Color)
		if err != nil {
			log.Printf("api: tui frame %s failed: %v", frame.ID, err)
			frames = append(frames, spriteResult{ID: frame.ID, Error: err.Error()})
			continue
		}
		frames = append(frames, spriteResult{ID: frame.ID, Image: img})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":    req.GameID,
		"parallax":   parallax,
		"tui_frames": frames,
	})
}
