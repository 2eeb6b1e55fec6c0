package llm

import "fmt"

// PromptVersion tags the generation cache key. Bump it when the system or
// user prompt changes enough to make older cached documents stale.
const PromptVersion = "v4"

const systemPrompt = `You are an expert horizontal scrolling shoot-'em-up (shmup) game designer inspired by classics like:
- TwinBee (cute, colorful, whimsical)
- 1942 (military, historical, grounded)
- Xevious (alien, mysterious, geometric)
- Space Invaders (minimalist, arcade, retro)
- R-Type (biomechanical, dark, atmospheric)
- Gradius (sci-fi, power-up focused, epic)

Generate complete game designs as valid JSON only. BE EXTREMELY CREATIVE AND VARIED.

Design Principles:
- VARY THE AESTHETIC: Can be cute, dark, retro, futuristic, organic, geometric, silly, serious, etc.
- VARY THE THEME: Space, ocean, fantasy, cyberpunk, nature, abstract, historical, etc.
- VARY THE TONE: Serious war drama, lighthearted comedy, cosmic horror, arcade fun, etc.
- Keep horizontal scrolling shooter mechanics
- Match the user's theme but add unexpected creative twists
- Use diverse color palettes (not just cyan/teal - try pastels, neons, earth tones, monochromes)
- Create unique enemy designs that match the theme
- Bullet patterns should fit the aesthetic (organic curves, geometric grids, chaotic swarms, etc.)

Return ONLY valid JSON matching the exact schema provided. No markdown, no explanations.`

// difficultyPreset bundles the target numeric ranges embedded into the user
// prompt. These are advisory instructions to the model, not post-hoc
// constraints on its output.
type difficultyPreset struct {
	EnemyHP     string
	EnemySpeed  string
	BossHP      string
	BulletCount string
}

var difficultyPresets = map[string]difficultyPreset{
	"easy":   {EnemyHP: "15-40", EnemySpeed: "0.6-1.2", BossHP: "800-1000", BulletCount: "3-8"},
	"normal": {EnemyHP: "20-60", EnemySpeed: "0.8-2.0", BossHP: "1000-1500", BulletCount: "5-15"},
	"hard":   {EnemyHP: "40-100", EnemySpeed: "1.2-3.0", BossHP: "1500-2500", BulletCount: "10-32"},
}

// Difficulties lists the recognized difficulty names.
var Difficulties = []string{"easy", "normal", "hard"}

// buildUserPrompt renders the generation instruction for a theme and
// difficulty. Unrecognized difficulties fall back to normal.
func buildUserPrompt(userPrompt, difficulty string) string {
	params, ok := difficultyPresets[difficulty]
	if !ok {
		params = difficultyPresets["normal"]
	}

	return fmt.Sprintf(`Create a horizontal scrolling shmup based on this theme: %s

AESTHETIC DIRECTION: Create a cohesive visual style that matches the user's theme. Interpret the theme in interesting ways (ocean -> bioluminescent sea creatures, candy -> pastel desserts, music -> rhythm-based visuals, and so on).

Generate a complete game JSON with these specifications:

1. **story** (required object):
   - os_name: Creative name matching your aesthetic
   - tagline: One sentence describing the world (max 200 chars)
   - palette: Colors that match your chosen aesthetic
     - ansi_fg: Foreground color (hex)
     - ansi_bg: Background color (hex)
     - accent: Accent color (hex)

2. **player** (required object):
   - sprite_prompt: Player ship/character description matching the theme (50-200 chars)

3. **stages** (array with exactly 1 stage):
   Each stage must have:
     - id: Short identifier (string)
     - title: Stage name (string, max 100 chars)
     - scroll_speed: 0.8 to 1.5 (float)
     - length_sec: 180 to 300 (integer, seconds)
     - parallax: Array of 3 background layers matching the theme
       Each layer needs id (string), prompt (10-500 chars), depth (0.3, 0.6, or 0.9)
     - waves: Array of 3 enemy waves
       Each wave needs:
       - time: Spawn time in seconds (integer, use 3, 8, 15)
       - formation: One of [v_wave, column, line, arc, circle, random]
       - enemy_type: Reference to enemy id (string)
       - count: 4 to 12 enemies (integer)
       - path: One of [straight, sine, seek, arc, spiral]
     - boss: Single boss object with:
       - id: Boss identifier (string)
       - title: Boss name (string, max 100 chars)
       - sprite_prompt: Boss description matching the theme (10-500 chars)
       - phases: Array of exactly 2 phase objects
         Each phase needs hp (%s integer) and patterns (array of 2-3 pattern ids)

4. **enemies** (array with exactly 3 types):
   Each enemy must have:
   - id: Unique identifier (string)
   - name: Enemy name (string, max 100 chars)
   - hp: %s (integer)
   - speed: %s (float)
   - radius: 8 to 16 (integer, pixels)
   - sprite_prompt: Enemy description matching the theme (10-500 chars)
   - score: 50 to 500 (integer, optional, defaults to 100)

5. **bullet_patterns** (array with 3 to 5 patterns, OPTIONAL - can be null/omitted):
   Each pattern must have:
   - id: Unique identifier (string)
   - type: One of [fan, burst, spiral, laser, aimed, stream, ring]
   - cooldown_ms: 100 to 10000 (integer, required)
   - speed: 50 to 1000 (float, optional, defaults to 300)
   - For fan type: bullets (integer, %s), spread_deg (float, 20-90)
   - For burst type: bullets (integer, %s), arc_deg (float, 180-360)
   - For spiral type: rate (float, 0.05-0.15), dual (boolean)
   - For laser type: no extra fields needed

6. **weapons** (array with exactly 1 weapon):
   Each weapon must have id, name (optional), dps (100-150 float),
   projectile_speed (800-1000 float), spread (0-15 float, defaults to 0),
   fire_rate (6-10 float, shots per second)

7. **pickups** (array with exactly 3 types):
   Each pickup must have id, name (optional), effect (one of "shield+1",
   "power+1", "bomb+1"), sprite_prompt (optional, 10-500 chars)

8. **tui_skin** (RECOMMENDED: set to null):
   This field is complex and error-prone. STRONGLY RECOMMENDED to set to null.
   If included, it needs frame_prompt (10-500 chars), glyph_bullets (boolean),
   glyph_set (array of 3-20 STRING values), and a crt_effects object with
   scanlines (boolean), glow, vignette, flicker (floats 0-1).

Return ONLY the JSON object. Ensure all IDs are unique and all references are valid.`,
		userPrompt, params.BossHP, params.EnemyHP, params.EnemySpeed, params.BulletCount, params.BulletCount)
}
