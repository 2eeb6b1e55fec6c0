package schema

// Palette holds the ANSI color palette used by the terminal renderer.
type Palette struct {
	AnsiFG string `json:"ansi_fg" jsonschema:"pattern=^#[0-9A-Fa-f]{6}$"`
	AnsiBG string `json:"ansi_bg" jsonschema:"pattern=^#[0-9A-Fa-f]{6}$"`
	Accent string `json:"accent" jsonschema:"pattern=^#[0-9A-Fa-f]{6}$"`
}

// Story is the game's theming block.
type Story struct {
	OSName  string  `json:"os_name"`
	Tagline string  `json:"tagline"`
	Palette Palette `json:"palette"`
}

// Player holds the player ship configuration.
type Player struct {
	SpritePrompt string `json:"sprite_prompt"`
}

// ParallaxLayer is one scrolling background layer.
type ParallaxLayer struct {
	ID     string  `json:"id"`
	Prompt string  `json:"prompt"`
	Depth  float64 `json:"depth" jsonschema:"minimum=0,maximum=1"`
}

// Formation and path enums for wave spawns.
var (
	Formations = []string{"v_wave", "column", "line", "arc", "circle", "random"}
	Paths      = []string{"straight", "sine", "seek", "arc", "spiral"}
)

// Wave describes a timed enemy spawn. EnemyType references an Enemy ID but
// the reference is not checked at validation time.
type Wave struct {
	Time      int    `json:"time" jsonschema:"minimum=0"`
	Formation string `json:"formation"`
	EnemyType string `json:"enemy_type"`
	Count     int    `json:"count" jsonschema:"minimum=1,maximum=50"`
	Path      string `json:"path"`
}

// BossPhase is one HP band of a boss fight.
type BossPhase struct {
	HP       int      `json:"hp" jsonschema:"minimum=100,maximum=10000"`
	Patterns []string `json:"patterns"`
}

// Boss is a stage's end boss.
type Boss struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	SpritePrompt string      `json:"sprite_prompt,omitempty"`
	Phases       []BossPhase `json:"phases"`
}

// Stage is one scrolling level.
type Stage struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	ScrollSpeed float64         `json:"scroll_speed" jsonschema:"minimum=0.1,maximum=5"`
	LengthSec   int             `json:"length_sec" jsonschema:"minimum=60,maximum=600"`
	Parallax    []ParallaxLayer `json:"parallax"`
	Waves       []Wave          `json:"waves"`
	Boss        Boss            `json:"boss"`
}

// Enemy is one enemy type definition.
type Enemy struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	HP           int     `json:"hp" jsonschema:"minimum=1,maximum=1000"`
	Speed        float64 `json:"speed" jsonschema:"minimum=0.1,maximum=10"`
	Radius       int     `json:"radius" jsonschema:"minimum=4,maximum=64"`
	SpritePrompt string  `json:"sprite_prompt"`
	Score        int     `json:"score"`
}

// PatternTypes enumerates the supported bullet pattern kinds.
var PatternTypes = []string{"fan", "burst", "spiral", "laser", "aimed", "stream", "ring"}

// BulletPattern describes an enemy or boss firing pattern. Which optional
// fields are meaningful depends on Type.
type BulletPattern struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Bullets    *int     `json:"bullets,omitempty" jsonschema:"minimum=1,maximum=100"`
	SpreadDeg  *float64 `json:"spread_deg,omitempty" jsonschema:"minimum=0,maximum=360"`
	ArcDeg     *float64 `json:"arc_deg,omitempty" jsonschema:"minimum=0,maximum=360"`
	CooldownMs int      `json:"cooldown_ms" jsonschema:"minimum=100,maximum=10000"`
	Speed      float64  `json:"speed"`
	Rate       *float64 `json:"rate,omitempty" jsonschema:"minimum=0.01,maximum=1"`
	Dual       bool     `json:"dual"`
}

// Weapon is a player weapon definition.
type Weapon struct {
	ID              string  `json:"id"`
	Name            string  `json:"name,omitempty"`
	DPS             float64 `json:"dps" jsonschema:"minimum=10,maximum=1000"`
	ProjectileSpeed float64 `json:"projectile_speed" jsonschema:"minimum=100,maximum=2000"`
	Spread          float64 `json:"spread" jsonschema:"minimum=0,maximum=90"`
	FireRate        float64 `json:"fire_rate" jsonschema:"minimum=1,maximum=60"`
}

// Pickup is a collectible definition. Effect is a free-form tag,
// conventionally shield+1, power+1, bomb+1 or score+N.
type Pickup struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Effect       string `json:"effect"`
	SpritePrompt string `json:"sprite_prompt,omitempty"`
}

// CRTEffects configures the terminal renderer's post-processing.
type CRTEffects struct {
	Scanlines bool    `json:"scanlines"`
	Glow      float64 `json:"glow" jsonschema:"minimum=0,maximum=1"`
	Vignette  float64 `json:"vignette" jsonschema:"minimum=0,maximum=1"`
	Flicker   float64 `json:"flicker" jsonschema:"minimum=0,maximum=1"`
}

// TUISkin configures the terminal frame and glyph rendering.
type TUISkin struct {
	FramePrompt  string     `json:"frame_prompt"`
	GlyphBullets bool       `json:"glyph_bullets"`
	GlyphSet     []string   `json:"glyph_set"`
	CRTEffects   CRTEffects `json:"crt_effects"`
	BootSequence []string   `json:"boot_sequence,omitempty"`
}

// GameDescription is the root validated artifact produced by the generation
// pipeline. It is immutable after validation; GameID may be reassigned when
// the document is persisted into the shared pool.
type GameDescription struct {
	GameID         string          `json:"game_id"`
	Story          Story           `json:"story"`
	Player         Player          `json:"player"`
	Stages         []Stage         `json:"stages"`
	Enemies        []Enemy         `json:"enemies"`
	BulletPatterns []BulletPattern `json:"bullet_patterns,omitempty"`
	Weapons        []Weapon        `json:"weapons"`
	Pickups        []Pickup        `json:"pickups"`
	TUISkin        *TUISkin        `json:"tui_skin,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// Summary holds derived counts returned alongside a validated description.
type Summary struct {
	GameID          string `json:"game_id"`
	OSName          string `json:"os_name"`
	StageCount      int    `json:"stage_count"`
	EnemyCount      int    `json:"enemy_count"`
	PatternCount    int    `json:"pattern_count"`
	WeaponCount     int    `json:"weapon_count"`
	PickupCount     int    `json:"pickup_count"`
	TotalWaves      int    `json:"total_waves"`
	TotalBossPhases int    `json:"total_boss_phases"`
	GlyphBullets    bool   `json:"glyph_bullets"`
}

// Summarize computes the summary statistics for a validated description.
func Summarize(gd *GameDescription) Summary {
	s := Summary{
		GameID:       gd.GameID,
		OSName:       gd.Story.OSName,
		StageCount:   len(gd.Stages),
		EnemyCount:   len(gd.Enemies),
		PatternCount: len(gd.BulletPatterns),
		WeaponCount:  len(gd.Weapons),
		PickupCount:  len(gd.Pickups),
	}
	for _, stage := range gd.Stages {
		s.TotalWaves += len(stage.Waves)
		s.TotalBossPhases += len(stage.Boss.Phases)
	}
	if gd.TUISkin != nil {
		s.GlyphBullets = gd.TUISkin.GlyphBullets
	}
	return s
}
