package schema

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Violation is a single failed constraint, addressed by field path.
type Violation struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ValidationError carries every violated constraint found in a document,
// not just the first one.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:")
	for _, v := range e.Violations {
		sb.WriteString(fmt.Sprintf("\n  - %s: %s", v.Path, v.Reason))
	}
	return sb.String()
}

// ErrUnknownFragmentKind is returned by ValidatePartial for an unrecognized
// fragment kind.
var ErrUnknownFragmentKind = errors.New("unknown fragment kind")

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// collector accumulates violations during a validation walk.
type collector struct {
	list []Violation
}

func (c *collector) add(path, reason string) {
	c.list = append(c.list, Violation{Path: path, Reason: reason})
}

func (c *collector) addf(path, format string, args ...any) {
	c.add(path, fmt.Sprintf(format, args...))
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// str fetches a string field, checking presence and rune-length bounds.
// maxLen <= 0 means unbounded.
func (c *collector) str(obj map[string]any, path, key string, required bool, minLen, maxLen int) (string, bool) {
	v, present := obj[key]
	if !present || v == nil {
		if required {
			c.add(join(path, key), "field required")
		}
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		c.add(join(path, key), "expected a string")
		return "", false
	}
	n := utf8.RuneCountInString(s)
	if n < minLen {
		c.addf(join(path, key), "must be at least %d characters", minLen)
		return s, false
	}
	if maxLen > 0 && n > maxLen {
		c.addf(join(path, key), "must be at most %d characters", maxLen)
		return s, false
	}
	return s, true
}

// num fetches a numeric field and range-checks it.
func (c *collector) num(obj map[string]any, path, key string, required bool, min, max float64) (float64, bool) {
	v, present := obj[key]
	if !present || v == nil {
		if required {
			c.add(join(path, key), "field required")
		}
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		c.add(join(path, key), "expected a number")
		return 0, false
	}
	if f < min || f > max {
		c.addf(join(path, key), "must be between %v and %v", min, max)
		return f, false
	}
	return f, true
}

// integer fetches a whole-number field and range-checks it.
func (c *collector) integer(obj map[string]any, path, key string, required bool, min, max int) (int, bool) {
	v, present := obj[key]
	if !present || v == nil {
		if required {
			c.add(join(path, key), "field required")
		}
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		c.add(join(path, key), "expected an integer")
		return 0, false
	}
	n := int(f)
	if n < min || n > max {
		if max == math.MaxInt {
			c.addf(join(path, key), "must be at least %d", min)
		} else {
			c.addf(join(path, key), "must be between %d and %d", min, max)
		}
		return n, false
	}
	return n, true
}

// boolean fetches a bool field, falling back to def when absent.
func (c *collector) boolean(obj map[string]any, path, key string, def bool) bool {
	v, present := obj[key]
	if !present || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		c.add(join(path, key), "expected a boolean")
		return def
	}
	return b
}

// enum fetches a string field and checks membership.
func (c *collector) enum(obj map[string]any, path, key string, allowed []string) (string, bool) {
	s, ok := c.str(obj, path, key, true, 1, 0)
	if !ok {
		return s, false
	}
	for _, a := range allowed {
		if s == a {
			return s, true
		}
	}
	c.addf(join(path, key), "must be one of %v", allowed)
	return s, false
}

// object fetches a required or optional object field.
func (c *collector) object(obj map[string]any, path, key string, required bool) (map[string]any, bool) {
	v, present := obj[key]
	if !present || v == nil {
		if required {
			c.add(join(path, key), "field required")
		}
		return nil, false
	}
	m, ok := asObject(v)
	if !ok {
		c.add(join(path, key), "expected an object")
		return nil, false
	}
	return m, true
}

// array fetches an array field and checks its length bounds.
func (c *collector) array(obj map[string]any, path, key string, required bool, minLen, maxLen int) ([]any, bool) {
	v, present := obj[key]
	if !present || v == nil {
		if required {
			c.add(join(path, key), "field required")
		}
		return nil, false
	}
	a, ok := asArray(v)
	if !ok {
		c.add(join(path, key), "expected an array")
		return nil, false
	}
	if len(a) < minLen {
		c.addf(join(path, key), "must contain at least %d items", minLen)
		return a, false
	}
	if maxLen > 0 && len(a) > maxLen {
		c.addf(join(path, key), "must contain at most %d items", maxLen)
		return a, false
	}
	return a, true
}

func (c *collector) hexColor(obj map[string]any, path, key string) string {
	s, ok := c.str(obj, path, key, true, 1, 0)
	if !ok {
		return s
	}
	if !hexColorRe.MatchString(s) {
		c.addf(join(path, key), "must be a hex color like #RRGGBB, got %q", s)
	}
	return s
}

// checkUnique records a violation for each duplicated ID in a collection.
func (c *collector) checkUnique(path, noun string, ids []string) {
	seen := make(map[string]bool, len(ids))
	reported := make(map[string]bool)
	for _, id := range ids {
		if id == "" {
			continue
		}
		if seen[id] && !reported[id] {
			c.addf(path, "%s IDs must be unique, duplicate %q", noun, id)
			reported[id] = true
		}
		seen[id] = true
	}
}

func validatePalette(obj map[string]any, path string, c *collector) Palette {
	return Palette{
		AnsiFG: c.hexColor(obj, path, "ansi_fg"),
		AnsiBG: c.hexColor(obj, path, "ansi_bg"),
		Accent: c.hexColor(obj, path, "accent"),
	}
}

func validateStory(obj map[string]any, path string, c *collector) Story {
	s := Story{}
	s.OSName, _ = c.str(obj, path, "os_name", true, 1, 100)
	s.Tagline, _ = c.str(obj, path, "tagline", true, 1, 200)
	if pal, ok := c.object(obj, path, "palette", true); ok {
		s.Palette = validatePalette(pal, join(path, "palette"), c)
	}
	return s
}

func validatePlayer(obj map[string]any, path string, c *collector) Player {
	p := Player{}
	p.SpritePrompt, _ = c.str(obj, path, "sprite_prompt", true, 10, 500)
	return p
}

func validateParallaxLayer(obj map[string]any, path string, c *collector) ParallaxLayer {
	l := ParallaxLayer{}
	l.ID, _ = c.str(obj, path, "id", true, 1, 0)
	l.Prompt, _ = c.str(obj, path, "prompt", true, 10, 500)
	l.Depth, _ = c.num(obj, path, "depth", true, 0.0, 1.0)
	return l
}

func validateWave(obj map[string]any, path string, c *collector) Wave {
	w := Wave{}
	w.Time, _ = c.integer(obj, path, "time", true, 0, math.MaxInt)
	w.Formation, _ = c.enum(obj, path, "formation", Formations)
	w.EnemyType, _ = c.str(obj, path, "enemy_type", true, 1, 0)
	w.Count, _ = c.integer(obj, path, "count", true, 1, 50)
	w.Path, _ = c.enum(obj, path, "path", Paths)
	return w
}

func validateBossPhase(obj map[string]any, path string, c *collector) BossPhase {
	p := BossPhase{}
	p.HP, _ = c.integer(obj, path, "hp", true, 100, 10000)
	if arr, ok := c.array(obj, path, "patterns", true, 1, 10); ok {
		for i, item := range arr {
			s, ok := item.(string)
			if !ok {
				c.add(fmt.Sprintf("%s[%d]", join(path, "patterns"), i), "expected a string")
				continue
			}
			p.Patterns = append(p.Patterns, s)
		}
	}
	return p
}

func validateBoss(obj map[string]any, path string, c *collector) Boss {
	b := Boss{}
	b.ID, _ = c.str(obj, path, "id", true, 1, 0)
	b.Title, _ = c.str(obj, path, "title", true, 1, 100)
	b.SpritePrompt, _ = c.str(obj, path, "sprite_prompt", false, 0, 500)
	if arr, ok := c.array(obj, path, "phases", true, 1, 5); ok {
		for i, item := range arr {
			p := fmt.Sprintf("%s[%d]", join(path, "phases"), i)
			if m, ok := asObject(item); ok {
				b.Phases = append(b.Phases, validateBossPhase(m, p, c))
			} else {
				c.add(p, "expected an object")
			}
		}
	}
	return b
}

func validateStage(obj map[string]any, path string, c *collector) Stage {
	s := Stage{}
	s.ID, _ = c.str(obj, path, "id", true, 1, 0)
	s.Title, _ = c.str(obj, path, "title", true, 1, 100)
	s.ScrollSpeed, _ = c.num(obj, path, "scroll_speed", true, 0.1, 5.0)
	s.LengthSec, _ = c.integer(obj, path, "length_sec", true, 60, 600)
	if arr, ok := c.array(obj, path, "parallax", true, 1, 5); ok {
		for i, item := range arr {
			p := fmt.Sprintf("%s[%d]", join(path, "parallax"), i)
			if m, ok := asObject(item); ok {
				s.Parallax = append(s.Parallax, validateParallaxLayer(m, p, c))
			} else {
				c.add(p, "expected an object")
			}
		}
	}
	if arr, ok := c.array(obj, path, "waves", true, 1, 50); ok {
		for i, item := range arr {
			p := fmt.Sprintf("%s[%d]", join(path, "waves"), i)
			if m, ok := asObject(item); ok {
				s.Waves = append(s.Waves, validateWave(m, p, c))
			} else {
				c.add(p, "expected an object")
			}
		}
	}
	if m, ok := c.object(obj, path, "boss", true); ok {
		s.Boss = validateBoss(m, join(path, "boss"), c)
	}
	return s
}

func validateEnemy(obj map[string]any, path string, c *collector) Enemy {
	e := Enemy{Score: 100}
	e.ID, _ = c.str(obj, path, "id", true, 1, 0)
	e.Name, _ = c.str(obj, path, "name", true, 1, 100)
	e.HP, _ = c.integer(obj, path, "hp", true, 1, 1000)
	e.Speed, _ = c.num(obj, path, "speed", true, 0.1, 10.0)
	e.Radius, _ = c.integer(obj, path, "radius", true, 4, 64)
	e.SpritePrompt, _ = c.str(obj, path, "sprite_prompt", true, 10, 500)
	if _, present := obj["score"]; present && obj["score"] != nil {
		if n, ok := c.integer(obj, path, "score", false, 0, 1<<30); ok {
			e.Score = n
		}
	}
	return e
}

func validateBulletPattern(obj map[string]any, path string, c *collector) BulletPattern {
	bp := BulletPattern{Speed: 300}
	bp.ID, _ = c.str(obj, path, "id", true, 1, 0)
	bp.Type, _ = c.enum(obj, path, "type", PatternTypes)
	bp.CooldownMs, _ = c.integer(obj, path, "cooldown_ms", true, 100, 10000)
	if v, present := obj["bullets"]; present && v != nil {
		if n, ok := c.integer(obj, path, "bullets", false, 1, 100); ok {
			bp.Bullets = &n
		}
	}
	if v, present := obj["spread_deg"]; present && v != nil {
		if f, ok := c.num(obj, path, "spread_deg", false, 0, 360); ok {
			bp.SpreadDeg = &f
		}
	}
	if v, present := obj["arc_deg"]; present && v != nil {
		if f, ok := c.num(obj, path, "arc_deg", false, 0, 360); ok {
			bp.ArcDeg = &f
		}
	}
	if v, present := obj["speed"]; present && v != nil {
		if f, ok := c.num(obj, path, "speed", false, 50, 1000); ok {
			bp.Speed = f
		}
	}
	if v, present := obj["rate"]; present && v != nil {
		if f, ok := c.num(obj, path, "rate", false, 0.01, 1.0); ok {
			bp.Rate = &f
		}
	}
	bp.Dual = c.boolean(obj, path, "dual", false)
	return bp
}

func validateWeapon(obj map[string]any, path string, c *collector) Weapon {
	w := Weapon{}
	w.ID, _ = c.str(obj, path, "id", true, 1, 0)
	w.Name, _ = c.str(obj, path, "name", false, 0, 100)
	w.DPS, _ = c.num(obj, path, "dps", true, 10, 1000)
	w.ProjectileSpeed, _ = c.num(obj, path, "projectile_speed", true, 100, 2000)
	if v, present := obj["spread"]; present && v != nil {
		w.Spread, _ = c.num(obj, path, "spread", false, 0, 90)
	}
	w.FireRate, _ = c.num(obj, path, "fire_rate", true, 1, 60)
	return w
}

func validatePickup(obj map[string]any, path string, c *collector) Pickup {
	p := Pickup{}
	p.ID, _ = c.str(obj, path, "id", true, 1, 0)
	p.Name, _ = c.str(obj, path, "name", false, 0, 100)
	p.Effect, _ = c.str(obj, path, "effect", true, 1, 0)
	p.SpritePrompt, _ = c.str(obj, path, "sprite_prompt", false, 0, 500)
	return p
}

func validateCRTEffects(obj map[string]any, path string, c *collector) CRTEffects {
	fx := CRTEffects{Scanlines: true, Glow: 0.3, Vignette: 0.2}
	fx.Scanlines = c.boolean(obj, path, "scanlines", true)
	if v, present := obj["glow"]; present && v != nil {
		fx.Glow, _ = c.num(obj, path, "glow", false, 0, 1)
	}
	if v, present := obj["vignette"]; present && v != nil {
		fx.Vignette, _ = c.num(obj, path, "vignette", false, 0, 1)
	}
	if v, present := obj["flicker"]; present && v != nil {
		fx.Flicker, _ = c.num(obj, path, "flicker", false, 0, 1)
	}
	return fx
}

func validateTUISkin(obj map[string]any, path string, c *collector) TUISkin {
	ts := TUISkin{}
	ts.FramePrompt, _ = c.str(obj, path, "frame_prompt", true, 10, 500)
	ts.GlyphBullets = c.boolean(obj, path, "glyph_bullets", true)
	if arr, ok := c.array(obj, path, "glyph_set", true, 3, 20); ok {
		for i, item := range arr {
			s, ok := item.(string)
			if !ok || s == "" {
				c.add(fmt.Sprintf("%s[%d]", join(path, "glyph_set"), i), "expected a non-empty string")
				continue
			}
			ts.GlyphSet = append(ts.GlyphSet, s)
		}
	}
	if m, ok := c.object(obj, path, "crt_effects", true); ok {
		ts.CRTEffects = validateCRTEffects(m, join(path, "crt_effects"), c)
	}
	if arr, ok := c.array(obj, path, "boot_sequence", false, 0, 10); ok {
		for i, item := range arr {
			s, ok := item.(string)
			if !ok {
				c.add(fmt.Sprintf("%s[%d]", join(path, "boot_sequence"), i), "expected a string")
				continue
			}
			ts.BootSequence = append(ts.BootSequence, s)
		}
	}
	return ts
}

// Validate converts a raw, untyped document into a fully-typed
// GameDescription, or returns a *ValidationError enumerating every violated
// constraint: type conformance, numeric ranges, string lengths and patterns,
// enum membership, collection bounds, and ID uniqueness within stages,
// enemies, and bullet patterns.
func Validate(raw map[string]any) (*GameDescription, error) {
	c := &collector{}
	gd := &GameDescription{}

	if v, present := raw["game_id"]; present && v != nil {
		if s, ok := v.(string); ok {
			gd.GameID = s
		} else {
			c.add("game_id", "expected a string")
		}
	}
	if gd.GameID == "" {
		gd.GameID = uuid.New().String()
	}

	if obj, ok := c.object(raw, "", "story", true); ok {
		gd.Story = validateStory(obj, "story", c)
	}
	if obj, ok := c.object(raw, "", "player", true); ok {
		gd.Player = validatePlayer(obj, "player", c)
	}

	if arr, ok := c.array(raw, "", "stages", true, 1, 10); ok {
		ids := make([]string, 0, len(arr))
		for i, item := range arr {
			p := fmt.Sprintf("stages[%d]", i)
			if m, ok := asObject(item); ok {
				st := validateStage(m, p, c)
				gd.Stages = append(gd.Stages, st)
				ids = append(ids, st.ID)
			} else {
				c.add(p, "expected an object")
			}
		}
		c.checkUnique("stages", "stage", ids)
	}

	if arr, ok := c.array(raw, "", "enemies", true, 1, 50); ok {
		ids := make([]string, 0, len(arr))
		for i, item := range arr {
			p := fmt.Sprintf("enemies[%d]", i)
			if m, ok := asObject(item); ok {
				en := validateEnemy(m, p, c)
				gd.Enemies = append(gd.Enemies, en)
				ids = append(ids, en.ID)
			} else {
				c.add(p, "expected an object")
			}
		}
		c.checkUnique("enemies", "enemy", ids)
	}

	if arr, ok := c.array(raw, "", "bullet_patterns", false, 0, 0); ok {
		ids := make([]string, 0, len(arr))
		for i, item := range arr {
			p := fmt.Sprintf("bullet_patterns[%d]", i)
			if m, ok := asObject(item); ok {
				bp := validateBulletPattern(m, p, c)
				gd.BulletPatterns = append(gd.BulletPatterns, bp)
				ids = append(ids, bp.ID)
			} else {
				c.add(p, "expected an object")
			}
		}
		c.checkUnique("bullet_patterns", "bullet pattern", ids)
	}

	if arr, ok := c.array(raw, "", "weapons", true, 1, 10); ok {
		for i, item := range arr {
			p := fmt.Sprintf("weapons[%d]", i)
			if m, ok := asObject(item); ok {
				gd.Weapons = append(gd.Weapons, validateWeapon(m, p, c))
			} else {
				c.add(p, "expected an object")
			}
		}
	}

	if arr, ok := c.array(raw, "", "pickups", true, 1, 20); ok {
		for i, item := range arr {
			p := fmt.Sprintf("pickups[%d]", i)
			if m, ok := asObject(item); ok {
				gd.Pickups = append(gd.Pickups, validatePickup(m, p, c))
			} else {
				c.add(p, "expected an object")
			}
		}
	}

	if obj, ok := c.object(raw, "", "tui_skin", false); ok {
		ts := validateTUISkin(obj, "tui_skin", c)
		gd.TUISkin = &ts
	}

	if v, present := raw["metadata"]; present && v != nil {
		if m, ok := asObject(v); ok {
			gd.Metadata = m
		} else {
			c.add("metadata", "expected an object")
		}
	}

	if len(c.list) > 0 {
		return nil, &ValidationError{Violations: c.list}
	}
	return gd, nil
}

// FragmentKinds lists the sub-shapes accepted by ValidatePartial.
var FragmentKinds = []string{"story", "enemy", "bullet_pattern", "weapon", "pickup", "tui_skin", "stage"}

// ValidatePartial validates a single named sub-shape of a game description,
// for editor and debugging tooling. Unknown kinds return an error wrapping
// ErrUnknownFragmentKind.
func ValidatePartial(raw map[string]any, kind string) (any, error) {
	c := &collector{}
	var value any
	switch kind {
	case "story":
		value = validateStory(raw, "story", c)
	case "enemy":
		value = validateEnemy(raw, "enemy", c)
	case "bullet_pattern":
		value = validateBulletPattern(raw, "bullet_pattern", c)
	case "weapon":
		value = validateWeapon(raw, "weapon", c)
	case "pickup":
		value = validatePickup(raw, "pickup", c)
	case "tui_skin":
		value = validateTUISkin(raw, "tui_skin", c)
	case "stage":
		value = validateStage(raw, "stage", c)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFragmentKind, kind)
	}
	if len(c.list) > 0 {
		return nil, &ValidationError{Violations: c.list}
	}
	return value, nil
}
