package images

import (
	"context"
	"fmt"
	"log"

	"github.com/fantasyos/shmup-server/internal/cache"
)

// GenerationError reports that both providers failed, carrying each one's
// failure reason.
type GenerationError struct {
	Primary  error
	Fallback error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("both image providers failed: primary: %v; fallback: %v", e.Primary, e.Fallback)
}

// removalVersion tags cache keys of background-removed sprites so raw and
// transparent variants never collide. v6 = edge-sampling color estimation.
const removalVersion = "v6"

// Generator produces game images with caching and primary-then-fallback
// provider failover. Results are normalized to a base64 data URI regardless
// of which provider produced them.
type Generator struct {
	primary  Provider
	fallback Provider
	cache    *cache.Store
}

// NewGenerator wires the generator to two providers and a cache store.
func NewGenerator(primary, fallback Provider, store *cache.Store) *Generator {
	return &Generator{primary: primary, fallback: fallback, cache: store}
}

func (g *Generator) fromCache(kind, key string) (string, bool) {
	if payload, ok := g.cache.Get(kind, key); ok {
		return encodeDataURI(payload), true
	}
	return "", false
}

func (g *Generator) toCache(kind, key, dataURI string) {
	payload, err := decodeDataURI(dataURI)
	if err != nil {
		log.Printf("images: not caching undecodable %s image: %v", kind, err)
		return
	}
	g.cache.Put(kind, key, payload)
}

// Generate returns an image for the prompt, consulting the cache first and
// then trying the primary provider with fallback on any failure (transport,
// credentials, or safety block). When both providers fail the returned error
// concatenates both reasons.
func (g *Generator) Generate(ctx context.Context, prompt, size string, useCache bool, kind string) (string, error) {
	var key string
	if useCache {
		key = cache.Key(prompt, size, kind)
		if img, ok := g.fromCache(kind, key); ok {
			log.Printf("images: cache hit for %s (key %s)", kind, key[:16])
			return img, nil
		}
	}

	img, primaryErr := g.primary.Generate(ctx, prompt, size)
	if primaryErr == nil {
		if useCache {
			g.toCache(kind, key, img)
		}
		return img, nil
	}
	log.Printf("images: %s failed (%v), trying %s", g.primary.Name(), primaryErr, g.fallback.Name())

	img, fallbackErr := g.fallback.Generate(ctx, prompt, size)
	if fallbackErr == nil {
		if useCache {
			g.toCache(kind, key, img)
		}
		return img, nil
	}

	return "", &GenerationError{Primary: primaryErr, Fallback: fallbackErr}
}

const chromaKeyBlock = `CRITICAL: The ENTIRE background must be SOLID BRIGHT GREEN color (#00FF00 / RGB 0,255,0).
Fill the entire background with pure bright green chroma key color.`

// spriteTolerance is the chroma-key color distance used for generated sprites.
const spriteTolerance = 80

// sprite generates a chroma-keyed sprite, removes its background, and caches
// the transparent variant under a removal-versioned key distinct from the raw
// image's key.
func (g *Generator) sprite(ctx context.Context, fullPrompt, kind string) (string, error) {
	key := cache.Key(fullPrompt+"|nobg|"+removalVersion, "1024x1024", kind)
	if img, ok := g.fromCache(kind, key); ok {
		log.Printf("images: background-removed %s sprite loaded from cache", kind)
		return img, nil
	}

	img, err := g.Generate(ctx, fullPrompt, "1024x1024", true, kind)
	if err != nil {
		return "", err
	}

	img = RemoveBackground(img, spriteTolerance)
	g.toCache(kind, key, img)
	return img, nil
}

// EnemySprite generates a transparent enemy sprite from its description.
func (g *Generator) EnemySprite(ctx context.Context, description string) (string, error) {
	fullPrompt := fmt.Sprintf(`%s, side view sprite facing LEFT, game asset.
%s
The character should be centered with detailed colors and textures.
Single character facing LEFT toward viewer, no text, no UI, clean cutout style.
Background must be completely filled with bright green (#00FF00) for chroma keying.`, description, chromaKeyBlock)
	return g.sprite(ctx, fullPrompt, "enemy")
}

// BossSprite generates a transparent boss sprite from its description.
func (g *Generator) BossSprite(ctx context.Context, description string) (string, error) {
	fullPrompt := fmt.Sprintf(`%s, side view sprite facing LEFT, large boss enemy, game asset.
%s
The boss should be imposing with detailed colors and textures.
Facing LEFT toward viewer, no text, no UI, clean cutout style.
Background must be completely filled with bright green (#00FF00) for chroma keying.`, description, chromaKeyBlock)
	return g.sprite(ctx, fullPrompt, "boss")
}

// PlayerSprite generates a transparent player ship sprite. The player faces
// right, opposite the enemies.
func (g *Generator) PlayerSprite(ctx context.Context, description string) (string, error) {
	fullPrompt := fmt.Sprintf(`%s, side view sprite facing RIGHT, player ship, game asset.
%s
The ship should be centered with detailed colors and textures.
Facing RIGHT, no text, no UI, clean cutout style.
Background must be completely filled with bright green (#00FF00) for chroma keying.`, description, chromaKeyBlock)
	return g.sprite(ctx, fullPrompt, "player")
}

// ParallaxLayer generates an opaque scrolling background layer. No
// background removal; these stay full-frame.
func (g *Generator) ParallaxLayer(ctx context.Context, theme, prompt string, depth float64) (string, error) {
	fullPrompt := fmt.Sprintf(`%s, %s,
horizontal scrolling background for a video game, seamless tileable edges,
stylized game art aesthetic matching sprite-based game graphics,
painterly or illustrated style, not photorealistic,
vibrant game art colors, depth layer %v,
no text, no UI elements`, prompt, theme, depth)
	return g.Generate(ctx, fullPrompt, "2048x512", true, "parallax")
}

// TUIFrame generates an opaque terminal-frame decoration image.
func (g *Generator) TUIFrame(ctx context.Context, description, color string) (string, error) {
	fullPrompt := fmt.Sprintf(`%s, terminal UI frame, %s monochrome,
ornamental corners, filigree details, no text content,
retro computer aesthetic`, description, color)
	return g.Generate(ctx, fullPrompt, "1024x1024", true, "tui_frame")
}
