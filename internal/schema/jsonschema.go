package schema

import (
	"github.com/invopop/jsonschema"
)

// Reflect produces a machine-readable JSON Schema for the game description
// document, shared by the /api/schema endpoint and the schema generator
// command so editor tooling can validate documents offline.
func Reflect() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	s := reflector.Reflect(new(GameDescription))
	s.Title = "Game Description"
	s.Description = "A generated shmup game description: story, stages, enemies, bullet patterns, weapons, pickups, and terminal skin"

	// The reflector parses numeric bounds from struct tags as integers, so
	// fractional minimums are set here instead.
	setMinimum(s, "Stage", "scroll_speed", 0.1)
	setMinimum(s, "Enemy", "speed", 0.1)
	setMinimum(s, "BulletPattern", "rate", 0.01)
	return s
}

func setMinimum(s *jsonschema.Schema, def, field string, min float64) {
	d, ok := s.Definitions[def]
	if !ok || d.Properties == nil {
		return
	}
	v, ok := d.Properties.Get(field)
	if !ok {
		return
	}
	prop, ok := v.(*jsonschema.Schema)
	if !ok {
		return
	}
	if prop.Extras == nil {
		prop.Extras = map[string]interface{}{}
	}
	prop.Extras["minimum"] = min
}
