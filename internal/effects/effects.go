package effects

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Stats is the mutable player stat environment effects run against.
type Stats map[string]any

// EffectError records a single effect that could not be applied. A bad
// effect never aborts the batch.
type EffectError struct {
	Effect string `json:"effect"`
	Reason string `json:"reason"`
}

var statRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*`)

// Evaluator compiles pickup effect strings ("shield+1", "score+500") and
// applies them to player stats. Programs are compiled once and reused.
type Evaluator struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

func NewEvaluator() *Evaluator {
	return &Evaluator{programs: make(map[string]*vm.Program)}
}

func (e *Evaluator) compile(effect string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.programs[effect]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(effect)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.programs[effect] = program
	e.mu.Unlock()
	return program, nil
}

// ApplyOne evaluates a single effect against the stats and writes the result
// back to the stat the effect names. The target stat is the leading
// identifier ("shield+1" targets "shield"); stats absent from the
// environment default to 0.
func (e *Evaluator) ApplyOne(stats Stats, effect string) error {
	target := statRe.FindString(effect)
	if target == "" {
		return fmt.Errorf("effect %q does not name a stat", effect)
	}

	program, err := e.compile(effect)
	if err != nil {
		return fmt.Errorf("invalid effect %q: %w", effect, err)
	}

	env := make(map[string]any, len(stats)+1)
	for k, v := range stats {
		env[k] = v
	}
	if _, ok := env[target]; !ok {
		env[target] = 0
	}

	result, err := vm.Run(program, env)
	if err != nil {
		return fmt.Errorf("effect %q failed: %w", effect, err)
	}

	switch result.(type) {
	case int, int64, float64:
		stats[target] = result
	default:
		return fmt.Errorf("effect %q produced non-numeric result %T", effect, result)
	}
	return nil
}

// Apply runs every effect against the stats, collecting per-effect failures
// instead of stopping at the first one.
func (e *Evaluator) Apply(stats Stats, effects []string) []EffectError {
	var failed []EffectError
	for _, effect := range effects {
		if err := e.ApplyOne(stats, effect); err != nil {
			failed = append(failed, EffectError{Effect: effect, Reason: err.Error()})
		}
	}
	return failed
}
