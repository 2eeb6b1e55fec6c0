package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const minPromptLength = 10

var idRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidatePrompt checks a user generation prompt. Leading and trailing
// whitespace does not count toward the minimum length.
func ValidatePrompt(prompt string) error {
	if len(strings.TrimSpace(prompt)) < minPromptLength {
		return fmt.Errorf("user_prompt must be at least %d characters", minPromptLength)
	}
	return nil
}

// ValidateDifficulty checks a difficulty label against the supported set.
func ValidateDifficulty(difficulty string) error {
	switch difficulty {
	case "easy", "normal", "hard":
		return nil
	}
	return fmt.Errorf("difficulty must be one of: easy, normal, hard")
}

// ValidatePlayerID validates player ID format
func ValidatePlayerID(id string) error {
	if len(id) == 0 || len(id) > 64 {
		return fmt.Errorf("player ID must be 1-64 characters")
	}
	if !idRe.MatchString(id) {
		return fmt.Errorf("player ID can only contain alphanumeric characters, hyphens, and underscores")
	}
	return nil
}

// ValidateEntityID validates game entity (enemy, boss, stage) ID format
func ValidateEntityID(id string) error {
	if len(id) == 0 || len(id) > 128 {
		return fmt.Errorf("entity ID must be 1-128 characters")
	}
	if !idRe.MatchString(id) {
		return fmt.Errorf("entity ID can only contain alphanumeric characters, hyphens, and underscores")
	}
	return nil
}

// ValidateStageNum validates a stage index
func ValidateStageNum(n int) error {
	if n < 0 || n > 100 {
		return fmt.Errorf("stage_num must be between 0 and 100")
	}
	return nil
}
