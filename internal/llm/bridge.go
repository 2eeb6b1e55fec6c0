package llm

import (
	"context"
	"fmt"
	"strings"
)

// StageTheme identifies a stage in a narrative bridge request.
type StageTheme struct {
	OSName  string `json:"os_name"`
	Tagline string `json:"tagline"`
}

// Bridge generates a short narrative transition between two stages. One
// provider call with a small token budget, no JSON mode, no retry and no
// cache; failures propagate directly.
func Bridge(ctx context.Context, completer Completer, model string, previous, next StageTheme) (string, error) {
	prompt := fmt.Sprintf(`You are a narrative designer for a biomechanical shmup game.
Write a 2-3 sentence transition between two stages.

Previous stage: %s - %q
Next stage: %s - %q

Write a brief, atmospheric transition that connects these two worlds.
Keep it under 50 words.
Return only the narrative text, no additional formatting.`,
		previous.OSName, previous.Tagline, next.OSName, next.Tagline)

	resp, err := completer.CreateCompletion(ctx, &CompletionRequest{
		Model:       model,
		Temperature: 0.8,
		MaxTokens:   150,
		Messages:    []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", &GenerationError{Op: "completion", Err: err}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
