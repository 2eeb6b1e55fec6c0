package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/fantasyos/shmup-server/internal/cache"
)

// GenerationError reports an upstream provider or parse failure after all
// retries are exhausted.
type GenerationError struct {
	Op  string // "completion" or "parse"
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// CacheKey derives the content-addressed key for a generated game document.
// Difficulty is deliberately excluded: the presets only shape the instruction
// text and are meant to be applied client-side, so one theme maps to one
// cached document regardless of difficulty.
func CacheKey(userPrompt string) string {
	return cache.Key(PromptVersion, userPrompt)
}

// Generator produces raw game description documents from a theme prompt,
// with caching and retry. The returned document is unvalidated; schema
// validation is a separate downstream step so that generation failures and
// validation failures surface distinctly.
type Generator struct {
	completer  Completer
	cache      *cache.Store
	model      string
	maxRetries int
	sleep      func(time.Duration)
}

// NewGenerator wires a generator to a completion provider and a cache store.
// maxRetries <= 0 defaults to 3.
func NewGenerator(completer Completer, store *cache.Store, model string, maxRetries int) *Generator {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Generator{
		completer:  completer,
		cache:      store,
		model:      model,
		maxRetries: maxRetries,
		sleep:      time.Sleep,
	}
}

// Generate returns the raw game document for the given theme and difficulty.
// Cache hits return immediately with no model call. On a miss it requests a
// strict-JSON completion, retrying parse and transport failures with
// exponential backoff (1s, 2s, 4s, ...) up to maxRetries attempts.
func (g *Generator) Generate(ctx context.Context, userPrompt, difficulty string) (map[string]any, error) {
	key := CacheKey(userPrompt)

	if payload, ok := g.cache.Get("", key); ok {
		var doc map[string]any
		if err := json.Unmarshal(payload, &doc); err == nil {
			log.Printf("llm: cache hit for key %s", key[:16])
			return doc, nil
		}
		log.Printf("llm: discarding corrupt cache entry %s", key[:16])
	}

	req := &CompletionRequest{
		Model:       g.model,
		Temperature: 0.8,
		MaxTokens:   4000,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(userPrompt, difficulty)},
		},
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	var lastErr *GenerationError
	for attempt := 0; attempt < g.maxRetries; attempt++ {
		log.Printf("llm: calling %s (attempt %d/%d)", g.model, attempt+1, g.maxRetries)

		resp, err := g.completer.CreateCompletion(ctx, req)
		if err != nil {
			lastErr = &GenerationError{Op: "completion", Err: err}
		} else {
			var doc map[string]any
			if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &doc); err != nil {
				lastErr = &GenerationError{Op: "parse", Err: err}
			} else {
				// Fire-and-forget cache write; failure never fails the call.
				if payload, err := json.Marshal(doc); err == nil {
					g.cache.Put("", key, payload)
				}
				return doc, nil
			}
		}

		if attempt < g.maxRetries-1 {
			wait := time.Duration(1<<uint(attempt)) * time.Second
			log.Printf("llm: %v, retrying in %s", lastErr, wait)
			g.sleep(wait)
		}
	}
	return nil, lastErr
}
