package llm

import (
	"context"
	"os"
	"testing"
	"time"
)

// Integration test against the real completion API. Skipped without
// credentials.
func TestClientCreateCompletion(t *testing.T) {
	if os.Getenv("OPENROUTER_API_KEY") == "" {
		t.Skip("OPENROUTER_API_KEY not set")
	}

	client := NewClient()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.CreateCompletion(ctx, &CompletionRequest{
		Model: "meta-llama/llama-3.3-70b-instruct",
		Messages: []Message{
			{Role: "user", Content: "Reply with the single word: ok"},
		},
		MaxTokens: 10,
	})
	if err != nil {
		t.Fatalf("CreateCompletion failed: %v", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		t.Fatalf("empty completion: %+v", resp)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	client := NewClient()
	if _, err := client.CreateCompletion(context.Background(), &CompletionRequest{Model: "m"}); err == nil {
		t.Fatal("expected error without API key")
	}
}
