package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fantasyos/shmup-server/internal/cache"
)

// stubCompleter counts calls and returns canned responses or errors.
type stubCompleter struct {
	calls     int
	responses []string
	err       error
}

func (s *stubCompleter) CreateCompletion(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	content := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	resp := &CompletionResponse{}
	resp.Choices = append(resp.Choices, struct {
		Index   int     `json:"index"`
		Message Message `json:"message"`
		Reason  string  `json:"finish_reason"`
	}{Message: Message{Role: "assistant", Content: content}})
	return resp, nil
}

func newTestGenerator(t *testing.T, completer Completer, maxRetries int) *Generator {
	t.Helper()
	g := NewGenerator(completer, cache.NewStore(t.TempDir(), ".json"), "test-model", maxRetries)
	g.sleep = func(time.Duration) {}
	return g
}

func TestCacheKeyDeterminism(t *testing.T) {
	k1 := CacheKey("a cathedral kernel")
	k2 := CacheKey("a cathedral kernel")
	if k1 != k2 {
		t.Fatalf("same prompt produced different keys: %s vs %s", k1, k2)
	}
	if CacheKey("another prompt") == k1 {
		t.Fatal("different prompts should produce different keys")
	}
}

func TestGenerateCacheHitSkipsProvider(t *testing.T) {
	stub := &stubCompleter{responses: []string{`{"story":{"os_name":"X"}}`}}
	g := newTestGenerator(t, stub, 3)

	doc, err := g.Generate(context.Background(), "ocean ruins with glass fish", "normal")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", stub.calls)
	}

	again, err := g.Generate(context.Background(), "ocean ruins with glass fish", "normal")
	if err != nil {
		t.Fatalf("cached Generate failed: %v", err)
	}
	if stub.calls != 1 {
		t.Fatalf("cache hit should not call the provider, got %d calls", stub.calls)
	}
	if story, ok := again["story"].(map[string]any); !ok || story["os_name"] != doc["story"].(map[string]any)["os_name"] {
		t.Fatalf("cached payload differs: %v vs %v", again, doc)
	}
}

func TestGenerateCacheIgnoresDifficulty(t *testing.T) {
	stub := &stubCompleter{responses: []string{`{"a":1}`}}
	g := newTestGenerator(t, stub, 3)

	if _, err := g.Generate(context.Background(), "neon beehive", "easy"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if _, err := g.Generate(context.Background(), "neon beehive", "hard"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	// Difficulty is excluded from the cache key, so the second call hits.
	if stub.calls != 1 {
		t.Fatalf("expected 1 provider call across difficulties, got %d", stub.calls)
	}
}

func TestGenerateRetriesParseFailures(t *testing.T) {
	stub := &stubCompleter{responses: []string{"not json at all"}}
	g := newTestGenerator(t, stub, 3)

	var slept []time.Duration
	g.sleep = func(d time.Duration) { slept = append(slept, d) }

	_, err := g.Generate(context.Background(), "broken radio galaxy", "normal")
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if stub.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", stub.calls)
	}

	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Op != "parse" {
		t.Fatalf("expected parse GenerationError, got %v", err)
	}

	// Backoff after every attempt but the last: 1s then 2s.
	if len(slept) != 2 || slept[0] != time.Second || slept[1] != 2*time.Second {
		t.Fatalf("unexpected backoff schedule: %v", slept)
	}
}

func TestGenerateRetriesTransportFailures(t *testing.T) {
	stub := &stubCompleter{err: errors.New("connection refused")}
	g := newTestGenerator(t, stub, 2)

	_, err := g.Generate(context.Background(), "a ruined observatory", "normal")
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if stub.calls != 2 {
		t.Fatalf("expected exactly 2 attempts, got %d", stub.calls)
	}
	var genErr *GenerationError
	if !errors.As(err, &genErr) || genErr.Op != "completion" {
		t.Fatalf("expected completion GenerationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("error should carry provider detail: %v", err)
	}
}

func TestGenerateRecoversOnLaterAttempt(t *testing.T) {
	stub := &stubCompleter{responses: []string{"garbage", `{"ok":true}`}}
	g := newTestGenerator(t, stub, 3)

	doc, err := g.Generate(context.Background(), "clockwork tidepool", "normal")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", stub.calls)
	}
	if doc["ok"] != true {
		t.Fatalf("unexpected document: %v", doc)
	}
}

func TestBuildUserPromptDifficulty(t *testing.T) {
	easy := buildUserPrompt("candy moons", "easy")
	hard := buildUserPrompt("candy moons", "hard")

	if !strings.Contains(easy, "15-40") {
		t.Fatal("easy preset HP range missing from prompt")
	}
	if !strings.Contains(hard, "40-100") {
		t.Fatal("hard preset HP range missing from prompt")
	}
	if !strings.Contains(easy, "candy moons") {
		t.Fatal("user theme missing from prompt")
	}

	// Unknown difficulty falls back to normal.
	fallback := buildUserPrompt("candy moons", "nightmare")
	if !strings.Contains(fallback, "20-60") {
		t.Fatal("unknown difficulty should use the normal preset")
	}
}

func TestBridge(t *testing.T) {
	stub := &stubCompleter{responses: []string{"  The kernel dims. A new partition hums awake.  \n"}}

	text, err := Bridge(context.Background(), stub, "test-model",
		StageTheme{OSName: "FantasyOS-9", Tagline: "bone and wire"},
		StageTheme{OSName: "FantasyOS-10", Tagline: "glass and static"})
	if err != nil {
		t.Fatalf("Bridge failed: %v", err)
	}
	if text != "The kernel dims. A new partition hums awake." {
		t.Fatalf("expected trimmed text, got %q", text)
	}
	if stub.calls != 1 {
		t.Fatalf("expected a single provider call, got %d", stub.calls)
	}
}

func TestBridgePropagatesFailure(t *testing.T) {
	stub := &stubCompleter{err: errors.New("model offline")}

	_, err := Bridge(context.Background(), stub, "test-model", StageTheme{}, StageTheme{})
	if err == nil {
		t.Fatal("expected error")
	}
	if stub.calls != 1 {
		t.Fatalf("bridge must not retry, got %d calls", stub.calls)
	}
}
