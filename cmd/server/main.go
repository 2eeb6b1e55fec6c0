package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fantasyos/shmup-server/internal/api"
	"github.com/fantasyos/shmup-server/internal/cache"
	"github.com/fantasyos/shmup-server/internal/db"
	"github.com/fantasyos/shmup-server/internal/images"
	"github.com/fantasyos/shmup-server/internal/llm"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	port := envOr("PORT", "5006")
	dbPath := envOr("DB_PATH", filepath.Join("data", "fantasy_shmup.db"))
	cacheDir := envOr("CACHE_DIR", "cache")
	textModel := envOr("TEXT_MODEL", "cerebras/llama-3.3-70b")

	maxRetries := 3
	if v, err := strconv.Atoi(envOr("MAX_LLM_RETRIES", "3")); err == nil && v > 0 {
		maxRetries = v
	}

	origins := strings.Split(envOr("ALLOWED_ORIGINS",
		"http://localhost:5173,http://127.0.0.1:5173"), ",")

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Initialize database
	database, err := db.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	textCache := cache.NewStore(filepath.Join(cacheDir, "text"), ".json")
	imageCache := cache.NewStore(filepath.Join(cacheDir, "images"), ".png")

	completer := llm.NewClient()

	server := api.NewServer(api.Config{
		DB:             database,
		Completer:      completer,
		TextModel:      textModel,
		Games:          llm.NewGenerator(completer, textCache, textModel, maxRetries),
		Images:         images.NewGenerator(images.NewGeminiProvider(), images.NewOpenAIProvider(), imageCache),
		TextCache:      textCache,
		ImageCache:     imageCache,
		AllowedOrigins: origins,
	})

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Health check: http://localhost:%s/health", port)

	if err := http.ListenAndServe(addr, server); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
