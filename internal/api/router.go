package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fantasyos/shmup-server/internal/cache"
	"github.com/fantasyos/shmup-server/internal/db"
	"github.com/fantasyos/shmup-server/internal/effects"
	"github.com/fantasyos/shmup-server/internal/images"
	"github.com/fantasyos/shmup-server/internal/llm"
	mw "github.com/fantasyos/shmup-server/internal/middleware"
)

// Version is the service version reported by /api/version.
const Version = "0.1.0"

// Config wires a Server to its collaborators.
type Config struct {
	DB        *db.DB
	Completer llm.Completer
	TextModel string
	Games     *llm.Generator
	Images    *images.Generator

	TextCache  *cache.Store
	ImageCache *cache.Store

	// AllowedOrigins lists the frontend origins for CORS; empty disables
	// cross-origin access entirely.
	AllowedOrigins []string

	// RateLimit is requests per second per IP; <= 0 uses the default.
	RateLimit float64
}

// Server handles HTTP requests
type Server struct {
	router      chi.Router
	db          *db.DB
	completer   llm.Completer
	textModel   string
	games       *llm.Generator
	images      *images.Generator
	effects     *effects.Evaluator
	textCache   *cache.Store
	imageCache  *cache.Store
	rateLimiter *mw.RateLimiter
}

// NewServer creates a new API server
func NewServer(cfg Config) *Server {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 20
	}
	s := &Server{
		router:      chi.NewRouter(),
		db:          cfg.DB,
		completer:   cfg.Completer,
		textModel:   cfg.TextModel,
		games:       cfg.Games,
		images:      cfg.Images,
		effects:     effects.NewEvaluator(),
		textCache:   cfg.TextCache,
		imageCache:  cfg.ImageCache,
		rateLimiter: mw.NewRateLimiter(rps, 40),
	}

	s.setupRoutes(cfg.AllowedOrigins)
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes(allowedOrigins []string) {
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.CORSMiddleware(allowedOrigins))
	s.router.Use(mw.SecurityHeadersMiddleware)
	s.router.Use(s.rateLimiter.Middleware)
	s.router.Use(mw.MaxBodySizeMiddleware(1024 * 1024)) // 1MB max

	s.router.Get("/health", s.health)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Post("/generate-game", s.generateGame)
		r.Post("/generate-sprites", s.generateSprites)
		r.Post("/generate-textures", s.generateTextures)
		r.Post("/patch-story", s.patchStory)

		r.Post("/save-game", s.saveGame)
		r.Get("/load-game", s.loadGame)
		r.Get("/get-next-stage", s.getNextStage)
		r.Get("/stage-stats/{id}", s.stageStats)

		r.Get("/database-stats", s.databaseStats)
		r.Get("/cache-stats", s.cacheStats)
		r.Post("/cache-clear", s.cacheClear)

		r.Get("/version", s.version)
		r.Get("/schema", s.getSchema)
		r.Post("/validate-fragment", s.validateFragment)
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// decodeLenient decodes an optional JSON body; an empty or malformed body
// leaves dst at its zero value.
func decodeLenient(r *http.Request, dst any) {
	_ = json.NewDecoder(r.Body).Decode(dst)
}
