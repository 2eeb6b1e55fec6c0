package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/fantasyos/shmup-server/internal/schema"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "fantasy-os-shmup",
		"version": Version,
		"models": map[string]any{
			"text":           s.textModel,
			"image_primary":  envOr("IMAGE_MODEL_PRIMARY", "gemini-2.5-flash-image-preview"),
			"image_fallback": envOr("IMAGE_MODEL_FALLBACK", "gpt-image-1"),
		},
	})
}

// cacheStats reports entry counts and sizes for both cache tiers.
func (s *Server) cacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"text":   s.textCache.Stats(),
		"images": s.imageCache.Stats(),
	})
}

// cacheClear empties the caches. Filesystem entries are kept unless the
// request asks for them too.
func (s *Server) cacheClear(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IncludeFilesystem bool `json:"include_filesystem"`
	}
	// An empty body means memory-only clear.
	decodeLenient(r, &req)

	s.textCache.Clear(req.IncludeFilesystem)
	s.imageCache.Clear(req.IncludeFilesystem)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"include_filesystem": req.IncludeFilesystem,
	})
}

// getSchema returns the reflected JSON Schema for game documents.
func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schema.Reflect())
}

// validateFragment checks a single document fragment, for editor tooling.
func (s *Server) validateFragment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind string         `json:"kind"`
		Data map[string]any `json:"data"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	validated, err := schema.ValidatePartial(req.Data, req.Kind)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownFragmentKind) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"data":  validated,
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
