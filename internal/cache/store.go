package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Key derives a stable content-addressed cache key from the given input
// parts. Identical parts always produce identical keys; any change to any
// part (including a caller-supplied version tag) produces a different key.
func Key(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

// TierStats reports entry count and total payload size for one cache tier.
type TierStats struct {
	Count      int   `json:"count"`
	TotalBytes int64 `json:"total_bytes"`
}

// Stats reports both tiers plus the on-disk location.
type Stats struct {
	Memory     TierStats `json:"memory"`
	Filesystem TierStats `json:"filesystem"`
	Directory  string    `json:"directory"`
}

// Store is a two-tier content-addressed cache: an in-process map mirrored to
// a filesystem directory. Entries never expire; Clear is the only eviction
// path. Filesystem failures are logged and swallowed so that caching can
// never break a generation request. Safe for concurrent use.
type Store struct {
	dir string
	ext string

	mu     sync.RWMutex
	memory map[string][]byte
}

// NewStore creates a store rooted at dir. Payload files are written with the
// given extension (e.g. ".png", ".json"). Entries may be namespaced into
// subdirectories via the kind argument of Get/Put.
func NewStore(dir, ext string) *Store {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Store{
		dir:    dir,
		ext:    ext,
		memory: make(map[string][]byte),
	}
}

func (s *Store) path(kind, key string) string {
	if kind == "" {
		return filepath.Join(s.dir, key+s.ext)
	}
	return filepath.Join(s.dir, kind, key+s.ext)
}

func memKey(kind, key string) string {
	return kind + "/" + key
}

// Get returns the cached payload for key, checking the memory tier first and
// falling back to the filesystem. A filesystem hit populates the memory tier.
func (s *Store) Get(kind, key string) ([]byte, bool) {
	s.mu.RLock()
	payload, ok := s.memory[memKey(kind, key)]
	s.mu.RUnlock()
	if ok {
		return payload, true
	}

	payload, err := os.ReadFile(s.path(kind, key))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("cache: failed to read %s/%s: %v", kind, key, err)
		}
		return nil, false
	}

	s.mu.Lock()
	s.memory[memKey(kind, key)] = payload
	s.mu.Unlock()
	return payload, true
}

// Put stores the payload in both tiers. The filesystem write is best-effort.
func (s *Store) Put(kind, key string, payload []byte) {
	s.mu.Lock()
	s.memory[memKey(kind, key)] = payload
	s.mu.Unlock()

	dir := filepath.Dir(s.path(kind, key))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("cache: failed to create %s: %v", dir, err)
		return
	}
	if err := os.WriteFile(s.path(kind, key), payload, 0o644); err != nil {
		log.Printf("cache: failed to write %s/%s: %v", kind, key, err)
	}
}

// Clear empties the memory tier, and the filesystem tier too when
// includeFilesystem is set.
func (s *Store) Clear(includeFilesystem bool) {
	s.mu.Lock()
	s.memory = make(map[string][]byte)
	s.mu.Unlock()

	if !includeFilesystem {
		return
	}
	if err := os.RemoveAll(s.dir); err != nil {
		log.Printf("cache: failed to clear %s: %v", s.dir, err)
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Printf("cache: failed to recreate %s: %v", s.dir, err)
	}
}

// Stats reports entry counts and byte totals for both tiers.
func (s *Store) Stats() Stats {
	st := Stats{Directory: s.dir}

	s.mu.RLock()
	st.Memory.Count = len(s.memory)
	for _, payload := range s.memory {
		st.Memory.TotalBytes += int64(len(payload))
	}
	s.mu.RUnlock()

	filepath.Walk(s.dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if strings.HasSuffix(info.Name(), s.ext) {
			st.Filesystem.Count++
			st.Filesystem.TotalBytes += info.Size()
		}
		return nil
	})
	return st
}
