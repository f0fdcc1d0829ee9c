package sources

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// Cache keeps the last successfully fetched copy of every remote source so a
// later run can fall back to it.
type Cache struct {
	dir string
}

// NewCache returns a cache rooted at dir, creating it if missing. It returns
// nil when dir is empty or cannot be created; a nil *Cache is valid and
// stores nothing.
func NewCache(dir string, log *slog.Logger) *Cache {
	dir = EnsureCacheDir(dir, log)
	if dir == "" {
		return nil
	}
	return &Cache{dir: dir}
}

// EnsureCacheDir creates the cache directory if missing. Returns an empty string on failure.
func EnsureCacheDir(cacheDir string, log *slog.Logger) string {
	if cacheDir == "" {
		return ""
	}
	if err := os.MkdirAll(cacheDir, 0o750); err != nil {
		if log != nil {
			log.Error("failed to create cache dir, caching disabled", "dir", cacheDir, "error", err)
		}
		return ""
	}
	return cacheDir
}

// Write stores text for source atomically.
func (c *Cache) Write(source Source, text string) error {
	if c == nil {
		return nil
	}
	return renameio.WriteFile(c.path(source), []byte(text), 0o600)
}

// Read returns the cached text for source.
func (c *Cache) Read(source Source) (string, error) {
	if c == nil {
		return "", os.ErrNotExist
	}
	// #nosec G304 -- cache path is derived from configured cache directory.
	data, err := os.ReadFile(c.path(source))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Cache) path(source Source) string {
	return filepath.Join(c.dir, cacheFileName(source))
}

func cacheFileName(source Source) string {
	id := sanitizeID(source.ID)
	if id == "" {
		hash := sha256.Sum256([]byte(source.Location))
		id = "custom-" + hex.EncodeToString(hash[:8])
	}
	return id + ".txt"
}

func sanitizeID(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	builder := strings.Builder{}
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z':
			builder.WriteRune(r)
		case r >= '0' && r <= '9':
			builder.WriteRune(r)
		default:
			builder.WriteRune('_')
		}
	}
	return builder.String()
}
