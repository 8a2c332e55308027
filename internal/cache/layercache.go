package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
    "strings"
    "time"
)

// LayerCache stores extracted PDF text layers keyed by a digest of the PDF
// bytes, so reopening the same drawing set skips text extraction.
type LayerCache struct {
    Dir         string
    // StrictPerms, when true, enforces 0700 on cache directories and 0600 on
    // files.
    StrictPerms bool
}

func (c *LayerCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	return ensureDir(c.Dir, c.StrictPerms)
}

func ensureDir(dir string, strict bool) error {
    perm := os.FileMode(0o755)
    if strict {
        perm = 0o700
    }
    if err := os.MkdirAll(dir, perm); err != nil {
        return err
    }
    // If directory already existed and strict is on, tighten perms
    if strict {
        if info, err := os.Stat(dir); err == nil {
            if info.Mode()&0o777 != 0o700 {
                _ = os.Chmod(dir, 0o700)
            }
        }
    }
    return nil
}

func fileMode(strict bool) os.FileMode {
	if strict {
		return 0o600
	}
	return 0o644
}

// KeyFrom builds a cache key from a format version and content parts.
func KeyFrom(version string, parts ...string) string {
	h := sha256.Sum256([]byte(version + "\n\n" + strings.Join(parts, "\n")))
	return hex.EncodeToString(h[:])
}

// DigestBytes returns the hex SHA-256 of data.
func DigestBytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func (c *LayerCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

// Get returns cached bytes if present.
func (c *LayerCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := c.ensureDir(); err != nil {
		return nil, false, err
	}
	p := c.pathFor(key)
    b, err := os.ReadFile(p)
    if err != nil {
        return nil, false, nil
    }
    // Touch file mtime on access for LRU purposes
    now := time.Now()
    _ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes bytes to cache.
func (c *LayerCache) Save(_ context.Context, key string, data []byte) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	return os.WriteFile(c.pathFor(key), data, fileMode(c.StrictPerms))
}
