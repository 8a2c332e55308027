package cache

import (
    "encoding/json"
    "errors"
    "io/fs"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"
)

// ClearDir removes the directory and all contents. It recreates the directory
// afterwards to leave a valid empty cache location.
func ClearDir(dir string) error {
    if strings.TrimSpace(dir) == "" {
        return errors.New("empty dir")
    }
    if err := os.RemoveAll(dir); err != nil {
        return err
    }
    return os.MkdirAll(dir, 0o755)
}

// PurgeHTTPCacheByAge removes HTTP cache entries older than maxAge.
// It inspects <key>.meta.json for SavedAt timestamp and deletes both meta and
// corresponding <key>.body when expired.
func PurgeHTTPCacheByAge(dir string, maxAge time.Duration) (int, error) {
    if maxAge <= 0 {
        return 0, nil
    }
    now := time.Now().UTC()
    removed := 0
    err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil {
            return err
        }
        if d.IsDir() || !strings.HasSuffix(d.Name(), ".meta.json") {
            return nil
        }
        b, err := os.ReadFile(path)
        if err != nil {
            return nil // skip unreadable
        }
        var e HTTPEntry
        if err := json.Unmarshal(b, &e); err != nil {
            return nil // skip malformed
        }
        if now.Sub(e.SavedAt) <= maxAge {
            return nil
        }
        removed++
        _ = os.Remove(path)
        base := strings.TrimSuffix(path, ".meta.json")
        _ = os.Remove(base + ".body")
        return nil
    })
    return removed, err
}

// PurgeLayerCacheByAge removes text layer entries whose modification time is
// older than maxAge. Layer files use the .json extension.
func PurgeLayerCacheByAge(dir string, maxAge time.Duration) (int, error) {
    if maxAge <= 0 {
        return 0, nil
    }
    now := time.Now().UTC()
    removed := 0
    for _, e := range layerEntries(dir) {
        if now.Sub(e.mod) <= maxAge {
            continue
        }
        if os.Remove(e.paths[0]) == nil {
            removed++
        }
    }
    return removed, nil
}

type entry struct {
    paths []string
    size  int64
    mod   time.Time
}

func layerEntries(dir string) []entry {
    var out []entry
    _ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil || d.IsDir() {
            return nil
        }
        name := d.Name()
        if strings.HasSuffix(name, ".meta.json") || !strings.HasSuffix(name, ".json") {
            return nil
        }
        info, err := d.Info()
        if err != nil {
            return nil
        }
        out = append(out, entry{paths: []string{path}, size: info.Size(), mod: info.ModTime()})
        return nil
    })
    return out
}

func httpEntries(dir string) []entry {
    var out []entry
    _ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
        if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".body") {
            return nil
        }
        info, err := d.Info()
        if err != nil {
            return nil
        }
        base := strings.TrimSuffix(path, ".body")
        e := entry{paths: []string{path, base + ".meta.json"}, size: info.Size(), mod: info.ModTime()}
        if mi, err := os.Stat(base + ".meta.json"); err == nil {
            e.size += mi.Size()
        }
        out = append(out, e)
        return nil
    })
    return out
}

// enforce evicts least recently used entries until both limits hold. A zero
// limit is ignored.
func enforce(entries []entry, maxBytes int64, maxCount int) int {
    sort.Slice(entries, func(i, j int) bool { return entries[i].mod.Before(entries[j].mod) })
    var total int64
    for _, e := range entries {
        total += e.size
    }
    removed := 0
    for len(entries) > 0 {
        overCount := maxCount > 0 && len(entries) > maxCount
        overBytes := maxBytes > 0 && total > maxBytes
        if !overCount && !overBytes {
            break
        }
        e := entries[0]
        entries = entries[1:]
        for _, p := range e.paths {
            _ = os.Remove(p)
        }
        total -= e.size
        removed++
    }
    return removed
}

// EnforceHTTPCacheLimits evicts HTTP entries, oldest access first, until the
// cache holds at most maxCount entries and maxBytes bytes.
func EnforceHTTPCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
    if _, err := os.Stat(dir); err != nil {
        return 0, err
    }
    return enforce(httpEntries(dir), maxBytes, maxCount), nil
}

// EnforceLayerCacheLimits is EnforceHTTPCacheLimits for the text layer cache.
func EnforceLayerCacheLimits(dir string, maxBytes int64, maxCount int) (int, error) {
    if _, err := os.Stat(dir); err != nil {
        return 0, err
    }
    return enforce(layerEntries(dir), maxBytes, maxCount), nil
}
