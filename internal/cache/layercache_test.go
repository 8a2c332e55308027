package cache

import (
    "context"
    "fmt"
    "os"
    "path/filepath"
    "testing"
    "time"
)

func TestLayerCache_SaveGet(t *testing.T) {
	tmp := t.TempDir()
	c := &LayerCache{Dir: tmp}
	key := KeyFrom("textlayer/v1", DigestBytes([]byte("%PDF-1.4 ...")))
	data := []byte(`{"pages":[{"hasText":true,"spans":["Узел 1"]}]}`)
	if err := c.Save(context.Background(), key, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if string(got) != string(data) {
		t.Fatalf("mismatch")
	}
	if _, ok, _ := c.Get(context.Background(), KeyFrom("textlayer/v2", "other")); ok {
		t.Fatalf("unexpected hit for unknown key")
	}
}

func TestLayerCache_NoDirConfigured(t *testing.T) {
	var c *LayerCache
	if _, _, err := c.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error for nil cache")
	}
}

func TestLayerCache_LRUEnforcement(t *testing.T) {
    tmp := t.TempDir()
    c := &LayerCache{Dir: tmp}
    keys := []string{KeyFrom("v", "a.pdf"), KeyFrom("v", "b.pdf"), KeyFrom("v", "c.pdf")}
    for i, k := range keys {
        if err := c.Save(context.Background(), k, []byte(fmt.Sprintf("%d", i))); err != nil {
            t.Fatalf("save %d: %v", i, err)
        }
        // Ensure distinct mtimes by sleeping a tiny amount
        time.Sleep(10 * time.Millisecond)
    }
    // Touch the second entry to be most recently used
    if _, ok, _ := c.Get(context.Background(), keys[1]); !ok {
        t.Fatal("expected hit")
    }
    removed, err := EnforceLayerCacheLimits(tmp, 0, 2)
    if err != nil { t.Fatalf("enforce: %v", err) }
    if removed != 1 { t.Fatalf("expected 1 removed, got %d", removed) }
    if _, ok, _ := c.Get(context.Background(), keys[0]); ok {
        t.Fatal("expected oldest evicted")
    }
}

func TestPurgeLayerCacheByAge(t *testing.T) {
    tmp := t.TempDir()
    c := &LayerCache{Dir: tmp}
    if err := c.Save(context.Background(), "old", []byte("x")); err != nil {
        t.Fatal(err)
    }
    past := time.Now().Add(-48 * time.Hour)
    if err := os.Chtimes(filepath.Join(tmp, "old.json"), past, past); err != nil {
        t.Fatal(err)
    }
    if err := c.Save(context.Background(), "fresh", []byte("y")); err != nil {
        t.Fatal(err)
    }
    removed, err := PurgeLayerCacheByAge(tmp, 24*time.Hour)
    if err != nil || removed != 1 {
        t.Fatalf("expected one purge, got %d %v", removed, err)
    }
    if _, ok, _ := c.Get(context.Background(), "fresh"); !ok {
        t.Fatalf("fresh entry must survive")
    }
}
