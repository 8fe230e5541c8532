package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func countJSON(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	n := 0
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n
}

func TestFile_PutGet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFile(t.TempDir(), 86400)
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}

	key := "test-key"
	value := "Summary: adds logging\nImpact: none"

	// Miss before put
	if _, ok := c.Get(ctx, key); ok {
		t.Error("Expected cache miss before put")
	}

	if err := c.Put(ctx, key, value); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("Expected cache hit after put")
	}
	if got != value {
		t.Errorf("Got = %q, want %q", got, value)
	}
}

func TestFile_TTLExpiration(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFile(dir, 60)
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}

	key := "expire-test"
	stale := Entry{Key: HashKey(key), Response: "old", CreatedAt: time.Now().Add(-2 * time.Minute), TTL: 60}
	data, _ := json.Marshal(stale)
	if err := os.WriteFile(c.entryPath(key), data, 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Expired != 1 {
		t.Errorf("Expired = %d, want 1", stats.Expired)
	}

	if _, ok := c.Get(ctx, key); ok {
		t.Error("Expected cache miss after TTL expiration")
	}
	if countJSON(t, dir) != 0 {
		t.Error("expired entry should be removed on read")
	}
}

func TestFile_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	c, err := NewFile(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}
	if err := os.WriteFile(c.entryPath("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Error("corrupt entry should be a miss")
	}
}

func TestDisabled(t *testing.T) {
	ctx := context.Background()
	c, err := Open(Options{Enabled: false, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	if c.Enabled() {
		t.Error("Cache should be disabled")
	}

	// Operations should be no-ops
	if err := c.Put(ctx, "key", "value"); err != nil {
		t.Errorf("Put on disabled cache should not error: %v", err)
	}
	if _, ok := c.Get(ctx, "key"); ok {
		t.Error("Get on disabled cache should always miss")
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear on disabled cache should not error: %v", err)
	}
}

func TestOpen_SelectsStore(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Enabled: true, Dir: dir, TTLSeconds: 10})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	f, ok := s.(*File)
	if !ok {
		t.Fatalf("Open returned %T, want *File", s)
	}
	if f.Dir() != dir {
		t.Errorf("Dir = %q, want %q", f.Dir(), dir)
	}

	s, err = Open(Options{Enabled: true, RedisAddr: "localhost:6379", TTLSeconds: 10})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	r, ok := s.(*Redis)
	if !ok {
		t.Fatalf("Open returned %T, want *Redis", s)
	}
	defer r.Close()
	if r.ttl != 10*time.Second {
		t.Errorf("ttl = %v, want 10s", r.ttl)
	}
}

func TestFile_Clear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFile(dir, 86400)
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}

	for i := 0; i < 5; i++ {
		key := string(rune('a' + i))
		if err := c.Put(ctx, key, "data"); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if n := countJSON(t, dir); n != 5 {
		t.Fatalf("Expected 5 cache entries, got %d", n)
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n := countJSON(t, dir); n != 0 {
		t.Errorf("Expected 0 cache entries after clear, got %d", n)
	}
}

func TestFile_Stats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFile(dir, 86400)
	if err != nil {
		t.Fatalf("NewFile error: %v", err)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 0 {
		t.Errorf("Entries = %d, want 0", stats.Entries)
	}

	c.Put(ctx, "key1", "value1")
	c.Put(ctx, "key2", "value2")

	stats, err = c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats.Entries != 2 {
		t.Errorf("Entries = %d, want 2", stats.Entries)
	}
	if stats.TotalBytes <= 0 {
		t.Error("TotalBytes should be > 0")
	}
	if stats.Location != dir || stats.Backend != "file" {
		t.Errorf("stats = %+v, want file store at %q", stats, dir)
	}
}

func TestDefaultDir_XDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := DefaultDir()
	if err != nil {
		t.Fatalf("DefaultDir error: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", "changelens") {
		t.Errorf("DefaultDir = %q", dir)
	}
}

func TestHashKey(t *testing.T) {
	h1 := HashKey("test")
	h2 := HashKey("test")
	h3 := HashKey("other")

	if h1 != h2 {
		t.Error("Same input should produce same hash")
	}
	if h1 == h3 {
		t.Error("Different input should produce different hash")
	}
	if len(h1) != 64 { // SHA-256 hex = 64 chars
		t.Errorf("Hash length = %d, want 64", len(h1))
	}
}

func TestBuildKey(t *testing.T) {
	k1 := BuildKey("anthropic", "claude-sonnet-4-20250514", "explain", "diff content")
	k2 := BuildKey("anthropic", "claude-sonnet-4-20250514", "explain", "diff content")
	k3 := BuildKey("openai", "gpt-4o", "explain", "diff content")
	k4 := BuildKey("anthropic", "claude-sonnet-4-20250514", "explain differently", "diff content")

	if k1 != k2 {
		t.Error("Same inputs should produce same cache key")
	}
	if k1 == k3 {
		t.Error("Different provider should produce different cache key")
	}
	if k1 == k4 {
		t.Error("Different instruction should produce different cache key")
	}
}
