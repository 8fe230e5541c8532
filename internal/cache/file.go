package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
)

// Entry is one cached response on disk.
type Entry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

// File keeps one JSON file per entry in a directory.
type File struct {
	dir        string
	ttlSeconds int
}

// NewFile creates a file store. If dir is empty, uses the default cache
// directory.
func NewFile(dir string, ttlSeconds int) (*File, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating cache directory")
	}
	return &File{dir: dir, ttlSeconds: ttlSeconds}, nil
}

// Get retrieves a cached entry by key. Returns ("", false) on miss.
func (c *File) Get(_ context.Context, key string) (string, bool) {
	path := c.entryPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return "", false
	}
	if c.expired(entry) {
		os.Remove(path)
		return "", false
	}
	return entry.Response, true
}

// Put stores a response. The file is written atomically so concurrent
// readers never see a partial entry.
func (c *File) Put(_ context.Context, key, response string) error {
	entry := Entry{
		Key:       HashKey(key),
		Response:  response,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "marshaling cache entry")
	}
	tmp, err := os.CreateTemp(c.dir, ".entry-*")
	if err != nil {
		return errors.Wrap(err, "creating cache entry")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing cache entry")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "writing cache entry")
	}
	return errors.Wrap(os.Rename(tmp.Name(), c.entryPath(key)), "storing cache entry")
}

// Clear removes all cache entries.
func (c *File) Clear(_ context.Context) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, "reading cache directory")
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return errors.Wrapf(err, "removing %s", e.Name())
			}
		}
	}
	return nil
}

// Stats returns information about the cache directory.
func (c *File) Stats(_ context.Context) (Stats, error) {
	stats := Stats{Backend: "file", Location: c.dir}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, errors.Wrap(err, "reading cache directory")
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		data, err := os.ReadFile(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		if c.expired(entry) {
			stats.Expired++
		}
	}
	return stats, nil
}

func (c *File) Enabled() bool { return true }

// Dir returns the cache directory path.
func (c *File) Dir() string { return c.dir }

func (c *File) expired(e Entry) bool {
	return c.ttlSeconds > 0 && time.Since(e.CreatedAt) > time.Duration(c.ttlSeconds)*time.Second
}

func (c *File) entryPath(key string) string {
	return filepath.Join(c.dir, HashKey(key)+".json")
}

// DefaultDir returns the OS-appropriate cache directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "changelens"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "cannot determine home directory")
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "changelens"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "changelens", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "changelens", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "changelens"), nil
	}
}
