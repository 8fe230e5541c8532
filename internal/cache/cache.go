package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Store is a response cache. Get reports a miss for absent, expired or
// unreadable entries; it never fails.
type Store interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Enabled() bool
}

// Stats describes a store's contents.
type Stats struct {
	Backend    string `json:"backend"`
	Location   string `json:"location"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes,omitempty"`
	Expired    int    `json:"expired,omitempty"`
}

// Options selects and configures a store.
type Options struct {
	Enabled    bool
	Dir        string
	TTLSeconds int
	// RedisAddr selects the Redis store. It is either host:port or a
	// redis:// URL.
	RedisAddr string
}

func (o Options) ttl() time.Duration {
	if o.TTLSeconds <= 0 {
		return 0
	}
	return time.Duration(o.TTLSeconds) * time.Second
}

// Open returns the store described by opts: a no-op store when disabled,
// Redis when an address is set, otherwise the file store.
func Open(opts Options) (Store, error) {
	if !opts.Enabled {
		return Disabled{}, nil
	}
	if opts.RedisAddr != "" {
		return NewRedis(opts.RedisAddr, opts.ttl())
	}
	return NewFile(opts.Dir, opts.TTLSeconds)
}

// Disabled is a Store that never hits and never stores.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (string, bool) { return "", false }

func (Disabled) Put(context.Context, string, string) error { return nil }

func (Disabled) Clear(context.Context) error { return nil }

func (Disabled) Stats(context.Context) (Stats, error) { return Stats{Backend: "disabled"}, nil }

func (Disabled) Enabled() bool { return false }

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildKey creates a cache key from the analysis inputs of one file.
func BuildKey(provider, model, instruction, content string) string {
	return HashKey(fmt.Sprintf("%s\x00%s\x00%s\x00%s", provider, model, instruction, content))
}
