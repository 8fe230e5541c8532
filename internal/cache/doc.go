// Package cache stores raw backend responses so that re-analyzing an
// unchanged file does not repeat the network round-trip.
//
// Entries are keyed by a SHA-256 hash of the provider, model, instruction
// and redacted file content. Two stores are available: a directory of JSON
// files (the default, under $XDG_CACHE_HOME/changelens or the OS-appropriate
// equivalent) and a Redis server shared between machines. Both honor a TTL
// in seconds; expired file entries are skipped on read and removed during
// clear, Redis expires keys itself.
//
// All payloads stored in the cache have already been through secret
// redaction.
package cache
