// Package cache provides the suggestion and embedding cache behind a
// single interface, with in-process and Redis implementations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores serialized values with per-entry TTLs. Implementations
// must be safe for concurrent use. A cache miss is (nil, false, nil);
// errors are reserved for backend failures.
type Cache interface {
	// Get retrieves a value by key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix. Used to
	// invalidate a user's suggestions after a wardrobe mutation.
	DeletePrefix(ctx context.Context, prefix string) error

	// Close releases backend resources.
	Close() error
}

// NormalizeQuery canonicalizes a query for cache keying: lowercase,
// trimmed, with internal whitespace runs collapsed to single spaces.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// SuggestionKey builds the cache key for a suggestion response. The
// query is normalized and hashed so equivalent phrasings share an entry.
func SuggestionKey(ownerID, query string) string {
	return "suggestion:" + ownerID + ":" + shortHash(NormalizeQuery(query))
}

// SuggestionPrefix is the key prefix covering all of one user's cached
// suggestions.
func SuggestionPrefix(ownerID string) string {
	return "suggestion:" + ownerID + ":"
}

// EmbeddingKey builds the cache key for a query embedding.
func EmbeddingKey(model, text string) string {
	return "embedding:" + model + ":" + shortHash(text)
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}
