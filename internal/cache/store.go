package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the TTL key-value cache sitting in front of each external client.
// A hit short-circuits the network call; writes happen only after a
// successful non-mock fetch so throttled fallback data is never cached.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Key namespaces, one per data class with its own TTL.
const (
	NSQuote    = "quote"
	NSOverview = "overview"
	NSPosts    = "posts"
	NSRating   = "rating"
)

func Key(namespace, id string) string {
	return namespace + ":" + id
}

// GetJSON unmarshals a cached entry into out. Returns false on miss or on a
// corrupt entry (which is dropped so the next fetch repopulates it).
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	b, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal(b, out); err != nil {
		_ = s.Delete(ctx, key)
		return false, nil
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, b, ttl)
}
