package schemes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/01101001raj/dms-backend/pkg/db/models"
	"github.com/01101001raj/dms-backend/pkg/redis"
	"github.com/01101001raj/dms-backend/pkg/types"
)

// cacheStore is the slice of the redis client the scheme cache uses.
type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// Cache is a read-through cache of the live scheme list keyed by
// calendar day. Creation and stopping invalidate the whole namespace
// key for the affected days; a short TTL bounds staleness either way.
type Cache struct {
	store cacheStore
	ttl   time.Duration
}

// NewCache wires a scheme cache over the shared redis client.
func NewCache(store cacheStore, ttl time.Duration) (*Cache, error) {
	if store == nil {
		return nil, errors.New("cache store required")
	}
	if ttl <= 0 {
		return nil, errors.New("cache ttl must be positive")
	}
	return &Cache{store: store, ttl: ttl}, nil
}

func (c *Cache) key(date types.Date) string {
	return c.store.CacheKey("schemes", "live", date.String())
}

// Get returns the cached live schemes for the date, or ok=false on a
// miss. Corrupt payloads count as misses.
func (c *Cache) Get(ctx context.Context, date types.Date) ([]models.Scheme, bool, error) {
	raw, err := c.store.Get(ctx, c.key(date))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading scheme cache: %w", err)
	}
	var schemes []models.Scheme
	if err := json.Unmarshal([]byte(raw), &schemes); err != nil {
		return nil, false, nil
	}
	return schemes, true, nil
}

// Put stores the live scheme list for the date.
func (c *Cache) Put(ctx context.Context, date types.Date, schemes []models.Scheme) error {
	payload, err := json.Marshal(schemes)
	if err != nil {
		return fmt.Errorf("encoding scheme cache: %w", err)
	}
	return c.store.Set(ctx, c.key(date), payload, c.ttl)
}

// Invalidate drops the cached list for today. Mutations affect future
// reads immediately; other days age out via the TTL.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Del(ctx, c.key(types.Today()))
}
