package cache

import (
	"context"
	"time"

	"github.com/ReneKroon/ttlcache"

	"github.com/edel-social/edel-server/profile"
)

// Cache is a read-through cache over a profile.Store. Writes go to the
// underlying store and evict the cached entry.
type Cache struct {
	db    profile.Store
	cache *ttlcache.Cache
}

func NewInCache(db profile.Store, ttl time.Duration) profile.Store {
	cache := ttlcache.NewCache()
	cache.SetTTL(ttl)
	return &Cache{
		db:    db,
		cache: cache,
	}
}

func (c *Cache) CreateProfile(ctx context.Context, p *profile.Profile) error {
	return c.db.CreateProfile(ctx, p)
}

func (c *Cache) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	cached, ok := c.cache.Get(userID)
	if !ok {
		p, err := c.db.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}

		c.cache.Set(userID, p.Clone())
		return p, nil
	}

	return cached.(*profile.Profile).Clone(), nil
}

// Entries are evicted again once the write returns, since a concurrent read
// may have cached the old profile while the write was in flight.
func (c *Cache) UpdateProfile(ctx context.Context, userID string, update *profile.Update) (*profile.Profile, error) {
	c.cache.Remove(userID)
	defer c.cache.Remove(userID)
	return c.db.UpdateProfile(ctx, userID, update)
}

func (c *Cache) DeleteProfile(ctx context.Context, userID string) error {
	c.cache.Remove(userID)
	defer c.cache.Remove(userID)
	return c.db.DeleteProfile(ctx, userID)
}
