package auth

import (
	"time"

	"github.com/ReneKroon/ttlcache"
)

// Revocations remembers revoked token ids until the tokens would have
// expired anyway.
type Revocations struct {
	cache *ttlcache.Cache
}

func NewRevocations() *Revocations {
	return &Revocations{
		cache: ttlcache.NewCache(),
	}
}

func (r *Revocations) Revoke(tokenID string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	r.cache.SetWithTTL(tokenID, struct{}{}, ttl)
}

func (r *Revocations) IsRevoked(tokenID string) bool {
	_, ok := r.cache.Get(tokenID)
	return ok
}

func (r *Revocations) Count() int {
	return r.cache.Count()
}

func (r *Revocations) Close() {
	r.cache.Close()
}
