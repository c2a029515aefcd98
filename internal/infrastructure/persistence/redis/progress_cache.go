package redis

import (
	"context"
	"errors"
	"time"

	"github.com/viditkulsh/CyberTrek/internal/domain/progress"
)

// ProgressCache implements progress.Cache on the generic Redis cache.
// Snapshots are whole-record JSON; serving a slightly stale read is
// acceptable, every command rereads the durable store.
type ProgressCache struct {
	cache *Cache
}

// NewProgressCache creates a ProgressCache.
func NewProgressCache(cache *Cache) *ProgressCache {
	return &ProgressCache{cache: cache}
}

// Get implements progress.Cache. A miss is reported as ErrRecordNotFound so
// callers fall back to the repository.
func (p *ProgressCache) Get(ctx context.Context, wallet progress.WalletAddress) (*progress.ProgressRecord, error) {
	var record progress.ProgressRecord
	err := p.cache.Get(ctx, progressKey(wallet.String()), &record)
	if errors.Is(err, ErrCacheMiss) {
		return nil, progress.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Set implements progress.Cache.
func (p *ProgressCache) Set(ctx context.Context, record *progress.ProgressRecord, ttl time.Duration) error {
	if record == nil {
		return nil
	}
	return p.cache.Set(ctx, progressKey(record.WalletAddress.String()), record, ttl)
}

// Invalidate implements progress.Cache.
func (p *ProgressCache) Invalidate(ctx context.Context, wallet progress.WalletAddress) error {
	return p.cache.Delete(ctx, progressKey(wallet.String()))
}

// InvalidateAll implements progress.Cache.
func (p *ProgressCache) InvalidateAll(ctx context.Context) error {
	return p.cache.DeleteByPattern(ctx, PrefixProgress+"*")
}
