package ports

import (
	"context"

	"github.com/waybar-scripts/walletbar/internal/core/domain"
)

// CacheRepository persists the wallet cache. Save must be atomic: a reader
// either sees the previous document or the new one, never a mix.
type CacheRepository interface {
	// Load returns domain.ErrCacheNotFound if nothing was saved yet and
	// domain.ErrCacheCorrupt if what was saved can't be used.
	Load(ctx context.Context) (*domain.WalletCache, error)
	Save(ctx context.Context, cache *domain.WalletCache) error
	Close() error
}

// CacheLocker serializes writers of the cache across processes.
type CacheLocker interface {
	// Lock blocks until the lock is acquired or ctx is done.
	Lock(ctx context.Context) (unlock func(), err error)
	// TryLock returns ok=false if the lock is held by someone else.
	TryLock() (unlock func(), ok bool, err error)
}
