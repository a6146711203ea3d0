package inmemory

import (
	"context"
	"sync"

	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/core/ports"
)

// CacheRepository keeps the wallet cache in memory. Documents are deep
// copied in and out so callers never share state with the repository.
type CacheRepository struct {
	lock  *sync.RWMutex
	cache *domain.WalletCache
	saves int

	// sem is a 1-slot semaphore implementing ports.CacheLocker.
	sem chan struct{}
}

// NewCacheRepository returns an empty in-memory repository, optionally
// seeded with the given cache.
func NewCacheRepository(seed *domain.WalletCache) *CacheRepository {
	return &CacheRepository{
		lock:  &sync.RWMutex{},
		cache: seed.Clone(),
		sem:   make(chan struct{}, 1),
	}
}

var (
	_ ports.CacheRepository = (*CacheRepository)(nil)
	_ ports.CacheLocker     = (*CacheRepository)(nil)
)

func (r *CacheRepository) Load(_ context.Context) (*domain.WalletCache, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.cache == nil {
		return nil, domain.ErrCacheNotFound
	}
	return r.cache.Clone(), nil
}

func (r *CacheRepository) Save(_ context.Context, cache *domain.WalletCache) error {
	if err := cache.Validate(); err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.cache = cache.Clone()
	r.saves++
	return nil
}

// Saves returns how many times the cache was saved.
func (r *CacheRepository) Saves() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.saves
}

func (r *CacheRepository) Close() error {
	return nil
}

func (r *CacheRepository) Lock(ctx context.Context) (func(), error) {
	select {
	case r.sem <- struct{}{}:
		return r.unlock, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *CacheRepository) TryLock() (func(), bool, error) {
	select {
	case r.sem <- struct{}{}:
		return r.unlock, true, nil
	default:
		return nil, false, nil
	}
}

func (r *CacheRepository) unlock() {
	<-r.sem
}
