package domain

import "errors"

var (
	// ErrCacheNotFound is returned by a cache repository when nothing has been
	// persisted yet.
	ErrCacheNotFound = errors.New("wallet cache not found")
	// ErrCacheCorrupt is returned when the persisted cache can't be decoded or
	// violates its own invariants. Callers treat it like a missing cache.
	ErrCacheCorrupt = errors.New("wallet cache is corrupt")
	// ErrCacheBusy is returned when another process holds the cache.
	ErrCacheBusy = errors.New("wallet cache is in use by another process")
	// ErrInvalidChainState ...
	ErrInvalidChainState = errors.New("invalid chain scan state")
	// ErrNullWalletID ...
	ErrNullWalletID = errors.New("wallet id must not be null")
)
