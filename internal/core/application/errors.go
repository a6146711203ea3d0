package application

import "errors"

var (
	// ErrNoWallets is returned when no wallet is configured.
	ErrNoWallets = errors.New("no wallets configured")
	// ErrNoCache is returned by a cache-only run when there is nothing cached
	// yet. A scan must be run first.
	ErrNoCache = errors.New("no cached balances, run a scan first")
	// ErrWalletNotScanned marks a configured wallet missing from the cache.
	ErrWalletNotScanned = errors.New("wallet not scanned yet")
	// ErrDuplicatedWallet is returned when two configured wallets share the
	// same key.
	ErrDuplicatedWallet = errors.New("wallet configured more than once")
)
