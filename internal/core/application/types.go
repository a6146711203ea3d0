package application

import (
	"time"

	"github.com/waybar-scripts/walletbar/internal/core/ports"
)

// Wallet is a configured wallet: a display name and the deriver of its
// account key. ID must be stable across runs since the cache is keyed by it.
type Wallet struct {
	ID      string
	Name    string
	Deriver ports.AddressDeriver
}

// BalanceServiceConfig tunes a BalanceService.
type BalanceServiceConfig struct {
	// Concurrency is the max number of wallets scanned in parallel.
	Concurrency int
	// CacheTTL makes a cache older than this be ignored. Zero never expires.
	CacheTTL time.Duration
	// PriceTTL is how long a fetched price snapshot is reused.
	PriceTTL time.Duration
	// Quotes are the fiat currencies to price balances in.
	Quotes []string
}
