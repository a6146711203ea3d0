package ports

import (
	"context"
	"time"
)

// AddressDeriver derives the address at (chain, index) of a single account.
// Implementations must be deterministic and safe for concurrent use.
type AddressDeriver interface {
	Derive(chain, index uint32) (string, error)
}

// BalanceLookup returns the confirmed balance of an address in satoshis.
type BalanceLookup interface {
	GetAddressBalance(ctx context.Context, address string) (uint64, error)
}

// ScanObserver is notified of every derivation and lookup performed by a
// scan. Implementations must be safe for concurrent use.
type ScanObserver interface {
	DerivationDone(chain string, err error)
	LookupDone(chain string, err error)
}

// RunObserver is notified of the outcome of a whole run.
type RunObserver interface {
	WalletScanned(name string, balance uint64, partial bool)
	RunDone(mode string, elapsed time.Duration, err error)
}
