package domain

import (
	"fmt"
	"time"
)

// CacheVersion is bumped whenever the persisted layout changes.
const CacheVersion = 1

// WalletEntry holds the scan state of both chains of a wallet.
type WalletEntry struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	External  ChainScanState `json:"external"`
	Change    ChainScanState `json:"change"`
	Balance   uint64         `json:"balance_sats"`
	Partial   bool           `json:"partial,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewWalletEntry returns an entry with both chains never scanned.
func NewWalletEntry(id, name string) *WalletEntry {
	return &WalletEntry{
		ID:       id,
		Name:     name,
		External: *NewChainScanState(),
		Change:   *NewChainScanState(),
	}
}

// ChainState returns the state of the given chain, nil if it was never
// scanned.
func (e *WalletEntry) ChainState(c Chain) *ChainScanState {
	if e == nil {
		return nil
	}
	var s *ChainScanState
	switch c {
	case ExternalChain:
		s = &e.External
	case ChangeChain:
		s = &e.Change
	default:
		return nil
	}
	if s.IsEmpty() {
		return nil
	}
	return s
}

// SetChainState replaces the state of the given chain.
func (e *WalletEntry) SetChainState(c Chain, s *ChainScanState) {
	if s == nil {
		s = NewChainScanState()
	}
	switch c {
	case ExternalChain:
		e.External = *s
	case ChangeChain:
		e.Change = *s
	}
}

func (e *WalletEntry) Validate() error {
	if e.ID == "" {
		return ErrNullWalletID
	}
	if err := e.External.Validate(); err != nil {
		return fmt.Errorf("wallet %s external: %w", e.ID, err)
	}
	if err := e.Change.Validate(); err != nil {
		return fmt.Errorf("wallet %s change: %w", e.ID, err)
	}
	return nil
}

func (e *WalletEntry) Clone() *WalletEntry {
	if e == nil {
		return nil
	}
	clone := *e
	clone.External = *e.External.Clone()
	clone.Change = *e.Change.Clone()
	return &clone
}

// WalletCache is the whole persisted document: per-wallet scan state plus
// the last price snapshot.
type WalletCache struct {
	Version   int                     `json:"version"`
	Wallets   map[string]*WalletEntry `json:"wallets"`
	Price     *PriceSnapshot          `json:"price,omitempty"`
	UpdatedAt time.Time               `json:"timestamp"`
	RunID     string                  `json:"run_id,omitempty"`
}

func NewWalletCache() *WalletCache {
	return &WalletCache{
		Version: CacheVersion,
		Wallets: make(map[string]*WalletEntry),
	}
}

// Wallet returns the entry for the given wallet id, nil if unknown.
func (c *WalletCache) Wallet(id string) *WalletEntry {
	if c == nil {
		return nil
	}
	return c.Wallets[id]
}

// IsExpired returns whether the cache is older than ttl. A non positive ttl
// never expires.
func (c *WalletCache) IsExpired(ttl time.Duration, now time.Time) bool {
	if c == nil || ttl <= 0 {
		return false
	}
	return now.Sub(c.UpdatedAt) > ttl
}

func (c *WalletCache) Validate() error {
	if c.Version > CacheVersion {
		return fmt.Errorf("unsupported cache version %d", c.Version)
	}
	for id, entry := range c.Wallets {
		if entry == nil {
			return fmt.Errorf("wallet %s: missing entry", id)
		}
		if entry.ID != id {
			return fmt.Errorf("wallet %s: entry keyed as %s", entry.ID, id)
		}
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *WalletCache) Clone() *WalletCache {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Wallets = make(map[string]*WalletEntry, len(c.Wallets))
	for id, entry := range c.Wallets {
		clone.Wallets[id] = entry.Clone()
	}
	clone.Price = c.Price.Clone()
	return &clone
}
