package domain

import (
	"fmt"
	"sort"
)

// ChainScanState is the persisted knowledge about one chain of one wallet.
// Addresses[i] is the address at index i for every i <= MaxScannedIndex, and
// ActiveIndices holds, sorted and unique, every index that was ever observed
// with a positive balance.
type ChainScanState struct {
	Addresses       []string `json:"addresses"`
	MaxScannedIndex int      `json:"max_index"`
	ActiveIndices   []int    `json:"active_indices"`
	// Balance is the chain balance in satoshis as of the last scan.
	Balance uint64 `json:"balance_sats"`
}

// NewChainScanState returns the state of a chain that was never scanned.
func NewChainScanState() *ChainScanState {
	return &ChainScanState{
		Addresses:       make([]string, 0),
		MaxScannedIndex: -1,
		ActiveIndices:   make([]int, 0),
	}
}

// IsEmpty returns whether no index of the chain has been scanned yet.
func (s *ChainScanState) IsEmpty() bool {
	return s == nil || len(s.Addresses) == 0
}

// Validate checks the structural invariants of the state.
func (s *ChainScanState) Validate() error {
	if s == nil {
		return nil
	}
	if len(s.Addresses) == 0 {
		if len(s.ActiveIndices) > 0 {
			return fmt.Errorf(
				"%w: %d active indices without addresses",
				ErrInvalidChainState, len(s.ActiveIndices),
			)
		}
		return nil
	}
	if s.MaxScannedIndex != len(s.Addresses)-1 {
		return fmt.Errorf(
			"%w: max index %d does not match %d cached addresses",
			ErrInvalidChainState, s.MaxScannedIndex, len(s.Addresses),
		)
	}
	for i, addr := range s.Addresses {
		if addr == "" {
			return fmt.Errorf("%w: missing address at index %d", ErrInvalidChainState, i)
		}
	}
	prev := -1
	for _, i := range s.ActiveIndices {
		if i <= prev || i > s.MaxScannedIndex {
			return fmt.Errorf(
				"%w: active index %d out of order or out of range",
				ErrInvalidChainState, i,
			)
		}
		prev = i
	}
	return nil
}

// AddressAt returns the cached address at the given index, if any.
func (s *ChainScanState) AddressAt(index int) (string, bool) {
	if s == nil || index < 0 || index >= len(s.Addresses) {
		return "", false
	}
	return s.Addresses[index], true
}

// IsActive returns whether the index was ever observed with funds.
func (s *ChainScanState) IsActive(index int) bool {
	if s == nil {
		return false
	}
	i := sort.SearchInts(s.ActiveIndices, index)
	return i < len(s.ActiveIndices) && s.ActiveIndices[i] == index
}

// MarkActive adds the index to the active set keeping it sorted.
func (s *ChainScanState) MarkActive(index int) {
	i := sort.SearchInts(s.ActiveIndices, index)
	if i < len(s.ActiveIndices) && s.ActiveIndices[i] == index {
		return
	}
	s.ActiveIndices = append(s.ActiveIndices, 0)
	copy(s.ActiveIndices[i+1:], s.ActiveIndices[i:])
	s.ActiveIndices[i] = index
}

// Clone returns a deep copy of the state.
func (s *ChainScanState) Clone() *ChainScanState {
	if s == nil {
		return nil
	}
	addresses := make([]string, len(s.Addresses))
	copy(addresses, s.Addresses)
	active := make([]int, len(s.ActiveIndices))
	copy(active, s.ActiveIndices)
	return &ChainScanState{
		Addresses:       addresses,
		MaxScannedIndex: s.MaxScannedIndex,
		ActiveIndices:   active,
		Balance:         s.Balance,
	}
}

// ScanResult is what a single chain scan produces.
type ScanResult struct {
	Chain Chain
	// Mode is the mode the scan actually ran in, cold when an incremental scan
	// found nothing to resume from.
	Mode  ScanMode
	State *ChainScanState
	// Balance is the sum of the balances observed during this run.
	Balance uint64
	// Lookups counts the balance lookups attempted.
	Lookups int
	// FailedLookups counts lookups that failed after retries.
	FailedLookups int
	// Partial is set when the scan stopped before its natural end because the
	// run was cancelled or the explorer became unavailable.
	Partial bool
	// CheckedThrough is the highest index looked up by the index walk of this
	// run, -1 if the walk never started.
	CheckedThrough int
}

// Covers returns whether the result is at least as informed as prior: a
// partial scan that stopped before reaching prior's max index has not
// re-queried every index prior knows about, so its balance is an undercount.
func (r *ScanResult) Covers(prior *ChainScanState) bool {
	if r == nil {
		return false
	}
	if !r.Partial || prior.IsEmpty() {
		return true
	}
	return r.CheckedThrough >= prior.MaxScannedIndex
}
