package explorer

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable is returned when the explorer is not accepting requests,
	// either because its circuit breaker is open or it is rate limiting us
	// beyond what retries can absorb.
	ErrUnavailable = errors.New("explorer unavailable")
	// ErrTransient is returned when a request kept failing with a transient
	// error after all retries.
	ErrTransient = errors.New("explorer request failed")
)

// TxoStats are the funded and spent output counters of an address.
type TxoStats struct {
	FundedTxoCount uint64 `json:"funded_txo_count"`
	FundedTxoSum   uint64 `json:"funded_txo_sum"`
	SpentTxoCount  uint64 `json:"spent_txo_count"`
	SpentTxoSum    uint64 `json:"spent_txo_sum"`
	TxCount        uint64 `json:"tx_count"`
}

// AddressStats is the summary of an address as reported by the explorer.
type AddressStats struct {
	Address      string   `json:"address"`
	ChainStats   TxoStats `json:"chain_stats"`
	MempoolStats TxoStats `json:"mempool_stats"`
}

// ConfirmedBalance returns funded minus spent confirmed outputs.
func (s AddressStats) ConfirmedBalance() uint64 {
	if s.ChainStats.SpentTxoSum > s.ChainStats.FundedTxoSum {
		return 0
	}
	return s.ChainStats.FundedTxoSum - s.ChainStats.SpentTxoSum
}

// Balance returns the confirmed balance, optionally adjusted by what is
// still in the mempool. The result never goes below zero.
func (s AddressStats) Balance(includeMempool bool) uint64 {
	if !includeMempool {
		return s.ConfirmedBalance()
	}
	funded := s.ChainStats.FundedTxoSum + s.MempoolStats.FundedTxoSum
	spent := s.ChainStats.SpentTxoSum + s.MempoolStats.SpentTxoSum
	if spent > funded {
		return 0
	}
	return funded - spent
}

// Service is representation of an explorer that allows to fetch address
// data from the blockchain.
type Service interface {
	// GetAddressStats returns the funded/spent summary of the given address.
	GetAddressStats(ctx context.Context, address string) (*AddressStats, error)
	// GetAddressBalance returns the balance in satoshis of the given address.
	GetAddressBalance(ctx context.Context, address string) (uint64, error)
	// GetBlockHeight returns the the number of block of the blockchain.
	GetBlockHeight(ctx context.Context) (int, error)
}
