package explorer_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waybar-scripts/walletbar/pkg/explorer"
)

func TestAddressStatsBalance(t *testing.T) {
	tests := []struct {
		name      string
		stats     explorer.AddressStats
		confirmed uint64
		withPool  uint64
	}{
		{
			name:  "never used",
			stats: explorer.AddressStats{},
		},
		{
			name: "funded",
			stats: explorer.AddressStats{
				ChainStats: explorer.TxoStats{FundedTxoSum: 150000, SpentTxoSum: 50000, TxCount: 2},
			},
			confirmed: 100000,
			withPool:  100000,
		},
		{
			name: "pending spend",
			stats: explorer.AddressStats{
				ChainStats:   explorer.TxoStats{FundedTxoSum: 100000, TxCount: 1},
				MempoolStats: explorer.TxoStats{SpentTxoSum: 100000, TxCount: 1},
			},
			confirmed: 100000,
			withPool:  0,
		},
		{
			name: "pending receive",
			stats: explorer.AddressStats{
				MempoolStats: explorer.TxoStats{FundedTxoSum: 2000, TxCount: 1},
			},
			confirmed: 0,
			withPool:  2000,
		},
	}

	for _, tt := range tests {
		require.Equal(t, tt.confirmed, tt.stats.Balance(false), tt.name)
		require.Equal(t, tt.withPool, tt.stats.Balance(true), tt.name)
	}
}
