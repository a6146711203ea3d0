package dbbadger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	dbbadger "github.com/waybar-scripts/walletbar/internal/infrastructure/storage/badger"
)

func TestCacheStore(t *testing.T) {
	t.Run("load empty db", testLoadEmpty())
	t.Run("save and load", testSaveAndLoad())
	t.Run("save replaces removed wallets", testSaveReplaces())
	t.Run("persist on disk", testPersistOnDisk())
}

func testLoadEmpty() func(*testing.T) {
	return func(t *testing.T) {
		store, err := dbbadger.NewCacheStore("", nil)
		require.NoError(t, err)
		defer store.Close()

		_, err = store.Load(context.Background())
		require.ErrorIs(t, err, domain.ErrCacheNotFound)
	}
}

func testSaveAndLoad() func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		store, err := dbbadger.NewCacheStore("", nil)
		require.NoError(t, err)
		defer store.Close()

		cache := newTestCache("w1", "w2")
		require.NoError(t, store.Save(ctx, cache))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded.Wallets, 2)
		require.Equal(t, cache.RunID, loaded.RunID)
		require.True(t, cache.UpdatedAt.Equal(loaded.UpdatedAt))
		require.True(t, loaded.Price.Price(domain.QuoteEUR).Equal(decimal.NewFromInt(46000)))

		w1 := loaded.Wallets["w1"]
		require.Equal(t, "Wallet w1", w1.Name)
		require.Equal(t, []string{"a0", "a1", "a2"}, w1.External.Addresses)
		require.Equal(t, 2, w1.External.MaxScannedIndex)
		require.Equal(t, []int{0, 2}, w1.External.ActiveIndices)
		require.Equal(t, uint64(3000), w1.Balance)
	}
}

func testSaveReplaces() func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		store, err := dbbadger.NewCacheStore("", nil)
		require.NoError(t, err)
		defer store.Close()

		require.NoError(t, store.Save(ctx, newTestCache("w1", "w2")))
		require.NoError(t, store.Save(ctx, newTestCache("w2")))

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded.Wallets, 1)
		require.NotNil(t, loaded.Wallet("w2"))
	}
}

func testPersistOnDisk() func(*testing.T) {
	return func(t *testing.T) {
		ctx := context.Background()
		dir := t.TempDir()

		store, err := dbbadger.NewCacheStore(dir, nil)
		require.NoError(t, err)
		require.NoError(t, store.Save(ctx, newTestCache("w1")))

		_, err = dbbadger.NewCacheStore(dir, nil)
		require.ErrorIs(t, err, domain.ErrCacheBusy)

		require.NoError(t, store.Close())

		store, err = dbbadger.NewCacheStore(dir, nil)
		require.NoError(t, err)
		defer store.Close()

		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded.Wallet("w1"))
	}
}

func newTestCache(ids ...string) *domain.WalletCache {
	now := time.Now().UTC()
	cache := domain.NewWalletCache()
	cache.UpdatedAt = now
	cache.RunID = "run"
	cache.Price = &domain.PriceSnapshot{
		Source: "kraken",
		Prices: map[string]decimal.Decimal{
			domain.QuoteUSD: decimal.NewFromInt(50000),
			domain.QuoteEUR: decimal.NewFromInt(46000),
		},
		UpdatedAt: now,
	}
	for _, id := range ids {
		entry := domain.NewWalletEntry(id, "Wallet "+id)
		entry.External = domain.ChainScanState{
			Addresses:       []string{"a0", "a1", "a2"},
			MaxScannedIndex: 2,
			ActiveIndices:   []int{0, 2},
			Balance:         3000,
		}
		entry.Balance = 3000
		entry.UpdatedAt = now
		cache.Wallets[id] = entry
	}
	return cache
}
