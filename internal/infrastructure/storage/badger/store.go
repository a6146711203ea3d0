package dbbadger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/dgraph-io/badger/v3/options"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/core/ports"
)

const metaKey = "meta"

// cacheMeta holds everything of a domain.WalletCache but the wallet entries,
// which are stored one record per wallet.
type cacheMeta struct {
	Version   int
	Price     *domain.PriceSnapshot
	UpdatedAt time.Time
	RunID     string
}

type cacheStore struct {
	store      *badgerhold.Store
	isInMemory bool
}

// NewCacheStore opens the badger backed cache at dbDir. An empty dbDir makes
// the store in-memory. Badger allows a single process per directory, hence
// domain.ErrCacheBusy is returned if another run holds it.
func NewCacheStore(
	dbDir string, logger badger.Logger,
) (ports.CacheRepository, error) {
	store, err := createDb(dbDir, logger)
	if err != nil {
		if isLockErr(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrCacheBusy, err)
		}
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	return &cacheStore{store, len(dbDir) <= 0}, nil
}

func (s *cacheStore) Load(_ context.Context) (*domain.WalletCache, error) {
	var meta cacheMeta
	metaErr := s.store.Get(metaKey, &meta)
	if metaErr != nil && !errors.Is(metaErr, badgerhold.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrCacheCorrupt, metaErr)
	}

	var entries []domain.WalletEntry
	if err := s.store.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCacheCorrupt, err)
	}

	if metaErr != nil && len(entries) == 0 {
		return nil, domain.ErrCacheNotFound
	}

	cache := domain.NewWalletCache()
	if metaErr == nil {
		cache.Version = meta.Version
		cache.Price = meta.Price
		cache.UpdatedAt = meta.UpdatedAt
		cache.RunID = meta.RunID
	}
	for i := range entries {
		entry := entries[i]
		cache.Wallets[entry.ID] = &entry
	}

	if err := cache.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCacheCorrupt, err)
	}
	return cache, nil
}

// Save replaces every stored record within a single transaction.
func (s *cacheStore) Save(_ context.Context, cache *domain.WalletCache) error {
	if err := cache.Validate(); err != nil {
		return err
	}

	meta := cacheMeta{
		Version:   cache.Version,
		Price:     cache.Price,
		UpdatedAt: cache.UpdatedAt,
		RunID:     cache.RunID,
	}

	return s.store.Badger().Update(func(tx *badger.Txn) error {
		if err := s.store.TxDeleteMatching(tx, &domain.WalletEntry{}, nil); err != nil {
			return err
		}
		for id, entry := range cache.Wallets {
			if err := s.store.TxUpsert(tx, id, entry); err != nil {
				return err
			}
		}
		return s.store.TxUpsert(tx, metaKey, &meta)
	})
}

func (s *cacheStore) Close() error {
	if !s.isInMemory {
		if err := s.store.Badger().RunValueLogGC(0.5); err != nil &&
			!errors.Is(err, badger.ErrNoRewrite) {
			log.WithError(err).Debug("cache db value log gc")
		}
	}
	return s.store.Close()
}

func createDb(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}

func isLockErr(err error) bool {
	return strings.Contains(err.Error(), "Cannot acquire directory lock")
}
