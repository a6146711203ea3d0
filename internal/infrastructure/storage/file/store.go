package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/core/ports"
)

const (
	// CacheFilename is the name of the cache document inside the datadir.
	CacheFilename = "wallet_cache.json"
	lockFilename  = "wallet_cache.lock"
)

// Store persists the wallet cache as a single JSON document. Writes go to a
// temp file in the same directory that is fsynced and renamed over the
// previous document.
type Store struct {
	dir      string
	path     string
	lockPath string
}

var (
	_ ports.CacheRepository = (*Store)(nil)
	_ ports.CacheLocker     = (*Store)(nil)
)

// NewCacheStore returns a store rooted at dir, creating it if needed.
func NewCacheStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("missing cache directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &Store{
		dir:      dir,
		path:     filepath.Join(dir, CacheFilename),
		lockPath: filepath.Join(dir, lockFilename),
	}, nil
}

// Path returns the location of the cache document.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Load(_ context.Context) (*domain.WalletCache, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheNotFound
		}
		return nil, err
	}

	cache := domain.NewWalletCache()
	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCacheCorrupt, err)
	}
	if cache.Wallets == nil {
		cache.Wallets = make(map[string]*domain.WalletEntry)
	}
	if err := cache.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrCacheCorrupt, err)
	}
	return cache, nil
}

func (s *Store) Save(_ context.Context, cache *domain.WalletCache) (err error) {
	if err := cache.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".wallet_cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return err
	}

	if err := syncDir(s.dir); err != nil {
		log.WithError(err).Debug("failed to sync cache directory")
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
