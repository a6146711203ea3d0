package filestore

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 200 * time.Millisecond

// Lock takes an exclusive advisory lock on the lock file next to the cache,
// waiting for other processes to release it.
func (s *Store) Lock(ctx context.Context) (func(), error) {
	fl := flock.New(s.lockPath)
	if _, err := fl.TryLockContext(ctx, lockRetryDelay); err != nil {
		fl.Close()
		return nil, err
	}
	return unlockFunc(fl), nil
}

// TryLock is like Lock but gives up at once if the lock is held.
func (s *Store) TryLock() (func(), bool, error) {
	fl := flock.New(s.lockPath)
	ok, err := fl.TryLock()
	if err != nil || !ok {
		return nil, false, err
	}
	return unlockFunc(fl), true, nil
}

func unlockFunc(fl *flock.Flock) func() {
	return func() {
		fl.Unlock()
	}
}
