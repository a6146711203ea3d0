package application_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
)

// **** Explorer ****

type mockExplorer struct {
	mock.Mock
}

func (m *mockExplorer) GetAddressBalance(
	ctx context.Context, address string,
) (uint64, error) {
	args := m.Called(ctx, address)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

// **** Price feeder ****

type mockPriceFeeder struct {
	mock.Mock
}

func (m *mockPriceFeeder) GetPrices(
	ctx context.Context, quotes []string,
) (*domain.PriceSnapshot, error) {
	args := m.Called(ctx, quotes)

	var res *domain.PriceSnapshot
	if a := args.Get(0); a != nil {
		res = a.(*domain.PriceSnapshot)
	}
	return res, args.Error(1)
}

// **** Observer ****

type runRecord struct {
	mode    string
	elapsed time.Duration
	err     error
}

type recordingObserver struct {
	lock    sync.Mutex
	wallets map[string]uint64
	runs    []runRecord
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{wallets: make(map[string]uint64)}
}

func (o *recordingObserver) WalletScanned(name string, balance uint64, _ bool) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.wallets[name] = balance
}

func (o *recordingObserver) RunDone(mode string, elapsed time.Duration, err error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	o.runs = append(o.runs, runRecord{mode, elapsed, err})
}

// **** Cache repository ****

// corruptRepository fails every load as if the document were unreadable.
type corruptRepository struct {
	saved *domain.WalletCache
}

func (r *corruptRepository) Load(context.Context) (*domain.WalletCache, error) {
	return nil, domain.ErrCacheCorrupt
}

func (r *corruptRepository) Save(_ context.Context, c *domain.WalletCache) error {
	r.saved = c.Clone()
	return nil
}

func (r *corruptRepository) Close() error {
	return nil
}
