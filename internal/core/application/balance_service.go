package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/waybar-scripts/walletbar/internal/core/application/scanner"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

type BalanceService interface {
	// GetBalances computes the balance of every configured wallet according
	// to mode and persists what was learned. Wallet level failures do not
	// fail the run, they are reported in the returned report.
	GetBalances(ctx context.Context, mode domain.ScanMode) (*domain.Report, error)
	// GetCache returns the persisted cache as is.
	GetCache(ctx context.Context) (*domain.WalletCache, error)
}

type balanceService struct {
	wallets  []Wallet
	scanner  *scanner.Service
	repo     ports.CacheRepository
	prices   ports.PriceFeeder
	observer ports.RunObserver
	cfg      BalanceServiceConfig
	now      func() time.Time
}

// NewBalanceService returns a BalanceService. prices and observer may be nil.
func NewBalanceService(
	wallets []Wallet,
	scannerSvc *scanner.Service,
	repo ports.CacheRepository,
	prices ports.PriceFeeder,
	observer ports.RunObserver,
	cfg BalanceServiceConfig,
) (BalanceService, error) {
	if scannerSvc == nil {
		return nil, fmt.Errorf("missing scanner")
	}
	if repo == nil {
		return nil, fmt.Errorf("missing cache repository")
	}

	ids := make(map[string]string, len(wallets))
	for _, w := range wallets {
		if w.ID == "" {
			return nil, fmt.Errorf("wallet %s: %w", w.Name, domain.ErrNullWalletID)
		}
		if other, ok := ids[w.ID]; ok {
			return nil, fmt.Errorf("%w: %s and %s", ErrDuplicatedWallet, other, w.Name)
		}
		ids[w.ID] = w.Name
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if len(cfg.Quotes) == 0 {
		cfg.Quotes = domain.Quotes
	}

	return &balanceService{
		wallets:  wallets,
		scanner:  scannerSvc,
		repo:     repo,
		prices:   prices,
		observer: observer,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

func (s *balanceService) GetBalances(
	ctx context.Context, mode domain.ScanMode,
) (report *domain.Report, err error) {
	if len(s.wallets) == 0 {
		return nil, ErrNoWallets
	}

	started := s.now()
	runID := uuid.New().String()
	logger := log.WithFields(log.Fields{
		"run":  runID,
		"mode": mode.String(),
	})
	defer func() {
		elapsed := s.now().Sub(started)
		if s.observer != nil {
			s.observer.RunDone(mode.String(), elapsed, err)
		}
		logger.WithField("elapsed", elapsed.Round(time.Millisecond)).
			Debug("run completed")
	}()

	if !mode.IsScan() {
		return s.reportFromCache(ctx, runID, logger)
	}
	return s.scan(ctx, mode, runID, logger)
}

func (s *balanceService) GetCache(ctx context.Context) (*domain.WalletCache, error) {
	return s.repo.Load(ctx)
}

type walletResult struct {
	entry   *domain.WalletEntry
	balance domain.WalletBalance
}

func (s *balanceService) scan(
	ctx context.Context, mode domain.ScanMode, runID string, logger *log.Entry,
) (*domain.Report, error) {
	if locker, ok := s.repo.(ports.CacheLocker); ok {
		unlock, err := locker.Lock(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquiring cache lock: %w", err)
		}
		defer unlock()
	}

	prior, err := s.loadCache(ctx, logger)
	if err != nil {
		return nil, err
	}
	var priorPrice *domain.PriceSnapshot
	if prior != nil {
		priorPrice = prior.Price
	}

	results := make([]walletResult, len(s.wallets))
	g := &errgroup.Group{}
	g.SetLimit(s.cfg.Concurrency)
	for i, w := range s.wallets {
		i, w := i, w
		g.Go(func() error {
			results[i] = s.scanWallet(ctx, w, prior.Wallet(w.ID), mode, logger)
			return nil
		})
	}
	// workers never fail, errors are carried by the results.
	_ = g.Wait()

	now := s.now().UTC()
	cache := domain.NewWalletCache()
	cache.RunID = runID
	cache.UpdatedAt = now

	report := &domain.Report{
		RunID:     runID,
		Mode:      mode,
		Wallets:   make([]domain.WalletBalance, 0, len(results)),
		UpdatedAt: now,
	}
	for _, r := range results {
		if r.entry != nil {
			cache.Wallets[r.entry.ID] = r.entry
		}
		report.Wallets = append(report.Wallets, r.balance)
		if s.observer != nil {
			s.observer.WalletScanned(r.balance.Name, r.balance.Balance, r.balance.Partial)
		}
	}

	cache.Price = s.getPrices(ctx, priorPrice, logger)
	report.Price = cache.Price

	// Partial results are persisted even if the run was cancelled.
	if err := s.repo.Save(context.Background(), cache); err != nil {
		logger.WithError(err).Error("failed to persist wallet cache")
	}

	logger.WithFields(log.Fields{
		"wallets": len(report.Wallets),
		"total":   report.TotalBalance(),
		"partial": report.IsPartial(),
	}).Info("scan completed")
	return report, nil
}

func (s *balanceService) scanWallet(
	ctx context.Context,
	w Wallet,
	prior *domain.WalletEntry,
	mode domain.ScanMode,
	logger *log.Entry,
) walletResult {
	logger = logger.WithField("wallet", w.Name)
	entry := domain.NewWalletEntry(w.ID, w.Name)

	// Force mode rescans from scratch, but the prior entry is still what a
	// partial result is merged into.
	for _, chain := range domain.Chains {
		priorState := prior.ChainState(chain)
		res, err := s.scanner.ScanChain(ctx, w.Deriver, chain, priorState, mode)
		if err != nil {
			logger.WithError(err).Error("failed to scan wallet, keeping previous state")
			return failedWallet(w, prior, err)
		}

		state := res.State
		if usable := usableState(priorState); !res.Covers(usable) {
			logger.WithFields(log.Fields{
				"chain":           chain.String(),
				"checked_through": res.CheckedThrough,
				"prev_max":        usable.MaxScannedIndex,
			}).Info("partial scan, keeping last known chain balance")
			state = mergePartial(usable, res.State)
		}

		entry.SetChainState(chain, state)
		entry.Balance += state.Balance
		entry.Partial = entry.Partial || res.Partial
	}
	entry.UpdatedAt = s.now().UTC()

	logger.WithFields(log.Fields{
		"balance": entry.Balance,
		"partial": entry.Partial,
	}).Debug("wallet scanned")

	return walletResult{
		entry: entry,
		balance: domain.WalletBalance{
			ID:      w.ID,
			Name:    w.Name,
			Balance: entry.Balance,
			Partial: entry.Partial,
		},
	}
}

// usableState returns s if it can be merged into, nil otherwise.
func usableState(s *domain.ChainScanState) *domain.ChainScanState {
	if s.IsEmpty() || s.Validate() != nil {
		return nil
	}
	return s
}

// mergePartial folds what a partial scan learned into prior without losing
// anything prior knew. The balance stays the last complete one since not
// every known active index was re-queried.
func mergePartial(prior, learned *domain.ChainScanState) *domain.ChainScanState {
	merged := prior.Clone()
	for _, index := range learned.ActiveIndices {
		if index <= merged.MaxScannedIndex {
			merged.MarkActive(index)
		}
	}
	return merged
}

func failedWallet(w Wallet, prior *domain.WalletEntry, err error) walletResult {
	res := walletResult{
		balance: domain.WalletBalance{ID: w.ID, Name: w.Name, Err: err},
	}
	if prior != nil {
		res.entry = prior.Clone()
		res.entry.Name = w.Name
		res.balance.Balance = prior.Balance
	}
	return res
}

func (s *balanceService) reportFromCache(
	ctx context.Context, runID string, logger *log.Entry,
) (*domain.Report, error) {
	cache, err := s.loadCache(ctx, logger)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, ErrNoCache
	}

	report := &domain.Report{
		RunID:     runID,
		Mode:      domain.ScanModeCacheOnly,
		Wallets:   make([]domain.WalletBalance, 0, len(s.wallets)),
		UpdatedAt: cache.UpdatedAt,
	}
	for _, w := range s.wallets {
		balance := domain.WalletBalance{ID: w.ID, Name: w.Name}

		entry := cache.Wallet(w.ID)
		if entry == nil {
			balance.Err = ErrWalletNotScanned
			report.Wallets = append(report.Wallets, balance)
			continue
		}

		balance.Partial = entry.Partial
		for _, chain := range domain.Chains {
			res, err := s.scanner.ScanChain(
				ctx, w.Deriver, chain, entry.ChainState(chain), domain.ScanModeCacheOnly,
			)
			if err != nil {
				balance.Err = err
				break
			}
			balance.Balance += res.Balance
		}
		report.Wallets = append(report.Wallets, balance)
	}

	report.Price = cache.Price
	if !cache.Price.IsFresh(s.cfg.PriceTTL, s.now()) {
		report.Price = s.getPrices(ctx, cache.Price, logger)
		if report.Price != cache.Price {
			s.persistPrice(ctx, report.Price, logger)
		}
	}
	return report, nil
}

// getPrices returns fresh prices, falling back to prior when they can't be
// fetched.
func (s *balanceService) getPrices(
	ctx context.Context, prior *domain.PriceSnapshot, logger *log.Entry,
) *domain.PriceSnapshot {
	if prior.IsFresh(s.cfg.PriceTTL, s.now()) {
		return prior
	}
	if s.prices == nil || ctx.Err() != nil {
		return prior
	}

	snapshot, err := s.prices.GetPrices(ctx, s.cfg.Quotes)
	if err != nil {
		logger.WithError(err).Warn("failed to fetch prices, using last known ones")
		return prior
	}
	if snapshot == nil {
		return prior
	}

	// Quotes no source could price keep their last known value.
	snapshot = snapshot.Clone()
	for _, quote := range s.cfg.Quotes {
		if snapshot.Price(quote).IsPositive() {
			continue
		}
		if last := prior.Price(quote); last.IsPositive() {
			logger.WithField("quote", quote).Warn("price unavailable, using last known one")
			snapshot.Prices[quote] = last
		}
	}
	return snapshot
}

// persistPrice stores a freshly fetched snapshot without blocking on a scan
// in progress: if the cache is locked the snapshot is simply not persisted.
func (s *balanceService) persistPrice(
	ctx context.Context, price *domain.PriceSnapshot, logger *log.Entry,
) {
	if locker, ok := s.repo.(ports.CacheLocker); ok {
		unlock, ok, err := locker.TryLock()
		if err != nil || !ok {
			return
		}
		defer unlock()
	}

	// Reload under lock, a scan may have completed in the meantime.
	cache, err := s.repo.Load(ctx)
	if err != nil {
		return
	}
	cache.Price = price
	if err := s.repo.Save(ctx, cache); err != nil {
		logger.WithError(err).Warn("failed to persist price snapshot")
	}
}

// loadCache returns the persisted cache or nil if there is none usable.
func (s *balanceService) loadCache(
	ctx context.Context, logger *log.Entry,
) (*domain.WalletCache, error) {
	cache, err := s.repo.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrCacheNotFound) {
			return nil, nil
		}
		if errors.Is(err, domain.ErrCacheCorrupt) {
			logger.WithError(err).Warn("ignoring unreadable wallet cache")
			return nil, nil
		}
		return nil, err
	}

	if cache.IsExpired(s.cfg.CacheTTL, s.now()) {
		logger.WithField("updated_at", cache.UpdatedAt).Info("wallet cache expired")
		return nil, nil
	}
	return cache, nil
}
