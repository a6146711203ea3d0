package scanner

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/core/ports"
	"github.com/waybar-scripts/walletbar/pkg/explorer"
	"go.uber.org/ratelimit"
)

var (
	// ErrNullDeriver ...
	ErrNullDeriver = errors.New("address deriver must not be null")
	// ErrNullBalanceLookup ...
	ErrNullBalanceLookup = errors.New("balance lookup service must not be null")
)

// Service walks the addresses of a chain until the gap limit is met.
// Lookups of a single chain are strictly sequential and spaced by the
// limiter; different chains may be scanned concurrently.
type Service struct {
	cfg      Config
	balances ports.BalanceLookup
	limiter  ratelimit.Limiter
	observer ports.ScanObserver
}

// NewService returns a scanner. A nil limiter does not throttle lookups and
// a nil observer is ignored.
func NewService(
	cfg Config,
	balances ports.BalanceLookup,
	limiter ratelimit.Limiter,
	observer ports.ScanObserver,
) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if balances == nil {
		return nil, ErrNullBalanceLookup
	}
	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{cfg, balances, limiter, observer}, nil
}

// ScanChain scans a chain according to mode, starting from prior when the
// mode allows it. prior is never modified.
//
// A scan interrupted by ctx or by the explorer becoming unavailable is not
// an error: the result is flagged as partial and carries whatever was
// learned, which is safe to persist.
func (s *Service) ScanChain(
	ctx context.Context,
	deriver ports.AddressDeriver,
	chain domain.Chain,
	prior *domain.ChainScanState,
	mode domain.ScanMode,
) (*domain.ScanResult, error) {
	switch mode {
	case domain.ScanModeCacheOnly:
		state := prior.Clone()
		if state == nil {
			state = domain.NewChainScanState()
		}
		return &domain.ScanResult{
			Chain:          chain,
			Mode:           mode,
			State:          state,
			Balance:        state.Balance,
			CheckedThrough: -1,
		}, nil
	case domain.ScanModeForce, domain.ScanModeCold:
		prior = nil
	case domain.ScanModeIncremental:
	default:
		return nil, fmt.Errorf("unknown scan mode %s", mode)
	}

	if deriver == nil {
		return nil, ErrNullDeriver
	}

	logger := log.WithFields(log.Fields{"chain": chain.String()})
	if prior.IsEmpty() {
		prior = nil
	}
	if prior != nil {
		if err := prior.Validate(); err != nil {
			logger.WithError(err).Warn("discarding invalid chain state")
			prior = nil
		}
	}
	if prior == nil && mode == domain.ScanModeIncremental {
		mode = domain.ScanModeCold
	}

	scan := &chainScan{
		Service: s,
		ctx:     ctx,
		deriver: deriver,
		chain:   chain,
		log:     logger.WithField("mode", mode.String()),
		result:  &domain.ScanResult{Chain: chain, Mode: mode, CheckedThrough: -1},
	}
	return scan.run(prior), nil
}

type lookupOutcome int

const (
	lookupOK lookupOutcome = iota
	lookupFailed
	lookupAborted
)

type chainScan struct {
	*Service
	ctx     context.Context
	deriver ports.AddressDeriver
	chain   domain.Chain
	log     *log.Entry
	result  *domain.ScanResult
}

func (c *chainScan) run(prior *domain.ChainScanState) *domain.ScanResult {
	state := domain.NewChainScanState()
	start, floor, empty := 0, -1, 0
	var balance uint64

	if prior != nil {
		state = prior.Clone()
		start = prior.MaxScannedIndex - c.cfg.Backtrack
		if start < 0 {
			start = 0
		}
		floor = prior.MaxScannedIndex

		// Funds below the resume point can only be at known active indices.
		for _, index := range prior.ActiveIndices {
			if index >= start {
				break
			}
			sats, outcome := c.lookup(index, state.Addresses[index])
			if outcome == lookupAborted {
				return c.finish(state, balance, -1)
			}
			balance += sats
		}

		for i := 0; i < start; i++ {
			if state.IsActive(i) {
				empty = 0
			} else {
				empty++
			}
		}
	}

	c.log.WithFields(log.Fields{
		"start":      start,
		"prev_max":   floor,
		"seed_empty": empty,
	}).Debug("scanning chain")

	lastChecked := -1
	// Indices up to the previous max are always re-checked, whatever the
	// seeded streak says.
	for index := start; index < c.cfg.MaxIndex &&
		(empty < c.cfg.GapLimit || index <= floor); index++ {
		address, ok := state.AddressAt(index)
		if !ok {
			addr, err := c.deriver.Derive(uint32(c.chain), uint32(index))
			c.observer.DerivationDone(c.chain.String(), err)
			if err != nil {
				c.log.WithError(err).WithField("index", index).
					Warn("derivation failed, treating as end of address space")
				break
			}
			state.Addresses = append(state.Addresses, addr)
			address = addr
		}

		sats, outcome := c.lookup(index, address)
		if outcome == lookupAborted {
			break
		}
		lastChecked = index

		switch {
		case outcome == lookupFailed:
			if c.cfg.FailedLookupsAsEmpty {
				empty++
			}
		case sats > 0:
			empty = 0
			state.MarkActive(index)
			balance += sats
		default:
			empty++
		}
	}

	return c.finish(state, balance, lastChecked)
}

func (c *chainScan) lookup(index int, address string) (uint64, lookupOutcome) {
	if err := c.ctx.Err(); err != nil {
		c.abort(err)
		return 0, lookupAborted
	}

	c.limiter.Take()
	c.result.Lookups++

	sats, err := c.balances.GetAddressBalance(c.ctx, address)
	c.observer.LookupDone(c.chain.String(), err)
	if err == nil {
		c.log.WithFields(log.Fields{
			"index":   index,
			"balance": sats,
		}).Trace("checked address")
		return sats, lookupOK
	}

	if c.ctx.Err() != nil || errors.Is(err, explorer.ErrUnavailable) {
		c.abort(err)
		return 0, lookupAborted
	}

	c.result.FailedLookups++
	c.log.WithError(err).WithField("index", index).Warn("balance lookup failed")
	return 0, lookupFailed
}

func (c *chainScan) abort(err error) {
	if !c.result.Partial {
		c.log.WithError(err).Warn("chain scan interrupted, keeping partial state")
	}
	c.result.Partial = true
}

func (c *chainScan) finish(
	state *domain.ChainScanState, balance uint64, lastChecked int,
) *domain.ScanResult {
	if lastChecked > state.MaxScannedIndex {
		state.MaxScannedIndex = lastChecked
	}
	// Drop addresses derived for an index whose lookup never completed.
	if len(state.Addresses) > state.MaxScannedIndex+1 {
		state.Addresses = state.Addresses[:state.MaxScannedIndex+1]
	}
	state.Balance = balance

	c.result.CheckedThrough = lastChecked
	c.result.State = state
	c.result.Balance = balance

	c.log.WithFields(log.Fields{
		"max_index": state.MaxScannedIndex,
		"active":    len(state.ActiveIndices),
		"lookups":   c.result.Lookups,
		"failed":    c.result.FailedLookups,
		"balance":   balance,
		"partial":   c.result.Partial,
	}).Debug("chain scanned")
	return c.result
}

type noopObserver struct{}

func (noopObserver) DerivationDone(string, error) {}
func (noopObserver) LookupDone(string, error)     {}
