package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/waybar-scripts/walletbar/internal/config"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/pkg/mathutil"
)

var status = cli.Command{
	Name:   "status",
	Usage:  "print a summary of the wallet cache as JSON",
	Action: statusAction,
}

type chainSummary struct {
	MaxScannedIndex int    `json:"max_index"`
	ActiveIndices   []int  `json:"active_indices"`
	Balance         uint64 `json:"balance_sats"`
}

type walletSummary struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Balance   string       `json:"balance_btc"`
	Partial   bool         `json:"partial"`
	External  chainSummary `json:"external"`
	Change    chainSummary `json:"change"`
	UpdatedAt time.Time    `json:"updated_at"`
}

type cacheSummary struct {
	Path      string            `json:"datadir"`
	RunID     string            `json:"run_id"`
	UpdatedAt time.Time         `json:"updated_at"`
	Wallets   []walletSummary   `json:"wallets"`
	Prices    map[string]string `json:"prices,omitempty"`
	PricedAt  *time.Time        `json:"prices_updated_at,omitempty"`
}

func statusAction(c *cli.Context) error {
	if err := initConfig(c); err != nil {
		return err
	}

	repo, err := config.GetCacheRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	cache, err := repo.Load(c.Context)
	if err != nil {
		if errors.Is(err, domain.ErrCacheNotFound) {
			return fmt.Errorf("no wallet cache yet, run %s --scan first", binaryName)
		}
		return err
	}

	return printStatus(os.Stdout, config.GetDatadir(), cache)
}

func printStatus(w io.Writer, datadir string, cache *domain.WalletCache) error {
	summary := cacheSummary{
		Path:      datadir,
		RunID:     cache.RunID,
		UpdatedAt: cache.UpdatedAt,
		Wallets:   make([]walletSummary, 0, len(cache.Wallets)),
	}

	for _, entry := range cache.Wallets {
		summary.Wallets = append(summary.Wallets, walletSummary{
			ID:        entry.ID,
			Name:      entry.Name,
			Balance:   mathutil.SatsToBTC(entry.Balance).StringFixed(mathutil.BtcPrecision),
			Partial:   entry.Partial,
			External:  summarizeChain(entry.External),
			Change:    summarizeChain(entry.Change),
			UpdatedAt: entry.UpdatedAt,
		})
	}
	sort.Slice(summary.Wallets, func(i, j int) bool {
		return summary.Wallets[i].Name < summary.Wallets[j].Name
	})

	if !cache.Price.IsZero() {
		summary.Prices = make(map[string]string, len(cache.Price.Prices))
		for quote, price := range cache.Price.Prices {
			summary.Prices[quote] = price.String()
		}
		pricedAt := cache.Price.UpdatedAt
		summary.PricedAt = &pricedAt
	}

	buf, err := json.MarshalIndent(summary, "", "\t")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(buf))
	return err
}

func summarizeChain(s domain.ChainScanState) chainSummary {
	active := s.ActiveIndices
	if active == nil {
		active = []int{}
	}
	return chainSummary{
		MaxScannedIndex: s.MaxScannedIndex,
		ActiveIndices:   active,
		Balance:         s.Balance,
	}
}
