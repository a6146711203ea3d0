package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/waybar-scripts/walletbar/internal/config"
	"github.com/waybar-scripts/walletbar/internal/core/application"
	"github.com/waybar-scripts/walletbar/internal/core/application/scanner"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/interfaces/waybar"
	"github.com/waybar-scripts/walletbar/pkg/explorer"
	"github.com/waybar-scripts/walletbar/pkg/stats"
)

// balanceAction always prints a record and exits with status 0, whatever
// happens, so that waybar keeps the module alive.
func balanceAction(c *cli.Context) error {
	mode := domain.ScanModeCacheOnly
	switch {
	case c.Bool(forceFlag.Name):
		mode = domain.ScanModeForce
	case c.Bool(scanFlag.Name):
		mode = domain.ScanModeIncremental
	}

	record := getRecord(c.Context, mode, func() error { return initConfig(c) })
	return writeRecord(os.Stdout, record)
}

func writeRecord(w io.Writer, record waybar.Record) error {
	if err := waybar.Write(w, record); err != nil {
		log.WithError(err).Error("failed to write waybar record")
	}
	return nil
}

func getRecord(
	ctx context.Context, mode domain.ScanMode, initFn func() error,
) (record waybar.Record) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).
				Errorf("recovered from panic: %v", r)
			record = waybar.Degraded(fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	if err := initFn(); err != nil {
		log.WithError(err).Error("invalid configuration")
		return waybar.Degraded(err)
	}

	wallets, err := config.GetWallets()
	if err != nil {
		if errors.Is(err, config.ErrEnvFileNotFound) {
			envFile := config.GetString(config.EnvFileKey)
			return waybar.NoEnvFile(envFile, config.ExampleEnvFile(envFile))
		}
		log.WithError(err).Error("failed to load wallets")
		return waybar.Degraded(err)
	}
	if len(wallets) == 0 {
		return waybar.NoWallets()
	}

	collector := stats.NewCollector()
	defer writeMetrics(collector)

	svc, cleanup, err := newBalanceService(ctx, wallets, collector, mode)
	if err != nil {
		if errors.Is(err, domain.ErrCacheBusy) {
			return waybar.CacheBusy()
		}
		log.WithError(err).Error("failed to initialize balance service")
		return waybar.Degraded(err)
	}
	defer cleanup()

	report, err := svc.GetBalances(ctx, mode)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrNoCache):
			return waybar.NoCache(binaryName)
		case errors.Is(err, domain.ErrCacheBusy):
			return waybar.CacheBusy()
		}
		log.WithError(err).Error("failed to get wallet balances")
		return waybar.Degraded(err)
	}

	return waybar.RenderReport(report)
}

func newBalanceService(
	ctx context.Context,
	wallets []application.Wallet,
	collector *stats.Collector,
	mode domain.ScanMode,
) (application.BalanceService, func(), error) {
	explorerSvc, err := config.GetExplorer()
	if err != nil {
		return nil, nil, err
	}
	if mode.IsScan() {
		checkExplorer(ctx, explorerSvc)
	}

	scannerSvc, err := scanner.NewService(
		config.GetScannerConfig(), explorerSvc, config.GetRateLimiter(), collector,
	)
	if err != nil {
		return nil, nil, err
	}

	prices, err := config.GetPriceFeeder()
	if err != nil {
		return nil, nil, err
	}

	repo, err := config.GetCacheRepository()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := repo.Close(); err != nil {
			log.WithError(err).Warn("failed to close wallet cache")
		}
	}

	svc, err := application.NewBalanceService(
		wallets, scannerSvc, repo, prices, collector,
		config.GetBalanceServiceConfig(),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return svc, cleanup, nil
}

// checkExplorer logs the explorer tip height. A failure is not fatal, the
// scan will find out on its own whether lookups are possible.
func checkExplorer(ctx context.Context, svc explorer.Service) {
	height, err := svc.GetBlockHeight(ctx)
	if err != nil {
		log.WithError(err).Warn("explorer did not answer tip height request")
		return
	}
	log.WithField("height", height).Debug("explorer is reachable")
}

func writeMetrics(collector *stats.Collector) {
	path := config.GetString(config.MetricsTextfileKey)
	if path == "" {
		return
	}
	if err := collector.WriteTextfile(path); err != nil {
		log.WithError(err).Warn("failed to write metrics textfile")
	}
}
