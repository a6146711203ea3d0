package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/waybar-scripts/walletbar/internal/config"
)

const binaryName = "walletbar"

var (
	scanFlag = cli.BoolFlag{
		Name:  "scan",
		Usage: "incremental scan: re-check recent addresses and derive new ones",
	}
	forceFlag = cli.BoolFlag{
		Name:  "force",
		Usage: "full rescan from index 0, discarding the cached addresses",
	}
	datadirFlag = cli.StringFlag{
		Name:  "datadir",
		Usage: "directory of the wallet cache, overrides WALLETBAR_DATADIR",
	}
)

func main() {
	app := cli.NewApp()

	app.Name = binaryName
	app.Usage = "Waybar module showing the balance of watch-only bitcoin wallets"
	app.Description = "Without flags the cached balances are printed and only " +
		"the price is refreshed. Use --scan or --force to query the explorer."
	app.Flags = []cli.Flag{&scanFlag, &forceFlag, &datadirFlag}
	app.Action = balanceAction
	app.Commands = append(
		app.Commands,
		&status,
		&derive,
	)

	ctx, stop := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fatal(err)
	}
}

// initConfig loads the configuration and sets up logging to stderr, stdout
// being reserved to waybar.
func initConfig(c *cli.Context) error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := config.InitConfig(); err != nil {
		return err
	}
	if datadir := c.String(datadirFlag.Name); datadir != "" {
		config.Set(config.DatadirKey, datadir)
	}
	log.SetLevel(config.GetLogLevel())
	return nil
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[%s] %v\n", binaryName, err)
	}
	os.Exit(1)
}
