package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/waybar-scripts/walletbar/internal/config"
	"github.com/waybar-scripts/walletbar/pkg/wallet"
)

var (
	countFlag = cli.UintFlag{
		Name:  "count",
		Usage: "number of addresses to derive",
		Value: 5,
	}
	fromFlag = cli.UintFlag{
		Name:  "from",
		Usage: "index of the first address",
	}
	changeFlag = cli.BoolFlag{
		Name:  "change",
		Usage: "derive change addresses instead of receiving ones",
	}
	pathFlag = cli.StringFlag{
		Name:  "path",
		Usage: "derivation path of the key, m/84'/0'/0' if not set",
	}
)

const maxDeriveCount = 10000

var derive = cli.Command{
	Name:      "derive",
	Usage:     "print the first addresses of an account key, to check it against a wallet",
	ArgsUsage: "<zpub|xpub>",
	Flags:     []cli.Flag{&countFlag, &fromFlag, &changeFlag, &pathFlag},
	Action:    deriveAction,
}

func deriveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return &invalidUsageError{c, "derive"}
	}
	if err := initConfig(c); err != nil {
		return err
	}

	var chain uint32
	if c.Bool(changeFlag.Name) {
		chain = 1
	}
	return printAddresses(
		os.Stdout, c.Args().First(), c.String(pathFlag.Name), chain,
		c.Uint(fromFlag.Name), c.Uint(countFlag.Name),
	)
}

func printAddresses(
	w io.Writer, xpub, accountPath string, chain uint32, from, count uint,
) error {
	if count == 0 || count > maxDeriveCount {
		return fmt.Errorf("count must be in range [1, %d]", maxDeriveCount)
	}
	if uint64(from)+uint64(count)-1 > wallet.MaxChildIndex {
		return fmt.Errorf(
			"addresses must not go past index %d", uint64(wallet.MaxChildIndex),
		)
	}

	key, err := wallet.ParseExtendedKey(xpub)
	if err != nil {
		return err
	}
	deriver, err := wallet.NewDeriver(key, config.GetNetwork())
	if err != nil {
		return err
	}
	if accountPath != "" {
		path, err := wallet.ParseDerivationPath(accountPath)
		if err != nil {
			return err
		}
		if err := deriver.SetAccountPath(path); err != nil {
			return err
		}
	}

	first, last := uint32(from), uint32(from+count-1)
	for i := first; i <= last; i++ {
		addr, err := deriver.Derive(chain, i)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", deriver.Path(chain, i), addr); err != nil {
			return err
		}
	}
	return nil
}
