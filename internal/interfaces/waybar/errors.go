package waybar

import (
	"fmt"
	"path/filepath"
)

// NoEnvFile is shown when the wallet keys file does not exist. If an
// example file is found next to it, the user is pointed to it.
func NoEnvFile(envFile, exampleFile string) Record {
	tooltip := fmt.Sprintf("⚠️ Create %s\n\nAdd your wallet zpub keys", envFile)
	if exampleFile != "" {
		tooltip = fmt.Sprintf(
			"⚠️ Create %s\n\nCopy %s to .env and add your zpub keys",
			envFile, filepath.Base(exampleFile),
		)
	}
	return Record{
		Text:    "₿ --",
		Tooltip: tooltip,
		Class:   ClassWarning,
	}
}

func NoWallets() Record {
	return Record{
		Text:    "₿ 0",
		Tooltip: "No wallets configured in .env",
		Class:   ClassEmpty,
	}
}

// NoCache is shown in cache-only mode before the first scan.
func NoCache(binary string) Record {
	return Record{
		Text: "⚠️ No Cache",
		Tooltip: fmt.Sprintf(
			"Cache not found. Run once with --force to create:\n%s --force\n\n"+
				"Or use --scan for incremental updates",
			binary,
		),
		Class: ClassWarning,
	}
}

// CacheBusy is shown when another process holds the cache exclusively.
func CacheBusy() Record {
	return Record{
		Text:    "₿ …",
		Tooltip: "Wallet cache is in use by a running scan, try again shortly",
		Class:   ClassWarning,
	}
}

// Degraded is shown for any failure that prevents building a report.
func Degraded(err error) Record {
	return Record{
		Text:    "⚠️",
		Tooltip: fmt.Sprintf("Wallet balance unavailable\n%s\nCheck logs for details", err),
		Class:   ClassError,
	}
}
