package waybar

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/pkg/mathutil"
)

const (
	boxBottom = "└─────────────────────────────┘"
	footer    = "🔒 Privacy matters"
)

// RenderReport turns a report into a waybar record. Missing prices are
// rendered as zero, they never prevent a record from being shown.
func RenderReport(report *domain.Report) Record {
	total := report.TotalBalance()
	usd := report.Price.Price(domain.QuoteUSD)
	eur := report.Price.Price(domain.QuoteEUR)

	lines := make([]string, 0, 32)
	lines = append(lines,
		"┌─ 💰 TOTAL BALANCE ──────────┐",
		fmt.Sprintf("│  BTC  %s ₿", formatBTC(total)),
		fmt.Sprintf("│  USD  $%s", formatFiat(mathutil.FiatValue(total, usd))),
		fmt.Sprintf("│  EUR  €%s", formatFiat(mathutil.FiatValue(total, eur))),
		boxBottom,
		"",
	)

	if len(report.Wallets) > 1 {
		lines = append(lines, "┌─ 📊 INDIVIDUAL WALLETS ─────┐", "│")
		for _, w := range report.Wallets {
			name := w.Name
			if w.Err != nil {
				name += " ⚠️"
			} else if w.Partial {
				name += " ⏳"
			}
			lines = append(lines,
				fmt.Sprintf("│  📌 %s", name),
				fmt.Sprintf("│  ├─ ₿  %s BTC", formatBTC(w.Balance)),
				fmt.Sprintf("│  ├─ 💵 $%s", formatFiat(mathutil.FiatValue(w.Balance, usd))),
				fmt.Sprintf("│  └─ 💶 €%s", formatFiat(mathutil.FiatValue(w.Balance, eur))),
				"│",
			)
		}
		lines = append(lines, boxBottom, "")
	}

	lines = append(lines,
		"┌─ 📈 BITCOIN PRICE ──────────┐",
		fmt.Sprintf("│  USD  $%s", formatPrice(usd)),
		fmt.Sprintf("│  EUR  €%s", formatPrice(eur)),
		boxBottom,
		"",
	)

	class := ClassCrypto
	if report.IsPartial() {
		class = ClassPartial
		lines = append(lines, "⏳ Partial scan, run --scan again to complete", "")
	}
	lines = append(lines, footer)

	return Record{
		Text:    mathutil.SatsToBTC(total).StringFixed(2) + "₿",
		Tooltip: strings.Join(lines, "\n"),
		Class:   class,
	}
}

func formatBTC(sats uint64) string {
	return mathutil.SatsToBTC(sats).StringFixed(mathutil.BtcPrecision)
}

func formatFiat(amount decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", amount.InexactFloat64())
}

func formatPrice(price decimal.Decimal) string {
	return humanize.FormatFloat("#,###.", price.Round(0).InexactFloat64())
}
