package waybar_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/interfaces/waybar"
)

var prices = &domain.PriceSnapshot{
	Source: "coinbase",
	Prices: map[string]decimal.Decimal{
		domain.QuoteUSD: decimal.NewFromInt(60000),
		domain.QuoteEUR: decimal.RequireFromString("55123.6"),
	},
}

func TestRenderSingleWallet(t *testing.T) {
	report := &domain.Report{
		Wallets: []domain.WalletBalance{
			{ID: "a", Name: "Cold storage", Balance: 100000},
		},
		Price: prices,
	}

	record := waybar.RenderReport(report)
	require.Equal(t, "0.00₿", record.Text)
	require.Equal(t, waybar.ClassCrypto, record.Class)
	require.Contains(t, record.Tooltip, "│  BTC  0.00100000 ₿")
	require.Contains(t, record.Tooltip, "│  USD  $60.00")
	require.Contains(t, record.Tooltip, "│  EUR  €55.12")
	require.Contains(t, record.Tooltip, "│  USD  $60,000")
	require.Contains(t, record.Tooltip, "│  EUR  €55,124")
	require.NotContains(t, record.Tooltip, "INDIVIDUAL WALLETS")
	require.True(t, strings.HasSuffix(record.Tooltip, "🔒 Privacy matters"))
}

func TestRenderMultipleWallets(t *testing.T) {
	report := &domain.Report{
		Wallets: []domain.WalletBalance{
			{ID: "a", Name: "Cold storage", Balance: 150000000},
			{ID: "b", Name: "Spending", Balance: 2500000, Partial: true},
		},
		Price: prices,
	}

	record := waybar.RenderReport(report)
	require.Equal(t, "1.53₿", record.Text)
	require.Equal(t, waybar.ClassPartial, record.Class)
	require.Contains(t, record.Tooltip, "INDIVIDUAL WALLETS")
	require.Contains(t, record.Tooltip, "│  📌 Cold storage\n│  ├─ ₿  1.50000000 BTC")
	require.Contains(t, record.Tooltip, "│  ├─ 💵 $90,000.00")
	require.Contains(t, record.Tooltip, "│  📌 Spending ⏳")
	require.Contains(t, record.Tooltip, "│  USD  $91,500.00")
	require.Contains(t, record.Tooltip, "Partial scan")
}

func TestRenderWithoutPrices(t *testing.T) {
	report := &domain.Report{
		Wallets: []domain.WalletBalance{
			{ID: "a", Name: "A", Balance: 100000},
			{ID: "b", Name: "B", Err: errors.New("boom")},
		},
	}

	record := waybar.RenderReport(report)
	require.Equal(t, "0.00₿", record.Text)
	require.Equal(t, waybar.ClassPartial, record.Class)
	require.Contains(t, record.Tooltip, "│  USD  $0.00")
	require.Contains(t, record.Tooltip, "│  USD  $0\n")
	require.Contains(t, record.Tooltip, "│  📌 B ⚠️")
}

func TestErrorRecords(t *testing.T) {
	tests := []struct {
		name   string
		record waybar.Record
		text   string
		class  string
	}{
		{"no env file", waybar.NoEnvFile("/home/u/.env", ""), "₿ --", waybar.ClassWarning},
		{"no wallets", waybar.NoWallets(), "₿ 0", waybar.ClassEmpty},
		{"no cache", waybar.NoCache("walletbar"), "⚠️ No Cache", waybar.ClassWarning},
		{"cache busy", waybar.CacheBusy(), "₿ …", waybar.ClassWarning},
		{"degraded", waybar.Degraded(errors.New("boom")), "⚠️", waybar.ClassError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.text, tt.record.Text)
			require.Equal(t, tt.class, tt.record.Class)
			require.NotEmpty(t, tt.record.Tooltip)
		})
	}

	record := waybar.NoEnvFile("/home/u/.env", "/home/u/.env.example")
	require.Contains(t, record.Tooltip, "Copy .env.example to .env")
}

func TestWrite(t *testing.T) {
	buf := &bytes.Buffer{}
	err := waybar.Write(buf, waybar.Record{
		Text:    "0.00₿",
		Tooltip: "a <b>\nc",
		Class:   waybar.ClassCrypto,
	})
	require.NoError(t, err)
	require.Equal(
		t,
		`{"text":"0.00₿","tooltip":"a <b>\nc","class":"crypto"}`+"\n",
		buf.String(),
	)
}
