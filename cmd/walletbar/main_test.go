package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/waybar-scripts/walletbar/internal/config"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/interfaces/waybar"
	"github.com/waybar-scripts/walletbar/pkg/wallet"
)

const (
	testZpub    = "zpub6rFR7y4Q2AijBEqTUquhVz398htDFrtymD9xYYfG1m4wAcvPhXNfE3EfH1r1ADqtfSdVCToUG868RvUUkgDKf31mGDtKsAYz2oz2AGutZYs"
	fundedAddr  = "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu"
	fundedSats  = 100000
	testTipJSON = "840000"
)

func TestNoEnvFile(t *testing.T) {
	dir := setupEnv(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.example"), nil, 0600))

	record := runRecord(t, domain.ScanModeCacheOnly)
	require.Equal(t, "₿ --", record.Text)
	require.Equal(t, waybar.ClassWarning, record.Class)
	require.Contains(t, record.Tooltip, ".env.example")
}

func TestNoWallets(t *testing.T) {
	setupEnv(t, "# empty\n")

	record := runRecord(t, domain.ScanModeCacheOnly)
	require.Equal(t, waybar.NoWallets(), record)
}

func TestNoCache(t *testing.T) {
	setupEnv(t, "WALLET_1_ZPUB="+testZpub+"\n")

	record := runRecord(t, domain.ScanModeCacheOnly)
	require.Equal(t, "⚠️ No Cache", record.Text)
	require.Equal(t, waybar.ClassWarning, record.Class)
}

func TestInvalidConfig(t *testing.T) {
	setupEnv(t, "WALLET_1_ZPUB="+testZpub+"\n")
	t.Setenv("WALLETBAR_CACHE_TYPE", "sqlite")

	record := runRecord(t, domain.ScanModeIncremental)
	require.Equal(t, "⚠️", record.Text)
	require.Equal(t, waybar.ClassError, record.Class)
}

func TestPanicIsRecovered(t *testing.T) {
	record := getRecord(context.Background(), domain.ScanModeCacheOnly, func() error {
		panic("boom")
	})
	require.Equal(t, waybar.ClassError, record.Class)
	require.Contains(t, record.Tooltip, "boom")
}

func TestScanThenCacheOnly(t *testing.T) {
	dir := setupEnv(t, ""+
		"WALLET_1_ZPUB="+testZpub+"\n"+
		"WALLET_1_NAME=Cold storage\n",
	)
	metrics := filepath.Join(dir, "walletbar.prom")
	t.Setenv("WALLETBAR_METRICS_TEXTFILE", metrics)

	var lookups int32
	explorerSrv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/blocks/tip/height" {
				fmt.Fprint(w, testTipJSON)
				return
			}
			atomic.AddInt32(&lookups, 1)

			address := strings.TrimPrefix(r.URL.Path, "/address/")
			funded := 0
			if address == fundedAddr {
				funded = fundedSats
			}
			fmt.Fprintf(
				w,
				`{"address":%q,"chain_stats":{"funded_txo_sum":%d,"spent_txo_sum":0,"tx_count":1},"mempool_stats":{}}`,
				address, funded,
			)
		},
	))
	defer explorerSrv.Close()

	priceSrv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v2/prices/BTC-USD/spot":
				fmt.Fprint(w, `{"data":{"amount":"60000.00","base":"BTC","currency":"USD"}}`)
			case "/v2/prices/BTC-EUR/spot":
				fmt.Fprint(w, `{"data":{"amount":"55000.00","base":"BTC","currency":"EUR"}}`)
			default:
				http.NotFound(w, r)
			}
		},
	))
	defer priceSrv.Close()

	t.Setenv("WALLETBAR_EXPLORER_ENDPOINT", explorerSrv.URL)
	t.Setenv("WALLETBAR_COINBASE_ENDPOINT", priceSrv.URL)
	t.Setenv("WALLETBAR_GAP_LIMIT", "3")
	t.Setenv("WALLETBAR_API_DELAY", "0")

	record := runRecord(t, domain.ScanModeIncremental)
	require.Equal(t, "0.00₿", record.Text, record.Tooltip)
	require.Equal(t, waybar.ClassCrypto, record.Class)
	require.Contains(t, record.Tooltip, "│  BTC  0.00100000 ₿")
	require.Contains(t, record.Tooltip, "│  USD  $60.00")
	// external: 0 funded then 3 empty, change: 3 empty.
	require.Equal(t, int32(7), atomic.LoadInt32(&lookups))

	content, err := os.ReadFile(metrics)
	require.NoError(t, err)
	require.Contains(t, string(content), `walletbar_wallet_balance_sats{wallet="Cold storage"} 100000`)

	record = runRecord(t, domain.ScanModeCacheOnly)
	require.Contains(t, record.Tooltip, "│  BTC  0.00100000 ₿")
	require.Equal(t, int32(7), atomic.LoadInt32(&lookups))

	buf := &bytes.Buffer{}
	require.NoError(t, config.InitConfig())
	repo, err := config.GetCacheRepository()
	require.NoError(t, err)
	cache, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	require.NoError(t, printStatus(buf, dir, cache))
	require.Contains(t, buf.String(), `"name": "Cold storage"`)
	require.Contains(t, buf.String(), `"balance_btc": "0.00100000"`)
	require.Contains(t, buf.String(), `"USD": "60000"`)
}

func TestPrintAddresses(t *testing.T) {
	setupEnv(t, "")
	require.NoError(t, config.InitConfig())

	buf := &bytes.Buffer{}
	require.NoError(t, printAddresses(buf, testZpub, "", 0, 0, 2))
	require.Equal(
		t,
		"m/84'/0'/0'/0/0\tbc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu\n"+
			"m/84'/0'/0'/0/1\tbc1qnjg0jd8228aq7egyzacy8cys3knf9xvrerkf9g\n",
		buf.String(),
	)

	buf.Reset()
	require.NoError(t, printAddresses(buf, testZpub, "", 1, 0, 1))
	require.Equal(
		t, "m/84'/0'/0'/1/0\tbc1q8c6fshw2dlwun7ekn9qwf37cu2rn755upcp6el\n", buf.String(),
	)

	buf.Reset()
	require.NoError(t, printAddresses(buf, testZpub, "m/84'/0'/7'", 0, 1, 1))
	require.Equal(
		t, "m/84'/0'/7'/0/1\tbc1qnjg0jd8228aq7egyzacy8cys3knf9xvrerkf9g\n", buf.String(),
	)

	buf.Reset()
	require.NoError(t, printAddresses(
		buf, testZpub, "", 0, wallet.MaxChildIndex, 1,
	))
	require.True(t, strings.HasPrefix(buf.String(), "m/84'/0'/0'/0/2147483647\t"))
}

func TestFailingPrintAddresses(t *testing.T) {
	setupEnv(t, "")
	require.NoError(t, config.InitConfig())

	tests := []struct {
		name        string
		xpub        string
		accountPath string
		from        uint
		count       uint
		expectedErr error
	}{
		{name: "invalid key", xpub: "not-a-key", count: 1},
		{name: "zero count", xpub: testZpub},
		{name: "count too big", xpub: testZpub, count: maxDeriveCount + 1},
		{
			name:  "past last child index",
			xpub:  testZpub,
			from:  wallet.MaxChildIndex,
			count: 2,
		},
		{
			name:  "from past last child index",
			xpub:  testZpub,
			from:  wallet.MaxChildIndex + 1,
			count: 1,
		},
		{
			name:        "malformed path",
			xpub:        testZpub,
			accountPath: "84'/0'/0'",
			count:       1,
			expectedErr: wallet.ErrMalformedDerivationPath,
		},
		{
			name:        "path not matching key depth",
			xpub:        testZpub,
			accountPath: "m/84'/0'/0'/0",
			count:       1,
			expectedErr: wallet.ErrInvalidDerivationPath,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			err := printAddresses(
				buf, tt.xpub, tt.accountPath, 0, tt.from, tt.count,
			)
			require.Error(t, err)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
			}
			require.Empty(t, buf.String())
		})
	}
}

func TestWriteRecord(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeRecord(buf, waybar.NoWallets()))
	require.Equal(
		t,
		`{"text":"₿ 0","tooltip":"No wallets configured in .env","class":"empty"}`+"\n",
		buf.String(),
	)
}

// setupEnv points the configuration to a temp dir holding a .env file with
// the given content, or no .env file at all if content is empty.
func setupEnv(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if content != "" {
		require.NoError(t, os.WriteFile(envFile, []byte(content), 0600))
	}

	t.Setenv("WALLETBAR_DATADIR", filepath.Join(dir, "cache"))
	t.Setenv("WALLETBAR_ENV_FILE", envFile)
	t.Setenv("WALLETBAR_LOG_LEVEL", "0")
	return dir
}

func runRecord(t *testing.T, mode domain.ScanMode) waybar.Record {
	t.Helper()
	return getRecord(context.Background(), mode, config.InitConfig)
}
