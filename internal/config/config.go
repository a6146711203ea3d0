package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/ratelimit"

	"github.com/waybar-scripts/walletbar/internal/core/application"
	"github.com/waybar-scripts/walletbar/internal/core/application/scanner"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/core/ports"
	pricefeederinfra "github.com/waybar-scripts/walletbar/internal/infrastructure/price-feeder"
	dbbadger "github.com/waybar-scripts/walletbar/internal/infrastructure/storage/badger"
	filestore "github.com/waybar-scripts/walletbar/internal/infrastructure/storage/file"
	"github.com/waybar-scripts/walletbar/pkg/circuitbreaker"
	"github.com/waybar-scripts/walletbar/pkg/explorer"
	"github.com/waybar-scripts/walletbar/pkg/explorer/esplora"
	"github.com/waybar-scripts/walletbar/pkg/httputil"
	pricefeeder "github.com/waybar-scripts/walletbar/pkg/price-feeder"
	coinbasefeeder "github.com/waybar-scripts/walletbar/pkg/price-feeder/coinbase"
	krakenfeeder "github.com/waybar-scripts/walletbar/pkg/price-feeder/kraken"
)

const (
	// DatadirKey is the directory where the wallet cache is stored
	DatadirKey = "DATADIR"
	// EnvFileKey is the path of the .env file holding the wallet keys
	EnvFileKey = "ENV_FILE"
	// WalletsFileKey is the path of an optional YAML file listing more wallets
	WalletsFileKey = "WALLETS_FILE"
	// CacheTypeKey selects the cache backend, either file or badger
	CacheTypeKey = "CACHE_TYPE"
	// CacheTTLKey makes a cache older than this be ignored. 0 never expires
	CacheTTLKey = "CACHE_TTL"
	// PriceCacheTTLKey is how long fetched prices are reused
	PriceCacheTTLKey = "PRICE_CACHE_TTL"
	// ExplorerEndpointKey is the base url of the esplora REST API
	ExplorerEndpointKey = "EXPLORER_ENDPOINT"
	// ExplorerRequestTimeoutKey are the milliseconds to wait for HTTP responses before timeouts
	ExplorerRequestTimeoutKey = "EXPLORER_REQUEST_TIMEOUT"
	// ExplorerRetriesKey is the number of retries of a transient lookup failure
	ExplorerRetriesKey = "EXPLORER_RETRIES"
	// IncludeMempoolKey makes balances include unconfirmed transactions
	IncludeMempoolKey = "INCLUDE_MEMPOOL"
	// PriceSourceKey is the preferred price source, either coinbase or kraken.
	// The other one is used as fallback.
	PriceSourceKey = "PRICE_SOURCE"
	// CoinbaseEndpointKey is the base url of the coinbase API
	CoinbaseEndpointKey = "COINBASE_ENDPOINT"
	// KrakenEndpointKey is the base url of the kraken API
	KrakenEndpointKey = "KRAKEN_ENDPOINT"
	// GapLimitKey is the number of consecutive empty addresses ending a scan
	GapLimitKey = "GAP_LIMIT"
	// MaxAddressIndexKey bounds the number of addresses checked per chain
	MaxAddressIndexKey = "MAX_ADDRESS_INDEX"
	// BacktrackKey is how many indices an incremental scan goes back
	BacktrackKey = "BACKTRACK"
	// APIDelayKey is the minimum delay between two balance lookups
	APIDelayKey = "API_DELAY"
	// FailedLookupsAsEmptyKey makes failed lookups count as empty addresses
	FailedLookupsAsEmptyKey = "FAILED_LOOKUPS_AS_EMPTY"
	// ScanConcurrencyKey is the number of wallets scanned in parallel
	ScanConcurrencyKey = "SCAN_CONCURRENCY"
	// NetworkKey forces the network addresses are encoded for. If empty it
	// is inferred from each key
	NetworkKey = "NETWORK"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// MetricsTextfileKey is the optional .prom file metrics are written to
	MetricsTextfileKey = "METRICS_TEXTFILE"

	CacheTypeFile   = "file"
	CacheTypeBadger = "badger"

	PriceSourceCoinbase = "coinbase"
	PriceSourceKraken   = "kraken"

	DbLocation = "db"
)

var (
	vip *viper.Viper

	defaultDatadir = filepath.Join(homeDir(), ".cache", "waybar-bitcoin")
	defaultEnvFile = filepath.Join(homeDir(), ".config", "waybar", ".env")

	networks = map[string]*chaincfg.Params{
		chaincfg.MainNetParams.Name:       &chaincfg.MainNetParams,
		chaincfg.TestNet3Params.Name:      &chaincfg.TestNet3Params,
		chaincfg.RegressionNetParams.Name: &chaincfg.RegressionNetParams,
		chaincfg.SigNetParams.Name:        &chaincfg.SigNetParams,
	}
)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("WALLETBAR")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(EnvFileKey, defaultEnvFile)
	vip.SetDefault(CacheTypeKey, CacheTypeFile)
	vip.SetDefault(CacheTTLKey, 0)
	vip.SetDefault(PriceCacheTTLKey, 5*time.Minute)
	vip.SetDefault(ExplorerEndpointKey, "https://mempool.space/api")
	vip.SetDefault(ExplorerRequestTimeoutKey, 30000)
	vip.SetDefault(ExplorerRetriesKey, esplora.DefaultRetries)
	vip.SetDefault(IncludeMempoolKey, false)
	vip.SetDefault(PriceSourceKey, PriceSourceCoinbase)
	vip.SetDefault(CoinbaseEndpointKey, coinbasefeeder.BaseURL)
	vip.SetDefault(KrakenEndpointKey, krakenfeeder.BaseURL)
	vip.SetDefault(GapLimitKey, scanner.DefaultGapLimit)
	vip.SetDefault(MaxAddressIndexKey, scanner.DefaultMaxIndex)
	vip.SetDefault(BacktrackKey, scanner.DefaultBacktrack)
	vip.SetDefault(APIDelayKey, 3*time.Second)
	vip.SetDefault(FailedLookupsAsEmptyKey, false)
	vip.SetDefault(ScanConcurrencyKey, 1)
	vip.SetDefault(LogLevelKey, 4)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}
	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetNetwork returns the forced network, nil if it must be inferred from
// wallet keys.
func GetNetwork() *chaincfg.Params {
	return networks[GetString(NetworkKey)]
}

func GetLogLevel() log.Level {
	return log.Level(GetInt(LogLevelKey))
}

// GetScannerConfig returns the gap-limit scan parameters.
func GetScannerConfig() scanner.Config {
	return scanner.Config{
		GapLimit:             GetInt(GapLimitKey),
		MaxIndex:             GetInt(MaxAddressIndexKey),
		Backtrack:            GetInt(BacktrackKey),
		FailedLookupsAsEmpty: GetBool(FailedLookupsAsEmptyKey),
	}
}

// GetRateLimiter returns the limiter spacing balance lookups by API_DELAY.
func GetRateLimiter() ratelimit.Limiter {
	delay := GetDuration(APIDelayKey)
	if delay <= 0 {
		return ratelimit.NewUnlimited()
	}
	return ratelimit.New(1, ratelimit.Per(delay), ratelimit.WithoutSlack)
}

func GetBalanceServiceConfig() application.BalanceServiceConfig {
	return application.BalanceServiceConfig{
		Concurrency: GetInt(ScanConcurrencyKey),
		CacheTTL:    GetDuration(CacheTTLKey),
		PriceTTL:    GetDuration(PriceCacheTTLKey),
		Quotes:      domain.Quotes,
	}
}

func GetExplorer() (explorer.Service, error) {
	timeout := time.Duration(GetInt(ExplorerRequestTimeoutKey)) * time.Millisecond
	return esplora.NewService(
		GetString(ExplorerEndpointKey),
		esplora.WithHTTPClient(httputil.NewClient(timeout, nil)),
		esplora.WithRetries(GetInt(ExplorerRetriesKey), esplora.DefaultRetryDelay),
		esplora.WithMempool(GetBool(IncludeMempoolKey)),
		esplora.WithCircuitBreaker(circuitbreaker.NewCircuitBreaker("explorer")),
	)
}

// GetPriceFeeder returns a feeder querying the configured source first and
// the other one as fallback.
func GetPriceFeeder() (ports.PriceFeeder, error) {
	client := httputil.NewClient(httputil.DefaultTimeout, nil)
	coinbase := coinbasefeeder.NewService(GetString(CoinbaseEndpointKey), client)
	kraken := krakenfeeder.NewService(GetString(KrakenEndpointKey), client)

	feeders := []pricefeeder.PriceFeeder{coinbase, kraken}
	if GetString(PriceSourceKey) == PriceSourceKraken {
		feeders = []pricefeeder.PriceFeeder{kraken, coinbase}
	}
	return pricefeederinfra.NewService(feeders...)
}

// GetCacheRepository opens the configured cache backend inside the datadir.
func GetCacheRepository() (ports.CacheRepository, error) {
	datadir := GetDatadir()
	if err := makeDirectoryIfNotExists(datadir); err != nil {
		return nil, err
	}

	if GetString(CacheTypeKey) == CacheTypeBadger {
		dbDir := filepath.Join(datadir, DbLocation)
		if err := makeDirectoryIfNotExists(dbDir); err != nil {
			return nil, err
		}
		return dbbadger.NewCacheStore(dbDir, log.StandardLogger())
	}
	return filestore.NewCacheStore(datadir)
}

func validate() error {
	if len(GetString(DatadirKey)) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	cacheType := GetString(CacheTypeKey)
	if cacheType != CacheTypeFile && cacheType != CacheTypeBadger {
		return fmt.Errorf(
			"cache type must be either '%s' or '%s'", CacheTypeFile, CacheTypeBadger,
		)
	}

	priceSource := GetString(PriceSourceKey)
	if priceSource != PriceSourceCoinbase && priceSource != PriceSourceKraken {
		return fmt.Errorf(
			"price source must be either '%s' or '%s'",
			PriceSourceCoinbase, PriceSourceKraken,
		)
	}

	for _, key := range []string{
		ExplorerEndpointKey, CoinbaseEndpointKey, KrakenEndpointKey,
	} {
		endpoint, err := url.Parse(GetString(key))
		if err != nil {
			return fmt.Errorf("%s is not a valid url: %s", key, err)
		}
		if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
			return fmt.Errorf("%s must be an http(s) url", key)
		}
	}

	if GetInt(ExplorerRequestTimeoutKey) <= 0 {
		return fmt.Errorf("%s must be positive", ExplorerRequestTimeoutKey)
	}
	if GetInt(ExplorerRetriesKey) < 0 {
		return fmt.Errorf("%s must not be negative", ExplorerRetriesKey)
	}
	if GetInt(ScanConcurrencyKey) <= 0 {
		return fmt.Errorf("%s must be positive", ScanConcurrencyKey)
	}
	if GetDuration(APIDelayKey) < 0 {
		return fmt.Errorf("%s must not be negative", APIDelayKey)
	}

	if net := GetString(NetworkKey); net != "" {
		if _, ok := networks[net]; !ok {
			names := make([]string, 0, len(networks))
			for name := range networks {
				names = append(names, name)
			}
			return fmt.Errorf(
				"unknown network %s, must be one of %s", net, strings.Join(names, ", "),
			)
		}
	}

	if level := GetInt(LogLevelKey); level < 0 || level > int(log.TraceLevel) {
		return fmt.Errorf("log level must be in range [0, %d]", log.TraceLevel)
	}

	if path := GetString(MetricsTextfileKey); path != "" {
		if filepath.Ext(path) != ".prom" {
			return fmt.Errorf("metrics textfile must have .prom extension")
		}
	}

	return GetScannerConfig().Validate()
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
