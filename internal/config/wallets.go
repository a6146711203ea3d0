package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/waybar-scripts/walletbar/internal/core/application"
	"github.com/waybar-scripts/walletbar/pkg/wallet"
)

var (
	// ErrEnvFileNotFound is returned when neither the .env file nor a wallets
	// file exist.
	ErrEnvFileNotFound = errors.New("wallet keys file not found")
)

// WalletConfig is a wallet as written in the keys files. Path is the
// optional derivation path of the key, m/84'/0'/0' if empty.
type WalletConfig struct {
	Name string `yaml:"name"`
	Xpub string `yaml:"xpub"`
	Path string `yaml:"path,omitempty"`
}

type walletsFile struct {
	Wallets []WalletConfig `yaml:"wallets"`
}

// GetWallets loads the configured wallets: the ones of the .env file first,
// followed by those of the optional YAML wallets file. A key listed twice is
// only loaded once.
func GetWallets() ([]application.Wallet, error) {
	configs, err := ReadWalletConfigs(GetString(EnvFileKey), GetString(WalletsFileKey))
	if err != nil {
		return nil, err
	}
	return NewWallets(configs, GetNetwork())
}

// ReadWalletConfigs reads the wallet keys from envFile and walletsFile.
// walletsFile is optional, envFile may be missing only if walletsFile is
// given.
func ReadWalletConfigs(envFile, walletsFile string) ([]WalletConfig, error) {
	configs, err := readEnvFile(envFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
		if walletsFile == "" {
			return nil, fmt.Errorf("%w: %s", ErrEnvFileNotFound, envFile)
		}
	}

	if walletsFile != "" {
		more, err := readWalletsFile(walletsFile)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", walletsFile, err)
		}
		configs = append(configs, more...)
	}
	return configs, nil
}

// NewWallets parses the keys of the given configs. If params is nil the
// network of each wallet is inferred from its key.
func NewWallets(
	configs []WalletConfig, params *chaincfg.Params,
) ([]application.Wallet, error) {
	wallets := make([]application.Wallet, 0, len(configs))
	seen := make(map[string]string)

	for _, c := range configs {
		key, err := wallet.ParseExtendedKey(c.Xpub)
		if err != nil {
			return nil, fmt.Errorf("wallet %s: %w", c.Name, err)
		}
		if other, ok := seen[key.ID()]; ok {
			log.WithFields(log.Fields{
				"wallet": c.Name,
				"same":   other,
			}).Warn("skipping wallet configured twice")
			continue
		}
		seen[key.ID()] = c.Name

		deriver, err := wallet.NewDeriver(key, params)
		if err != nil {
			return nil, fmt.Errorf("wallet %s: %w", c.Name, err)
		}
		if err := setAccountPath(deriver, key, c); err != nil {
			return nil, fmt.Errorf("wallet %s: %w", c.Name, err)
		}
		wallets = append(wallets, application.Wallet{
			ID:      key.ID(),
			Name:    c.Name,
			Deriver: deriver,
		})
	}
	return wallets, nil
}

// ExampleEnvFile returns the path of the .env.example file next to envFile
// if it exists.
func ExampleEnvFile(envFile string) string {
	example := envFile + ".example"
	if _, err := os.Stat(example); err != nil {
		return ""
	}
	return example
}

// readEnvFile reads WALLET_<n>_ZPUB and WALLET_<n>_NAME for n = 1, 2...
// until the first missing key. WALLET_<n>_XPUB is accepted in place of
// WALLET_<n>_ZPUB.
func setAccountPath(
	deriver *wallet.Deriver, key *wallet.ExtendedKey, c WalletConfig,
) error {
	if strings.TrimSpace(c.Path) == "" {
		if depth := int(key.Depth()); depth != len(wallet.DefaultBaseDerivationPath) {
			log.WithFields(log.Fields{
				"wallet": c.Name,
				"depth":  depth,
			}).Warn("key is not an account key, set its path to get correct address paths")
		}
		return nil
	}

	path, err := wallet.ParseDerivationPath(c.Path)
	if err != nil {
		return err
	}
	return deriver.SetAccountPath(path)
}

func readEnvFile(path string) ([]WalletConfig, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}

	configs := make([]WalletConfig, 0)
	for i := 1; ; i++ {
		xpub, ok := env[fmt.Sprintf("WALLET_%d_ZPUB", i)]
		if !ok {
			xpub, ok = env[fmt.Sprintf("WALLET_%d_XPUB", i)]
		}
		if !ok {
			break
		}

		name := strings.TrimSpace(env[fmt.Sprintf("WALLET_%d_NAME", i)])
		if name == "" {
			name = fmt.Sprintf("Wallet %d", i)
		}
		configs = append(configs, WalletConfig{
			Name: name,
			Xpub: xpub,
			Path: env[fmt.Sprintf("WALLET_%d_PATH", i)],
		})
	}
	return configs, nil
}

func readWalletsFile(path string) ([]WalletConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f walletsFile
	if err := yaml.Unmarshal(buf, &f); err != nil {
		return nil, err
	}
	for i, w := range f.Wallets {
		if strings.TrimSpace(w.Xpub) == "" {
			return nil, fmt.Errorf("wallet #%d has no xpub", i+1)
		}
		if strings.TrimSpace(w.Name) == "" {
			f.Wallets[i].Name = fmt.Sprintf("Wallet %d", i+1)
		}
	}
	return f.Wallets, nil
}
