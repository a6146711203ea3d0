package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// DerivationPath is a BIP32 path, hardened components are offset by
// hdkeychain.HardenedKeyStart.
type DerivationPath []uint32

var (
	// DefaultBaseDerivationPath m/84'/0'/0'
	DefaultBaseDerivationPath = DerivationPath{
		hdkeychain.HardenedKeyStart + 84,
		hdkeychain.HardenedKeyStart + 0,
		hdkeychain.HardenedKeyStart + 0,
	}
	// TestnetBaseDerivationPath m/84'/1'/0'
	TestnetBaseDerivationPath = DerivationPath{
		hdkeychain.HardenedKeyStart + 84,
		hdkeychain.HardenedKeyStart + 1,
		hdkeychain.HardenedKeyStart + 0,
	}
)

// BaseDerivationPath returns the BIP84 path of the first account for the
// given network.
func BaseDerivationPath(params *chaincfg.Params) DerivationPath {
	if params != nil && params.Net == chaincfg.MainNetParams.Net {
		return DefaultBaseDerivationPath
	}
	return TestnetBaseDerivationPath
}

// ParseDerivationPath parses an absolute path like m/84'/0'/1'. Hardened
// components are marked with a trailing ' or h.
func ParseDerivationPath(str string) (DerivationPath, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return nil, ErrNullDerivationPath
	}

	components := strings.Split(str, "/")
	if strings.TrimSpace(components[0]) != "m" || len(components) < 2 {
		return nil, ErrMalformedDerivationPath
	}

	path := make(DerivationPath, 0, len(components)-1)
	for _, c := range components[1:] {
		component, err := parsePathComponent(strings.TrimSpace(c))
		if err != nil {
			return nil, err
		}
		path = append(path, component)
	}
	return path, nil
}

func parsePathComponent(str string) (uint32, error) {
	if str == "" {
		return 0, ErrMalformedDerivationPath
	}

	var offset uint32
	max := uint64(MaxChildIndex)
	if trimmed := strings.TrimRight(str, "'h"); trimmed != str {
		if len(str)-len(trimmed) > 1 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDerivationPath, str)
		}
		str = trimmed
		offset = hdkeychain.HardenedKeyStart
		max = MaxHardenedValue
	}

	value, err := strconv.ParseUint(str, 10, 32)
	if err != nil || value > max {
		return 0, fmt.Errorf(
			"%w: component %q must be in range [0, %d]",
			ErrInvalidDerivationPath, str, max,
		)
	}
	return offset + uint32(value), nil
}

// Child returns a copy of the path extended with the given components.
func (path DerivationPath) Child(components ...uint32) DerivationPath {
	child := make(DerivationPath, 0, len(path)+len(components))
	child = append(child, path...)
	return append(child, components...)
}

func (path DerivationPath) String() string {
	if len(path) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("m")
	for _, component := range path {
		if component >= hdkeychain.HardenedKeyStart {
			fmt.Fprintf(&b, "/%d'", component-hdkeychain.HardenedKeyStart)
			continue
		}
		fmt.Fprintf(&b, "/%d", component)
	}
	return b.String()
}
