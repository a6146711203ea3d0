package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// version bytes of SLIP-0132 account level public keys.
var (
	xpubVersion = []byte{0x04, 0x88, 0xb2, 0x1e}
	ypubVersion = []byte{0x04, 0x9d, 0x7c, 0xb2}
	zpubVersion = []byte{0x04, 0xb2, 0x47, 0x46}
	tpubVersion = []byte{0x04, 0x35, 0x87, 0xcf}
	upubVersion = []byte{0x04, 0x4a, 0x52, 0x62}
	vpubVersion = []byte{0x04, 0x5f, 0x1c, 0xf6}

	mainnetVersions = [][]byte{xpubVersion, ypubVersion, zpubVersion}
	testnetVersions = [][]byte{tpubVersion, upubVersion, vpubVersion}
)

// ExtendedKey is a parsed account level extended public key (xpub, ypub,
// zpub or their testnet counterparts).
type ExtendedKey struct {
	serialized string
	key        *hdkeychain.ExtendedKey
}

// ParseExtendedKey parses a base58 serialized extended public key. Version
// bytes are not checked against a network here, see ExtendedKey.Network.
func ParseExtendedKey(serialized string) (*ExtendedKey, error) {
	serialized = strings.TrimSpace(serialized)
	if serialized == "" {
		return nil, ErrNullExtendedKey
	}

	key, err := hdkeychain.NewKeyFromString(serialized)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidExtendedKey, err)
	}
	if key.IsPrivate() {
		return nil, ErrPrivateExtendedKey
	}

	return &ExtendedKey{serialized, key}, nil
}

// ID returns a short stable identifier of the key, safe to persist and log.
func (k *ExtendedKey) ID() string {
	return hex.EncodeToString(btcutil.Hash160([]byte(k.serialized))[:8])
}

// Network infers the network from the key version bytes.
func (k *ExtendedKey) Network() (*chaincfg.Params, error) {
	version := k.key.Version()
	for _, v := range mainnetVersions {
		if bytes.Equal(v, version) {
			return &chaincfg.MainNetParams, nil
		}
	}
	for _, v := range testnetVersions {
		if bytes.Equal(v, version) {
			return &chaincfg.TestNet3Params, nil
		}
	}
	return nil, fmt.Errorf("%w: %x", ErrUnknownKeyVersion, version)
}

// Depth returns the depth of the key in its hierarchy, 3 for a BIP84
// account key.
func (k *ExtendedKey) Depth() uint8 {
	return k.key.Depth()
}

// String returns a shortened form of the key, meant for logs.
func (k *ExtendedKey) String() string {
	if len(k.serialized) <= 16 {
		return k.serialized
	}
	return k.serialized[:8] + "..." + k.serialized[len(k.serialized)-4:]
}
