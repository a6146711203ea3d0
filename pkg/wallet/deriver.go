package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Deriver derives native segwit (P2WPKH) addresses from an account level
// extended public key, following BIP84: account/chain/index.
type Deriver struct {
	key      *ExtendedKey
	params   *chaincfg.Params
	basePath DerivationPath
}

// NewDeriver returns a deriver for the given key. If params is nil the
// network is inferred from the key version bytes.
func NewDeriver(key *ExtendedKey, params *chaincfg.Params) (*Deriver, error) {
	if key == nil {
		return nil, ErrNullExtendedKey
	}
	if params == nil {
		p, err := key.Network()
		if err != nil {
			return nil, err
		}
		params = p
	}

	return &Deriver{
		key:      key,
		params:   params,
		basePath: BaseDerivationPath(params),
	}, nil
}

// Derive returns the bech32 address at account/chain/index. It is pure and
// safe for concurrent use.
func (d *Deriver) Derive(chain, index uint32) (string, error) {
	if chain > MaxChildIndex || index > MaxChildIndex {
		return "", fmt.Errorf(
			"%w: %s is hardened", ErrDerivationFailure, d.Path(chain, index),
		)
	}

	branch, err := d.key.key.Derive(chain)
	if err != nil {
		return "", d.derivationErr(chain, index, err)
	}
	child, err := branch.Derive(index)
	if err != nil {
		return "", d.derivationErr(chain, index, err)
	}
	pubkey, err := child.ECPubKey()
	if err != nil {
		return "", d.derivationErr(chain, index, err)
	}

	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(pubkey.SerializeCompressed()), d.params,
	)
	if err != nil {
		return "", d.derivationErr(chain, index, err)
	}
	return addr.EncodeAddress(), nil
}

// SetAccountPath sets the path the key was derived at, used to report the
// full path of addresses. It defaults to the first BIP84 account and must
// match the depth of the key.
func (d *Deriver) SetAccountPath(path DerivationPath) error {
	if len(path) != int(d.key.Depth()) {
		return fmt.Errorf(
			"%w: %s has depth %d, key has depth %d",
			ErrInvalidDerivationPath, path, len(path), d.key.Depth(),
		)
	}
	d.basePath = path
	return nil
}

// Path returns the full derivation path of the address at chain/index.
func (d *Deriver) Path(chain, index uint32) DerivationPath {
	return d.basePath.Child(chain, index)
}

// Network returns the params addresses are encoded for.
func (d *Deriver) Network() *chaincfg.Params {
	return d.params
}

func (d *Deriver) derivationErr(chain, index uint32, err error) error {
	if err == hdkeychain.ErrInvalidChild {
		return fmt.Errorf(
			"%w: %s is an invalid child", ErrDerivationFailure, d.Path(chain, index),
		)
	}
	return fmt.Errorf("%w: %s: %s", ErrDerivationFailure, d.Path(chain, index), err)
}
