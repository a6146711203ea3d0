package wallet

import (
	"errors"
	"math"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	// MaxHardenedValue is the max value of a hardened path component, once
	// the hardened offset is removed.
	MaxHardenedValue = math.MaxUint32 - hdkeychain.HardenedKeyStart
	// MaxChildIndex is the max non-hardened child index a public key can
	// derive.
	MaxChildIndex = hdkeychain.HardenedKeyStart - 1
)

var (
	// ErrNullExtendedKey ...
	ErrNullExtendedKey = errors.New("extended public key must not be null")
	// ErrInvalidExtendedKey is returned when the key is not a valid base58
	// serialized BIP32 extended key.
	ErrInvalidExtendedKey = errors.New("extended key is invalid")
	// ErrPrivateExtendedKey is returned when a private key is given where only
	// a public one is accepted.
	ErrPrivateExtendedKey = errors.New(
		"extended key is private, only account level public keys are accepted",
	)
	// ErrUnknownKeyVersion is returned when the network can't be inferred
	// from the key version bytes.
	ErrUnknownKeyVersion = errors.New("unknown extended key version")
	// ErrDerivationFailure is returned when a child key can't be derived at
	// the requested position.
	ErrDerivationFailure = errors.New("address derivation failed")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrInvalidDerivationPath is returned for out of range components or a
	// path that does not match the key it describes.
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrMalformedDerivationPath is returned for paths not of the form
	// m/a/b/c.
	ErrMalformedDerivationPath = errors.New(
		"derivation path must start with 'm/' and have no empty component",
	)
)
