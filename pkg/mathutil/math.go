package mathutil

import (
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// BtcPrecision is the number of decimal places of a bitcoin amount.
	BtcPrecision = 8
	// FiatPrecision is the number of decimal places of a fiat amount.
	FiatPrecision = 2
)

// SatsToBTC converts an amount in satoshis to bitcoin.
func SatsToBTC(sats uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(sats), -BtcPrecision)
}

// FiatValue returns the value of sats at the given BTC price, rounded to
// cents.
func FiatValue(sats uint64, price decimal.Decimal) decimal.Decimal {
	return SatsToBTC(sats).Mul(price).Round(FiatPrecision)
}
