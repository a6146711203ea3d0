package pricefeeder

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownMarket is returned for markets the source does not list.
	ErrUnknownMarket = errors.New("market not supported by price source")
	// ErrMalformedResponse is returned when the source answers with something
	// that does not contain a valid price.
	ErrMalformedResponse = errors.New("malformed price response")
)

// PriceFeeder fetches spot prices from a single source over REST.
type PriceFeeder interface {
	// Name returns the name of the price source.
	Name() string
	// WellKnownMarkets returns the markets the source is known to list.
	WellKnownMarkets() []Market
	// GetPrice returns how much 1 unit of base asset is valued in quote asset.
	GetPrice(ctx context.Context, market Market) (decimal.Decimal, error)
}

type Market struct {
	BaseAsset  string
	QuoteAsset string
	Ticker     string
}

// FindMarket returns the market of the list matching base and quote assets,
// case insensitive.
func FindMarket(markets []Market, base, quote string) (Market, bool) {
	for _, mkt := range markets {
		if strings.EqualFold(mkt.BaseAsset, base) &&
			strings.EqualFold(mkt.QuoteAsset, quote) {
			return mkt, true
		}
	}
	return Market{}, false
}
