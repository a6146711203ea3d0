package ports

import (
	"context"

	"github.com/waybar-scripts/walletbar/internal/core/domain"
)

// PriceFeeder returns a snapshot of the BTC price in the given quotes.
// Quotes that could not be fetched are left out of the snapshot; an error is
// returned only if none could.
type PriceFeeder interface {
	GetPrices(ctx context.Context, quotes []string) (*domain.PriceSnapshot, error)
}
