package pricefeederinfra

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/waybar-scripts/walletbar/internal/core/domain"
	"github.com/waybar-scripts/walletbar/internal/core/ports"
	pricefeeder "github.com/waybar-scripts/walletbar/pkg/price-feeder"
)

// ErrPricesUnavailable is returned when no source could price any quote.
var ErrPricesUnavailable = errors.New("no price source available")

type priceFeederService struct {
	feeders []pricefeeder.PriceFeeder
	now     func() time.Time
}

// NewService returns a ports.PriceFeeder that asks the given sources in
// order and keeps, for every quote, the first price obtained.
func NewService(feeders ...pricefeeder.PriceFeeder) (ports.PriceFeeder, error) {
	if len(feeders) == 0 {
		return nil, fmt.Errorf("at least one price source is required")
	}
	return &priceFeederService{feeders, time.Now}, nil
}

func (p *priceFeederService) GetPrices(
	ctx context.Context, quotes []string,
) (*domain.PriceSnapshot, error) {
	snapshot := &domain.PriceSnapshot{
		Prices: make(map[string]decimal.Decimal, len(quotes)),
	}
	sources := make([]string, 0, len(p.feeders))

	for _, quote := range quotes {
		for _, feeder := range p.feeders {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			price, err := feeder.GetPrice(ctx, pricefeeder.Market{
				BaseAsset:  domain.BaseAsset,
				QuoteAsset: quote,
			})
			if err != nil {
				log.WithError(err).WithFields(log.Fields{
					"source": feeder.Name(),
					"quote":  quote,
				}).Warn("failed to fetch price")
				continue
			}
			if !price.IsPositive() {
				continue
			}

			snapshot.Prices[quote] = price
			sources = appendUnique(sources, feeder.Name())
			break
		}
	}

	if len(snapshot.Prices) == 0 {
		return nil, ErrPricesUnavailable
	}
	snapshot.Source = strings.Join(sources, ",")
	snapshot.UpdatedAt = p.now().UTC()
	return snapshot, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
