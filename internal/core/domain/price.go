package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// BaseAsset is the only asset whose balance is tracked.
	BaseAsset = "BTC"
	// QuoteUSD ...
	QuoteUSD = "USD"
	// QuoteEUR ...
	QuoteEUR = "EUR"
)

// Quotes lists the fiat currencies shown next to balances.
var Quotes = []string{QuoteUSD, QuoteEUR}

// PriceSnapshot is the BTC spot price in every quote currency at a given
// time.
type PriceSnapshot struct {
	Source    string                     `json:"source"`
	Prices    map[string]decimal.Decimal `json:"prices"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Price returns the price of 1 BTC in the given quote, zero if unknown.
func (p *PriceSnapshot) Price(quote string) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return p.Prices[quote]
}

// IsZero returns whether the snapshot carries no usable price.
func (p *PriceSnapshot) IsZero() bool {
	if p == nil {
		return true
	}
	for _, price := range p.Prices {
		if price.IsPositive() {
			return false
		}
	}
	return true
}

// IsFresh returns whether the snapshot is younger than ttl.
func (p *PriceSnapshot) IsFresh(ttl time.Duration, now time.Time) bool {
	if p.IsZero() || ttl <= 0 {
		return false
	}
	return now.Sub(p.UpdatedAt) <= ttl
}

func (p *PriceSnapshot) Clone() *PriceSnapshot {
	if p == nil {
		return nil
	}
	prices := make(map[string]decimal.Decimal, len(p.Prices))
	for quote, price := range p.Prices {
		prices[quote] = price
	}
	return &PriceSnapshot{
		Source:    p.Source,
		Prices:    prices,
		UpdatedAt: p.UpdatedAt,
	}
}
