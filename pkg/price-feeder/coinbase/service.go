package coinbasefeeder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/waybar-scripts/walletbar/pkg/httputil"
	pricefeeder "github.com/waybar-scripts/walletbar/pkg/price-feeder"
)

const (
	// BaseURL is the coinbase public API endpoint.
	BaseURL = "https://api.coinbase.com"
)

var wellKnownMarkets = []pricefeeder.Market{
	{BaseAsset: "BTC", QuoteAsset: "USD", Ticker: "BTC-USD"},
	{BaseAsset: "BTC", QuoteAsset: "EUR", Ticker: "BTC-EUR"},
}

type spotResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Base     string `json:"base"`
		Currency string `json:"currency"`
	} `json:"data"`
}

type service struct {
	baseURL string
	client  *httputil.Client
}

// NewService returns a coinbase price feeder. An empty baseURL defaults to
// BaseURL.
func NewService(baseURL string, client *httputil.Client) pricefeeder.PriceFeeder {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if client == nil {
		client = httputil.NewClient(httputil.DefaultTimeout, nil)
	}
	return &service{strings.TrimRight(baseURL, "/"), client}
}

func (s *service) Name() string {
	return "coinbase"
}

func (s *service) WellKnownMarkets() []pricefeeder.Market {
	return wellKnownMarkets
}

func (s *service) GetPrice(
	ctx context.Context, market pricefeeder.Market,
) (decimal.Decimal, error) {
	ticker := market.Ticker
	if ticker == "" {
		ticker = fmt.Sprintf(
			"%s-%s",
			strings.ToUpper(market.BaseAsset), strings.ToUpper(market.QuoteAsset),
		)
	}

	url := fmt.Sprintf("%s/v2/prices/%s/spot", s.baseURL, ticker)
	body, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	var resp spotResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrMalformedResponse, err)
	}
	price, err := decimal.NewFromString(resp.Data.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf(
			"%w: amount %q for %s", pricefeeder.ErrMalformedResponse, resp.Data.Amount, ticker,
		)
	}
	return price, nil
}
