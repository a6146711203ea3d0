package krakenfeeder

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
	// BaseURL is the kraken public REST API endpoint.
	BaseURL = "https://api.kraken.com"
)

var wellKnownMarkets = []pricefeeder.Market{
	{BaseAsset: "BTC", QuoteAsset: "USD", Ticker: "XBTUSD"},
	{BaseAsset: "BTC", QuoteAsset: "EUR", Ticker: "XBTEUR"},
}

// tickerResponse is the payload of /0/public/Ticker. Result is keyed by the
// kraken internal pair name (ie. XXBTZUSD) which differs from the requested
// one.
type tickerResponse struct {
	Error  []string `json:"error"`
	Result map[string]struct {
		// LastTrade is [price, lot volume].
		LastTrade []string `json:"c"`
	} `json:"result"`
}

type service struct {
	baseURL string
	client  *httputil.Client
}

// NewService returns a kraken price feeder. An empty baseURL defaults to
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
	return "kraken"
}

func (s *service) WellKnownMarkets() []pricefeeder.Market {
	return wellKnownMarkets
}

func (s *service) GetPrice(
	ctx context.Context, market pricefeeder.Market,
) (decimal.Decimal, error) {
	ticker := market.Ticker
	if ticker == "" {
		mkt, ok := pricefeeder.FindMarket(
			wellKnownMarkets, market.BaseAsset, market.QuoteAsset,
		)
		if !ok {
			return decimal.Zero, fmt.Errorf(
				"%w: %s/%s", pricefeeder.ErrUnknownMarket,
				market.BaseAsset, market.QuoteAsset,
			)
		}
		ticker = mkt.Ticker
	}

	url := fmt.Sprintf("%s/0/public/Ticker?pair=%s", s.baseURL, ticker)
	body, err := s.client.Get(ctx, url, nil)
	if err != nil {
		return decimal.Zero, err
	}

	var resp tickerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", pricefeeder.ErrMalformedResponse, err)
	}
	if len(resp.Error) > 0 {
		return decimal.Zero, fmt.Errorf("kraken: %s", strings.Join(resp.Error, ", "))
	}

	for _, pair := range resp.Result {
		if len(pair.LastTrade) == 0 {
			break
		}
		price, err := decimal.NewFromString(pair.LastTrade[0])
		if err != nil {
			break
		}
		return price, nil
	}
	return decimal.Zero, fmt.Errorf(
		"%w: no last trade price for %s", pricefeeder.ErrMalformedResponse, ticker,
	)
}
