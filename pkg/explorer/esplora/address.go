package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/waybar-scripts/walletbar/pkg/explorer"
)

func (e *esplora) GetAddressStats(
	ctx context.Context, address string,
) (*explorer.AddressStats, error) {
	body, err := e.get(ctx, fmt.Sprintf("/address/%s", url.PathEscape(address)))
	if err != nil {
		return nil, err
	}

	stats := &explorer.AddressStats{}
	if err := json.Unmarshal(body, stats); err != nil {
		return nil, fmt.Errorf("invalid address stats for %s: %w", address, err)
	}
	return stats, nil
}

func (e *esplora) GetAddressBalance(
	ctx context.Context, address string,
) (uint64, error) {
	stats, err := e.GetAddressStats(ctx, address)
	if err != nil {
		return 0, err
	}
	return stats.Balance(e.includeMempool), nil
}
