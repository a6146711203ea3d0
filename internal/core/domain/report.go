package domain

import "time"

// WalletBalance is the outcome of a run for a single wallet.
type WalletBalance struct {
	ID      string
	Name    string
	Balance uint64
	// Partial is set when at least one chain stopped early.
	Partial bool
	// Err is set when the wallet could not be scanned at all and the previous
	// cached entry, if any, was reported instead.
	Err error
}

// Report is what a run hands over to the presentation layer.
type Report struct {
	RunID     string
	Mode      ScanMode
	Wallets   []WalletBalance
	Price     *PriceSnapshot
	UpdatedAt time.Time
}

// TotalBalance returns the sum of all wallet balances in satoshis.
func (r *Report) TotalBalance() uint64 {
	var total uint64
	for _, w := range r.Wallets {
		total += w.Balance
	}
	return total
}

// IsPartial returns whether any wallet was only partially scanned or failed.
func (r *Report) IsPartial() bool {
	for _, w := range r.Wallets {
		if w.Partial || w.Err != nil {
			return true
		}
	}
	return false
}
