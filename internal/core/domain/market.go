package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyRecord is one market snapshot row for a tradeable asset, as served
// to the dashboard. All monetary fields are serialized as decimal strings.
type CurrencyRecord struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	Symbol            string           `json:"symbol"`
	Rank              int              `json:"rank"`
	PriceUSD          decimal.Decimal  `json:"priceUsd"`
	PercentChange24h  decimal.Decimal  `json:"percentChange24h"`
	MarketCapUSD      decimal.Decimal  `json:"marketCapUsd"`
	Volume24hUSD      decimal.Decimal  `json:"volume24hUsd"`
	CirculatingSupply decimal.Decimal  `json:"circulatingSupply"`
	MaxSupply         *decimal.Decimal `json:"maxSupply,omitempty"` // nil when the asset is uncapped
}

// Snapshot is one complete, internally consistent set of ranked currency
// records produced by a single fetch cycle. Snapshots are immutable once
// published; a refresh replaces the whole snapshot atomically.
type Snapshot struct {
	Records   []CurrencyRecord
	FetchedAt time.Time
}

// Age returns how long ago the snapshot was fetched.
func (s *Snapshot) Age() time.Duration {
	return time.Since(s.FetchedAt)
}

// Fresh reports whether the snapshot is younger than the given TTL.
func (s *Snapshot) Fresh(ttl time.Duration) bool {
	return s.Age() <= ttl
}

// Top returns up to limit records from the snapshot without copying the
// underlying array. Callers must not mutate the result.
func (s *Snapshot) Top(limit int) []CurrencyRecord {
	if limit >= len(s.Records) {
		return s.Records
	}
	return s.Records[:limit]
}

// IDSet returns the set of record IDs contained in the snapshot.
func (s *Snapshot) IDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Records))
	for _, r := range s.Records {
		ids[r.ID] = struct{}{}
	}
	return ids
}
