package services

import (
	"context"

	"github.com/coindeck/coindeck_backend/internal/core/domain"
)

// MarketReaderSvc defines read operations against the cached market snapshot.
type MarketReaderSvc interface {
	// GetTopCurrencies returns up to limit records ranked by descending
	// market cap, serving from cache whenever the snapshot is fresh.
	// Returns apperrors.ErrValidation for limit < 1 and
	// apperrors.ErrDataUnavailable only when no snapshot, fresh or stale,
	// has ever been fetched.
	GetTopCurrencies(ctx context.Context, limit int) ([]domain.CurrencyRecord, error)

	// Snapshot returns the last published snapshot, which may be stale or
	// nil when nothing has been fetched yet.
	Snapshot() *domain.Snapshot
}

// MarketRefresherSvc drives background snapshot refreshes.
type MarketRefresherSvc interface {
	// StartRefresher begins periodic snapshot refreshes until ctx is done.
	StartRefresher(ctx context.Context)

	// OnRefresh registers a callback invoked with each newly published
	// snapshot. Used by the websocket stream to fan updates out.
	OnRefresh(fn func(*domain.Snapshot))
}

// MarketSvcFacade combines all market-data service interfaces.
type MarketSvcFacade interface {
	MarketReaderSvc
	MarketRefresherSvc
}
