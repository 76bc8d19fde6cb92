package ports

import (
	"context"

	"github.com/coindeck/coindeck_backend/internal/core/domain"
)

// Note: Context is included on every method for cancellation/timeouts.

// MarketDataSource abstracts the upstream market-data API. Implementations
// must classify failures with apperrors.ErrRateLimited (HTTP 429) or
// apperrors.ErrTransient (timeout, network error, 5xx) so the services can
// apply the right retry policy.
type MarketDataSource interface {
	// MarketsPage fetches one page of the ranked-by-market-cap listing.
	// page is 1-based; perPage is bounded by the upstream page-size maximum.
	MarketsPage(ctx context.Context, page, perPage int) ([]domain.CurrencyRecord, error)

	// MarketsByIDs fetches full market records for a batch of coin ids.
	// IDs unknown upstream are silently absent from the result.
	MarketsByIDs(ctx context.Context, ids []string) ([]domain.CurrencyRecord, error)

	// SearchIDs runs a free-text search upstream and returns candidate coin
	// ids in upstream relevance order.
	SearchIDs(ctx context.Context, query string) ([]string, error)
}

// FavoriteRepository is the key-value persistence contract for a client's
// favorite coin ids. Which backing store answers is invisible to callers;
// backends are attempted in a configured order (see adapters/favstore).
type FavoriteRepository interface {
	// LoadFavorites returns the stored favorite ids for a client, or an
	// empty slice when the client has none.
	LoadFavorites(ctx context.Context, clientID string) ([]string, error)

	// SaveFavorites replaces the stored favorite ids for a client.
	SaveFavorites(ctx context.Context, clientID string, coinIDs []string) error
}
