package services

import (
	"context"

	"github.com/coindeck/coindeck_backend/internal/core/domain"
)

// FavoriteReaderSvc defines read operations over a client's favorite set.
type FavoriteReaderSvc interface {
	// ListFavorites returns the raw favorite coin ids for a client.
	ListFavorites(ctx context.Context, clientID string) ([]string, error)

	// FavoritesOverview returns full records for every favorite, combining
	// snapshot rows with individually resolved off-snapshot favorites,
	// ordered by rank.
	FavoritesOverview(ctx context.Context, clientID string) ([]domain.CurrencyRecord, error)

	// ResolveMissing fetches records for favorites absent from the given
	// snapshot. Best effort: returns an empty slice rather than blocking
	// when the upstream request budget is exhausted.
	ResolveMissing(ctx context.Context, favoriteIDs []string, snapshot *domain.Snapshot) ([]domain.CurrencyRecord, error)
}

// FavoriteWriterSvc defines membership mutations of a client's favorite set.
type FavoriteWriterSvc interface {
	AddFavorite(ctx context.Context, clientID, coinID string) error
	RemoveFavorite(ctx context.Context, clientID, coinID string) error
}

// FavoriteSvcFacade combines all favorites-related service interfaces.
type FavoriteSvcFacade interface {
	FavoriteReaderSvc
	FavoriteWriterSvc
}
