package services

import (
	"log/slog"

	"github.com/coindeck/coindeck_backend/internal/core/ports"
	portssvc "github.com/coindeck/coindeck_backend/internal/core/ports/services"
	"github.com/coindeck/coindeck_backend/internal/platform/config"
	"github.com/coindeck/coindeck_backend/internal/utils/pacing"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies. The listing pacer is shared between the market
// and favorites services (same upstream request budget); remote search is
// paced separately.
func NewServiceContainer(cfg *config.Config, source ports.MarketDataSource, favRepo ports.FavoriteRepository, logger *slog.Logger) *portssvc.ServiceContainer {
	if logger == nil {
		logger = slog.Default()
	}

	listingPacer := pacing.NewPacer(cfg.MinRequestInterval)
	searchPacer := pacing.NewPacer(cfg.SearchMinInterval)

	market := NewMarketService(source, listingPacer,
		WithListingTTL(cfg.ListingTTL),
		WithTopLimit(cfg.SnapshotSize),
		WithRefreshInterval(cfg.RefreshInterval),
		WithMarketLogger(logger),
	)

	return &portssvc.ServiceContainer{
		Market:    market,
		Search:    NewSearchService(source, market, searchPacer, WithSearchTTL(cfg.SearchTTL), WithSearchLogger(logger)),
		Favorites: NewFavoritesService(source, favRepo, market, listingPacer, logger),
	}
}

// Compile-time interface checks.
var (
	_ portssvc.MarketSvcFacade   = (*MarketService)(nil)
	_ portssvc.SearchSvcFacade   = (*SearchService)(nil)
	_ portssvc.FavoriteSvcFacade = (*FavoritesService)(nil)
)
