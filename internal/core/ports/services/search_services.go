package services

import (
	"context"

	"github.com/coindeck/coindeck_backend/internal/core/domain"
)

// SearchSvcFacade answers interactive queries against the cached snapshot.
type SearchSvcFacade interface {
	// Search filters and ranks the cached listing for the query, with a
	// bounded fallback to the upstream full-text search when local results
	// are empty. Network failures degrade to local-only results; the only
	// errors returned are programming errors.
	Search(ctx context.Context, query string) ([]domain.CurrencyRecord, error)
}
