package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/coindeck/coindeck_backend/internal/apperrors"
	"github.com/coindeck/coindeck_backend/internal/core/domain"
	"github.com/coindeck/coindeck_backend/internal/core/ports"
	"github.com/coindeck/coindeck_backend/internal/utils/pacing"
)

// favoriteBatchLimit bounds how many off-snapshot favorites one reconciling
// request resolves.
const favoriteBatchLimit = 50

// FavoritesService manages per-client favorite sets and reconciles them
// against the listing snapshot, fetching the handful of favorites that fall
// outside the top-N listing.
type FavoritesService struct {
	source    ports.MarketDataSource
	repo      ports.FavoriteRepository
	snapshots SnapshotProvider
	pacer     *pacing.Pacer
	logger    *slog.Logger
}

// NewFavoritesService creates the favorites service. pacer is the listing
// pacer shared with MarketService: reconciliation spends the same upstream
// request budget.
func NewFavoritesService(source ports.MarketDataSource, repo ports.FavoriteRepository, snapshots SnapshotProvider, pacer *pacing.Pacer, logger *slog.Logger) *FavoritesService {
	if logger == nil {
		logger = slog.Default()
	}
	return &FavoritesService{
		source:    source,
		repo:      repo,
		snapshots: snapshots,
		pacer:     pacer,
		logger:    logger,
	}
}

// ListFavorites returns the raw favorite coin ids for a client.
func (s *FavoritesService) ListFavorites(ctx context.Context, clientID string) ([]string, error) {
	if err := validateClientID(clientID); err != nil {
		return nil, err
	}
	return s.repo.LoadFavorites(ctx, clientID)
}

// AddFavorite adds a coin id to the client's favorite set. Adding an id that
// is already present is a no-op.
func (s *FavoritesService) AddFavorite(ctx context.Context, clientID, coinID string) error {
	if err := validateClientID(clientID); err != nil {
		return err
	}
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return fmt.Errorf("%w: coin id must not be empty", apperrors.ErrValidation)
	}

	ids, err := s.repo.LoadFavorites(ctx, clientID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == coinID {
			return nil
		}
	}
	return s.repo.SaveFavorites(ctx, clientID, append(ids, coinID))
}

// RemoveFavorite removes a coin id from the client's favorite set. Removing
// an id that is not present is a no-op.
func (s *FavoritesService) RemoveFavorite(ctx context.Context, clientID, coinID string) error {
	if err := validateClientID(clientID); err != nil {
		return err
	}

	ids, err := s.repo.LoadFavorites(ctx, clientID)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, id := range ids {
		if id != coinID {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	return s.repo.SaveFavorites(ctx, clientID, kept)
}

// FavoritesOverview returns full records for every favorite: snapshot rows
// for favorites inside the listing, plus individually resolved records for
// the rest, ordered by rank.
func (s *FavoritesService) FavoritesOverview(ctx context.Context, clientID string) ([]domain.CurrencyRecord, error) {
	ids, err := s.ListFavorites(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.CurrencyRecord{}, nil
	}

	favoriteSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		favoriteSet[id] = struct{}{}
	}

	snap := s.snapshots.Snapshot()
	records := make([]domain.CurrencyRecord, 0, len(ids))
	if snap != nil {
		for _, r := range snap.Records {
			if _, ok := favoriteSet[r.ID]; ok {
				records = append(records, r)
			}
		}
	}

	resolved, err := s.ResolveMissing(ctx, ids, snap)
	if err != nil {
		return nil, err
	}
	records = append(records, resolved...)

	// Unranked records (upstream reported no market cap rank) sort last.
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := records[i].Rank, records[j].Rank
		if ri == 0 {
			return false
		}
		if rj == 0 {
			return true
		}
		return ri < rj
	})
	return records, nil
}

// ResolveMissing fetches records for favorites absent from the snapshot in
// one bounded batch request. Best effort: it returns an empty result rather
// than blocking when the shared inter-request interval has not elapsed, and
// upstream failures degrade to an empty result instead of an error. IDs
// unknown upstream are silently dropped.
func (s *FavoritesService) ResolveMissing(ctx context.Context, favoriteIDs []string, snapshot *domain.Snapshot) ([]domain.CurrencyRecord, error) {
	var inSnapshot map[string]struct{}
	if snapshot != nil {
		inSnapshot = snapshot.IDSet()
	}

	missing := make([]string, 0, len(favoriteIDs))
	for _, id := range favoriteIDs {
		if _, ok := inSnapshot[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return []domain.CurrencyRecord{}, nil
	}
	if len(missing) > favoriteBatchLimit {
		missing = missing[:favoriteBatchLimit]
	}

	if !s.pacer.Elapsed() {
		// Never block the primary UI for favorite enrichment.
		return []domain.CurrencyRecord{}, nil
	}

	s.pacer.Record()
	records, err := s.source.MarketsByIDs(ctx, missing)
	if err != nil {
		s.logger.Warn("Favorite reconciliation fetch failed",
			slog.Int("missing", len(missing)),
			slog.String("error", err.Error()),
		)
		return []domain.CurrencyRecord{}, nil
	}
	return records, nil
}

func validateClientID(clientID string) error {
	if strings.TrimSpace(clientID) == "" {
		return fmt.Errorf("%w: client id must not be empty", apperrors.ErrValidation)
	}
	return nil
}
