package favstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coindeck/coindeck_backend/internal/core/ports"
)

// PgxStore persists favorite sets in Postgres, one row per client with the
// ids as a jsonb array. Schema is managed by the migrations directory.
type PgxStore struct {
	pool *pgxpool.Pool
}

// NewPgxStore creates a Postgres-backed favorites store.
func NewPgxStore(pool *pgxpool.Pool) *PgxStore {
	return &PgxStore{pool: pool}
}

// LoadFavorites returns the stored ids for a client, or an empty slice when
// the client has no row yet.
func (s *PgxStore) LoadFavorites(ctx context.Context, clientID string) ([]string, error) {
	query := `
		SELECT coin_ids
		FROM favorites
		WHERE client_id = $1;
	`
	var ids []string
	err := s.pool.QueryRow(ctx, query, clientID).Scan(&ids)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load favorites for client %s: %w", clientID, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// SaveFavorites upserts the favorite ids for a client.
func (s *PgxStore) SaveFavorites(ctx context.Context, clientID string, coinIDs []string) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO favorites (client_id, coin_ids, created_at, last_updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (client_id) DO UPDATE SET
			coin_ids = EXCLUDED.coin_ids,
			last_updated_at = EXCLUDED.last_updated_at;
	`
	if coinIDs == nil {
		coinIDs = []string{}
	}
	if _, err := s.pool.Exec(ctx, query, clientID, coinIDs, now); err != nil {
		return fmt.Errorf("failed to save favorites for client %s: %w", clientID, err)
	}
	return nil
}

var _ ports.FavoriteRepository = (*PgxStore)(nil)
