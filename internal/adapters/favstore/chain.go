package favstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coindeck/coindeck_backend/internal/core/ports"
)

// Chain tries an ordered list of favorite stores. Reads come from the first
// backend that answers; writes go through to every backend so a durable
// store that was temporarily down can catch up on the next save.
type Chain struct {
	backends []namedBackend
	logger   *slog.Logger
}

type namedBackend struct {
	name string
	repo ports.FavoriteRepository
}

// NewChain creates a chain over the given backends in priority order.
func NewChain(logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{logger: logger}
}

// Append adds a backend at the end of the chain.
func (c *Chain) Append(name string, repo ports.FavoriteRepository) {
	c.backends = append(c.backends, namedBackend{name: name, repo: repo})
}

// Len returns the number of configured backends.
func (c *Chain) Len() int {
	return len(c.backends)
}

// LoadFavorites returns the first successful read, skipping failing
// backends with a warning. All backends failing is an error.
func (c *Chain) LoadFavorites(ctx context.Context, clientID string) ([]string, error) {
	var lastErr error
	for _, b := range c.backends {
		ids, err := b.repo.LoadFavorites(ctx, clientID)
		if err == nil {
			return ids, nil
		}
		lastErr = err
		c.logger.Warn("Favorites backend read failed, trying next",
			slog.String("backend", b.name),
			slog.String("error", err.Error()),
		)
	}
	if lastErr == nil {
		return nil, fmt.Errorf("no favorites backends configured")
	}
	return nil, fmt.Errorf("all favorites backends failed: %w", lastErr)
}

// SaveFavorites writes through to every backend. The save succeeds if at
// least one backend accepted it.
func (c *Chain) SaveFavorites(ctx context.Context, clientID string, coinIDs []string) error {
	var lastErr error
	saved := false
	for _, b := range c.backends {
		if err := b.repo.SaveFavorites(ctx, clientID, coinIDs); err != nil {
			lastErr = err
			c.logger.Warn("Favorites backend write failed",
				slog.String("backend", b.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		saved = true
	}
	if !saved {
		if lastErr == nil {
			return fmt.Errorf("no favorites backends configured")
		}
		return fmt.Errorf("all favorites backends rejected the write: %w", lastErr)
	}
	return nil
}

var _ ports.FavoriteRepository = (*Chain)(nil)
