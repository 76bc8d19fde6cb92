// Package favstore provides the pluggable key-value backends that persist a
// client's favorite coin ids, plus a chain that tries them in order. The
// services never depend on which backend is active.
package favstore

import (
	"context"
	"sync"

	"github.com/coindeck/coindeck_backend/internal/core/ports"
)

// MemoryStore keeps favorite sets in process memory. It is always available
// and acts as the last backend in the chain; contents are lost on restart.
type MemoryStore struct {
	mu        sync.RWMutex
	favorites map[string][]string
}

// NewMemoryStore creates an empty in-memory favorites store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{favorites: make(map[string][]string)}
}

// LoadFavorites returns the stored ids for a client, or an empty slice.
func (s *MemoryStore) LoadFavorites(_ context.Context, clientID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.favorites[clientID]
	if !ok {
		return []string{}, nil
	}
	// Copy so callers cannot mutate the stored slice.
	out := make([]string, len(stored))
	copy(out, stored)
	return out, nil
}

// SaveFavorites replaces the stored ids for a client.
func (s *MemoryStore) SaveFavorites(_ context.Context, clientID string, coinIDs []string) error {
	stored := make([]string, len(coinIDs))
	copy(stored, coinIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.favorites[clientID] = stored
	return nil
}

var _ ports.FavoriteRepository = (*MemoryStore)(nil)
