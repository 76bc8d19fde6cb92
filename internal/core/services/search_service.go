package services

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/coindeck/coindeck_backend/internal/core/domain"
	"github.com/coindeck/coindeck_backend/internal/core/ports"
	"github.com/coindeck/coindeck_backend/internal/utils/pacing"
)

const (
	defaultSearchTTL = 7 * time.Minute

	maxSearchResults = 20 // result ceiling after tier concatenation
	minQueryLen      = 2  // below this, no search at all
	minRemoteLen     = 3  // below this, never go remote
	remoteBatchSize  = 10 // top remote hits resolved to market data
)

// SnapshotProvider supplies the last-known listing snapshot for local
// ranking. Implemented by MarketService.
type SnapshotProvider interface {
	Snapshot() *domain.Snapshot
}

// SearchService answers interactive queries against the cached snapshot with
// a tiered relevance policy, falling back to the upstream full-text search
// only when local results are empty and the remote request budget allows.
type SearchService struct {
	source    ports.MarketDataSource
	snapshots SnapshotProvider
	pacer     *pacing.Pacer
	logger    *slog.Logger

	searchTTL time.Duration

	mu    sync.Mutex
	cache map[string]searchCacheEntry
}

type searchCacheEntry struct {
	records   []domain.CurrencyRecord
	fetchedAt time.Time
}

// SearchOption configures a SearchService.
type SearchOption func(*SearchService)

// WithSearchTTL sets the per-query cache TTL.
func WithSearchTTL(ttl time.Duration) SearchOption {
	return func(s *SearchService) { s.searchTTL = ttl }
}

// WithSearchLogger sets the service logger.
func WithSearchLogger(logger *slog.Logger) SearchOption {
	return func(s *SearchService) { s.logger = logger }
}

// NewSearchService creates the search service. pacer paces the remote search
// endpoint and is distinct from the listing pacer.
func NewSearchService(source ports.MarketDataSource, snapshots SnapshotProvider, pacer *pacing.Pacer, opts ...SearchOption) *SearchService {
	s := &SearchService{
		source:    source,
		snapshots: snapshots,
		pacer:     pacer,
		logger:    slog.Default(),
		searchTTL: defaultSearchTTL,
		cache:     make(map[string]searchCacheEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search never returns an error for network failures: exhausted or failed
// remote lookups degrade to whatever local results were available.
func (s *SearchService) Search(ctx context.Context, query string) ([]domain.CurrencyRecord, error) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return []domain.CurrencyRecord{}, nil
	}

	if cached, ok := s.cachedResult(normalized); ok {
		return cached, nil
	}

	if len(normalized) < minQueryLen {
		return []domain.CurrencyRecord{}, nil
	}

	var local []domain.CurrencyRecord
	if snap := s.snapshots.Snapshot(); snap != nil {
		local = rankTiers(snap.Records, normalized)
	}
	if len(local) > maxSearchResults {
		local = local[:maxSearchResults]
	}
	if len(local) > 0 {
		s.cacheResult(normalized, local)
		return local, nil
	}

	if len(normalized) < minRemoteLen || !s.pacer.Elapsed() {
		return local, nil
	}

	merged, ok := s.searchRemote(ctx, normalized, local)
	if !ok {
		return local, nil
	}
	s.cacheResult(normalized, merged)
	return merged, nil
}

// searchRemote resolves upstream search hits to market records and merges
// them with local results. Returns ok=false when the upstream failed and the
// caller should degrade to local-only results.
func (s *SearchService) searchRemote(ctx context.Context, query string, local []domain.CurrencyRecord) ([]domain.CurrencyRecord, bool) {
	s.pacer.Record()
	ids, err := s.source.SearchIDs(ctx, query)
	if err != nil {
		s.logger.Warn("Remote search failed, degrading to local results",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if len(ids) > remoteBatchSize {
		ids = ids[:remoteBatchSize]
	}
	if len(ids) == 0 {
		return local, true
	}

	s.pacer.Record()
	remote, err := s.source.MarketsByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Remote market lookup failed, degrading to local results",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	merged := make([]domain.CurrencyRecord, 0, len(local)+len(remote))
	seen := make(map[string]struct{}, len(local)+len(remote))
	for _, r := range append(append([]domain.CurrencyRecord{}, local...), remote...) {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].MarketCapUSD.GreaterThan(merged[j].MarketCapUSD)
	})
	if len(merged) > maxSearchResults {
		merged = merged[:maxSearchResults]
	}
	return merged, true
}

func (s *SearchService) cachedResult(key string) ([]domain.CurrencyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[key]
	if !ok || time.Since(entry.fetchedAt) > s.searchTTL {
		return nil, false
	}
	return entry.records, true
}

func (s *SearchService) cacheResult(key string, records []domain.CurrencyRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = searchCacheEntry{records: records, fetchedAt: time.Now()}
}

// rankTiers orders snapshot records into four relevance tiers: exact
// symbol/name match, symbol prefix, name prefix, then substring. A record
// lands in exactly one tier, so the concatenation holds no duplicates.
func rankTiers(records []domain.CurrencyRecord, query string) []domain.CurrencyRecord {
	var exact, symbolPrefix, namePrefix, substring []domain.CurrencyRecord
	for _, r := range records {
		symbol := strings.ToLower(r.Symbol)
		name := strings.ToLower(r.Name)
		switch {
		case symbol == query || name == query:
			exact = append(exact, r)
		case strings.HasPrefix(symbol, query):
			symbolPrefix = append(symbolPrefix, r)
		case strings.HasPrefix(name, query):
			namePrefix = append(namePrefix, r)
		case strings.Contains(symbol, query) || strings.Contains(name, query):
			substring = append(substring, r)
		}
	}

	out := make([]domain.CurrencyRecord, 0, len(exact)+len(symbolPrefix)+len(namePrefix)+len(substring))
	out = append(out, exact...)
	out = append(out, symbolPrefix...)
	out = append(out, namePrefix...)
	out = append(out, substring...)
	return out
}
