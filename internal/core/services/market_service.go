package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/coindeck/coindeck_backend/internal/adapters/coingecko"
	"github.com/coindeck/coindeck_backend/internal/apperrors"
	"github.com/coindeck/coindeck_backend/internal/core/domain"
	"github.com/coindeck/coindeck_backend/internal/core/ports"
	"github.com/coindeck/coindeck_backend/internal/utils/pacing"
)

const (
	defaultListingTTL      = 2 * time.Minute
	defaultTopLimit        = 250
	defaultMaxRetries      = 3
	defaultRetryDelay      = 2 * time.Second
	defaultRateLimitDelay  = 10 * time.Second
	defaultRefreshInterval = 2 * time.Minute
)

// MarketService owns the listing snapshot cache and the fetch policy against
// the upstream listing endpoint: pacing, pagination, retry/backoff, and
// request coalescing. It is the single writer of the snapshot.
type MarketService struct {
	source ports.MarketDataSource
	pacer  *pacing.Pacer
	logger *slog.Logger

	listingTTL      time.Duration
	topLimit        int
	maxRetries      int
	retryDelay      time.Duration
	rateLimitDelay  time.Duration
	refreshInterval time.Duration

	mu           sync.RWMutex
	snapshot     *domain.Snapshot
	fetchSeq     uint64 // incremented when a fetch starts
	publishedSeq uint64 // seq of the currently published snapshot

	group singleflight.Group

	cbMu      sync.Mutex
	callbacks []func(*domain.Snapshot)
}

// MarketOption configures a MarketService.
type MarketOption func(*MarketService)

// WithListingTTL sets the snapshot freshness window.
func WithListingTTL(ttl time.Duration) MarketOption {
	return func(s *MarketService) { s.listingTTL = ttl }
}

// WithTopLimit sets the minimum snapshot size a refresh fetches.
func WithTopLimit(n int) MarketOption {
	return func(s *MarketService) { s.topLimit = n }
}

// WithRetryPolicy sets the per-page retry ceiling and the delay units for
// transient errors (linear) and upstream rate limiting (escalating, longer).
func WithRetryPolicy(maxRetries int, retryDelay, rateLimitDelay time.Duration) MarketOption {
	return func(s *MarketService) {
		s.maxRetries = maxRetries
		s.retryDelay = retryDelay
		s.rateLimitDelay = rateLimitDelay
	}
}

// WithRefreshInterval sets the background refresher period; zero disables it.
func WithRefreshInterval(d time.Duration) MarketOption {
	return func(s *MarketService) { s.refreshInterval = d }
}

// WithMarketLogger sets the service logger.
func WithMarketLogger(logger *slog.Logger) MarketOption {
	return func(s *MarketService) { s.logger = logger }
}

// NewMarketService creates the market service. pacer is the shared upstream
// request pacer, also consumed by the favorites service.
func NewMarketService(source ports.MarketDataSource, pacer *pacing.Pacer, opts ...MarketOption) *MarketService {
	s := &MarketService{
		source:          source,
		pacer:           pacer,
		logger:          slog.Default(),
		listingTTL:      defaultListingTTL,
		topLimit:        defaultTopLimit,
		maxRetries:      defaultMaxRetries,
		retryDelay:      defaultRetryDelay,
		rateLimitDelay:  defaultRateLimitDelay,
		refreshInterval: defaultRefreshInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetTopCurrencies returns up to limit ranked records, serving from cache
// whenever the snapshot is fresh. A stale snapshot is always preferred over
// an error; apperrors.ErrDataUnavailable is returned only when nothing has
// ever been fetched successfully.
func (s *MarketService) GetTopCurrencies(ctx context.Context, limit int) ([]domain.CurrencyRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be >= 1, got %d", apperrors.ErrValidation, limit)
	}

	if snap := s.Snapshot(); snap != nil && snap.Fresh(s.listingTTL) {
		return snap.Top(limit), nil
	}

	if !s.pacer.Elapsed() {
		// Too soon for another upstream call: serve stale data when we have
		// any; only a cold cache is worth waiting out the interval for.
		if snap := s.Snapshot(); snap != nil {
			return snap.Top(limit), nil
		}
		if err := s.pacer.Wait(ctx); err != nil {
			return nil, err
		}
	}

	snap, err := s.refresh(ctx, limit)
	if err != nil {
		if stale := s.Snapshot(); stale != nil {
			s.logger.Warn("Listing refresh failed, serving stale snapshot",
				slog.Duration("age", stale.Age()),
				slog.String("error", err.Error()),
			)
			return stale.Top(limit), nil
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDataUnavailable, err)
	}
	return snap.Top(limit), nil
}

// Snapshot returns the currently published snapshot, or nil before the first
// successful fetch. The returned snapshot is immutable.
func (s *MarketService) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// OnRefresh registers a callback invoked with each newly published snapshot.
func (s *MarketService) OnRefresh(fn func(*domain.Snapshot)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// StartRefresher polls the upstream periodically until ctx is done,
// publishing each successful snapshot and notifying OnRefresh subscribers.
func (s *MarketService) StartRefresher(ctx context.Context) {
	if s.refreshInterval <= 0 {
		return
	}
	go func() {
		if _, err := s.refresh(ctx, s.topLimit); err != nil {
			s.logger.Warn("Initial snapshot refresh failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(s.refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Snapshot refresher stopped")
				return
			case <-ticker.C:
				if _, err := s.refresh(ctx, s.topLimit); err != nil {
					s.logger.Warn("Snapshot refresh failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// refresh coalesces concurrent callers onto a single in-flight fetch and
// fans its result out (at-most-one-fetch-in-flight).
func (s *MarketService) refresh(ctx context.Context, limit int) (*domain.Snapshot, error) {
	if limit < s.topLimit {
		limit = s.topLimit
	}
	v, err, _ := s.group.Do("listing", func() (interface{}, error) {
		seq := s.nextFetchSeq()
		snap, err := s.fetchSnapshot(ctx, limit)
		if err != nil {
			return nil, err
		}
		s.publish(snap, seq)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Snapshot), nil
}

// nextFetchSeq tags a starting fetch with a monotonic sequence number so a
// superseded fetch's result can be discarded at publish time.
func (s *MarketService) nextFetchSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchSeq++
	return s.fetchSeq
}

// fetchSnapshot aggregates however many pages satisfy limit, assigning rank
// sequentially across pages in fetch order. The cache is untouched until
// every required page has succeeded.
func (s *MarketService) fetchSnapshot(ctx context.Context, limit int) (*domain.Snapshot, error) {
	perPage := limit
	if perPage > coingecko.MaxPerPage {
		perPage = coingecko.MaxPerPage
	}
	numPages := (limit + perPage - 1) / perPage

	records := make([]domain.CurrencyRecord, 0, limit)
	for page := 1; page <= numPages; page++ {
		pageRecords, err := s.fetchPageWithRetry(ctx, page, perPage)
		if err != nil {
			return nil, err
		}
		if len(pageRecords) == 0 {
			// Ran off the end of the upstream listing.
			break
		}
		records = append(records, pageRecords...)
	}
	if len(records) > limit {
		records = records[:limit]
	}
	for i := range records {
		records[i].Rank = i + 1
	}

	return &domain.Snapshot{Records: records, FetchedAt: time.Now()}, nil
}

// fetchPageWithRetry retries one page up to the retry ceiling. Transient
// failures wait a linearly increasing delay; upstream rate limiting waits an
// escalating, longer delay. A failed page never restarts already fetched
// pages.
func (s *MarketService) fetchPageWithRetry(ctx context.Context, page, perPage int) ([]domain.CurrencyRecord, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * s.retryDelay
			if errors.Is(lastErr, apperrors.ErrRateLimited) {
				delay = time.Duration(attempt) * s.rateLimitDelay
			}
			s.logger.Warn("Retrying listing page",
				slog.Int("page", page),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("error", lastErr.Error()),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		s.pacer.Record()
		records, err := s.source.MarketsPage(ctx, page, perPage)
		if err == nil {
			return records, nil
		}
		lastErr = err
		if !errors.Is(err, apperrors.ErrTransient) && !errors.Is(err, apperrors.ErrRateLimited) {
			// Not a retryable class of failure.
			return nil, err
		}
	}
	return nil, lastErr
}

// publish replaces the cached snapshot atomically. A snapshot from a fetch
// that started before the currently published one is discarded so an older
// in-flight response can never overwrite newer data.
func (s *MarketService) publish(snap *domain.Snapshot, seq uint64) {
	s.mu.Lock()
	if seq < s.publishedSeq {
		s.mu.Unlock()
		return
	}
	s.publishedSeq = seq
	s.snapshot = snap
	s.mu.Unlock()

	s.cbMu.Lock()
	callbacks := make([]func(*domain.Snapshot), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.cbMu.Unlock()
	for _, fn := range callbacks {
		fn(snap)
	}
}
