// Package coingecko implements ports.MarketDataSource against a
// CoinGecko-compatible REST API.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/coindeck/coindeck_backend/internal/apperrors"
	"github.com/coindeck/coindeck_backend/internal/core/domain"
)

const (
	// DefaultBaseURL is the public CoinGecko API root.
	DefaultBaseURL = "https://api.coingecko.com/api/v3"

	// MaxPerPage is the upstream page-size maximum for /coins/markets.
	MaxPerPage = 250

	defaultListingTimeout = 15 * time.Second
	defaultSearchTimeout  = 8 * time.Second

	userAgent = "coindeck-backend/1.0"
)

// Client is a thin HTTP client for the upstream market-data API. It only
// classifies failures; retry and pacing policy live in the services.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	listingTimeout time.Duration
	searchTimeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends the CoinGecko demo API key header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client (used in tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeouts overrides the per-call listing and search timeouts.
func WithTimeouts(listing, search time.Duration) Option {
	return func(c *Client) {
		if listing > 0 {
			c.listingTimeout = listing
		}
		if search > 0 {
			c.searchTimeout = search
		}
	}
}

// NewClient creates a client for the given API root. An empty baseURL selects
// the public CoinGecko endpoint.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{},
		listingTimeout: defaultListingTimeout,
		searchTimeout:  defaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarketsPage fetches one page of the USD listing ordered by descending
// market cap. Rank is taken from the upstream market_cap_rank and is
// reassigned sequentially by the market service when aggregating pages.
func (c *Client) MarketsPage(ctx context.Context, page, perPage int) ([]domain.CurrencyRecord, error) {
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("sparkline", "false")

	return c.fetchMarkets(ctx, q, c.listingTimeout)
}

// MarketsByIDs fetches full market records for a batch of coin ids in one
// request. IDs unknown upstream are silently absent from the result.
func (c *Client) MarketsByIDs(ctx context.Context, ids []string) ([]domain.CurrencyRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("order", "market_cap_desc")
	q.Set("ids", strings.Join(ids, ","))
	q.Set("per_page", strconv.Itoa(MaxPerPage))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	return c.fetchMarkets(ctx, q, c.listingTimeout)
}

// SearchIDs runs the upstream free-text search and returns candidate coin
// ids in upstream relevance order.
func (c *Client) SearchIDs(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("query", query)

	body, err := c.get(ctx, "/search", q, c.searchTimeout)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed search response: %v", apperrors.ErrTransient, err)
	}

	ids := make([]string, 0, len(parsed.Coins))
	for _, coin := range parsed.Coins {
		if coin.ID != "" {
			ids = append(ids, coin.ID)
		}
	}
	return ids, nil
}

func (c *Client) fetchMarkets(ctx context.Context, q url.Values, timeout time.Duration) ([]domain.CurrencyRecord, error) {
	body, err := c.get(ctx, "/coins/markets", q, timeout)
	if err != nil {
		return nil, err
	}

	var items []marketItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: malformed markets response: %v", apperrors.ErrTransient, err)
	}

	records := make([]domain.CurrencyRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toRecord(item))
	}
	return records, nil
}

// get performs one HTTP GET with a bounded timeout and classifies failures
// into the service error taxonomy.
func (c *Client) get(ctx context.Context, path string, q url.Values, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection errors are retryable.
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRateLimited, path)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d from %s", apperrors.ErrTransient, resp.StatusCode, path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrTransient, err)
	}
	return body, nil
}

func toRecord(item marketItem) domain.CurrencyRecord {
	rec := domain.CurrencyRecord{
		ID:                item.ID,
		Name:              item.Name,
		Symbol:            strings.ToUpper(item.Symbol),
		Rank:              item.MarketCapRank,
		PriceUSD:          fromFloat(item.CurrentPrice),
		PercentChange24h:  fromFloat(item.PriceChangePercentage24h),
		MarketCapUSD:      fromFloat(item.MarketCap),
		Volume24hUSD:      fromFloat(item.TotalVolume),
		CirculatingSupply: fromFloat(item.CirculatingSupply),
	}
	if item.MaxSupply != nil {
		max := decimal.NewFromFloat(*item.MaxSupply)
		rec.MaxSupply = &max
	}
	return rec
}

func fromFloat(f *float64) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*f)
}
