package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/coindeck/coindeck_backend/internal/apperrors"
	"github.com/coindeck/coindeck_backend/internal/core/domain"
	"github.com/coindeck/coindeck_backend/internal/core/services"
	"github.com/coindeck/coindeck_backend/internal/utils/pacing"
)

// fakeSnapshots is a static SnapshotProvider.
type fakeSnapshots struct {
	snap *domain.Snapshot
}

func (f *fakeSnapshots) Snapshot() *domain.Snapshot { return f.snap }

func searchRecord(id, symbol, name string, marketCap int64) domain.CurrencyRecord {
	return domain.CurrencyRecord{
		ID:           id,
		Symbol:       symbol,
		Name:         name,
		MarketCapUSD: decimal.NewFromInt(marketCap),
	}
}

// --- Test Suite ---
type SearchServiceTestSuite struct {
	suite.Suite
	mockSource *MockMarketDataSource
}

func (suite *SearchServiceTestSuite) SetupTest() {
	suite.mockSource = new(MockMarketDataSource)
}

func (suite *SearchServiceTestSuite) newService(snap *domain.Snapshot, pacer *pacing.Pacer, opts ...services.SearchOption) *services.SearchService {
	return services.NewSearchService(suite.mockSource, &fakeSnapshots{snap: snap}, pacer, opts...)
}

// --- Test Cases ---

func (suite *SearchServiceTestSuite) TestSearch_EmptyQueryReturnsEmpty() {
	svc := suite.newService(nil, pacing.NewPacer(0))

	records, err := svc.Search(context.Background(), "   ")

	suite.Require().NoError(err)
	suite.Empty(records)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_SingleCharQueryReturnsEmpty() {
	snap := &domain.Snapshot{
		Records:   []domain.CurrencyRecord{searchRecord("bitcoin", "BTC", "Bitcoin", 100)},
		FetchedAt: time.Now(),
	}
	svc := suite.newService(snap, pacing.NewPacer(0))

	records, err := svc.Search(context.Background(), "b")

	suite.Require().NoError(err)
	suite.Empty(records)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_TierOrdering() {
	snap := &domain.Snapshot{
		Records: []domain.CurrencyRecord{
			searchRecord("wrapped-bitcoin", "WBTC", "Wrapped Bitcoin", 500), // substring
			searchRecord("btcoin", "XCO", "Btcoin", 10),                     // name prefix
			searchRecord("btcb", "BTCB", "Binance Bitcoin", 200),            // symbol prefix
			searchRecord("bitcoin", "BTC", "Bitcoin", 1000),                 // exact symbol
			searchRecord("dogecoin", "DOGE", "Dogecoin", 300),               // no match
		},
		FetchedAt: time.Now(),
	}
	svc := suite.newService(snap, pacing.NewPacer(0))

	records, err := svc.Search(context.Background(), "BTC")

	suite.Require().NoError(err)
	suite.Require().Len(records, 4)
	suite.Equal("bitcoin", records[0].ID)
	suite.Equal("btcb", records[1].ID)
	suite.Equal("btcoin", records[2].ID)
	suite.Equal("wrapped-bitcoin", records[3].ID)
	// Local hits never trigger a remote request.
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_CachesResults() {
	snap := &domain.Snapshot{
		Records:   []domain.CurrencyRecord{searchRecord("bitcoin", "BTC", "Bitcoin", 1000)},
		FetchedAt: time.Now(),
	}
	svc := suite.newService(snap, pacing.NewPacer(0))

	first, err := svc.Search(context.Background(), "btc")
	suite.Require().NoError(err)

	second, err := svc.Search(context.Background(), "btc")
	suite.Require().NoError(err)

	suite.Equal(first, second)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_RemoteFallbackMergesAndSorts() {
	svc := suite.newService(nil, pacing.NewPacer(0))

	suite.mockSource.On("SearchIDs", mock.Anything, "solana").Return([]string{"solana", "wrapped-solana"}, nil).Once()
	suite.mockSource.On("MarketsByIDs", mock.Anything, []string{"solana", "wrapped-solana"}).Return([]domain.CurrencyRecord{
		searchRecord("wrapped-solana", "WSOL", "Wrapped Solana", 100),
		searchRecord("solana", "SOL", "Solana", 900),
	}, nil).Once()

	records, err := svc.Search(context.Background(), "solana")

	suite.Require().NoError(err)
	suite.Require().Len(records, 2)
	suite.Equal("solana", records[0].ID)
	suite.Equal("wrapped-solana", records[1].ID)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_RemoteBatchTruncated() {
	ids := make([]string, 0, 15)
	for i := 1; i <= 15; i++ {
		ids = append(ids, fmt.Sprintf("coin-%d", i))
	}
	svc := suite.newService(nil, pacing.NewPacer(0))

	suite.mockSource.On("SearchIDs", mock.Anything, "coin").Return(ids, nil).Once()
	suite.mockSource.On("MarketsByIDs", mock.Anything, mock.MatchedBy(func(batch []string) bool {
		return len(batch) == 10 && batch[0] == "coin-1" && batch[9] == "coin-10"
	})).Return(makeRecords(0, 10), nil).Once()

	records, err := svc.Search(context.Background(), "coin")

	suite.Require().NoError(err)
	suite.Len(records, 10)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_ShortQueryNeverGoesRemote() {
	svc := suite.newService(nil, pacing.NewPacer(0))

	records, err := svc.Search(context.Background(), "ab")

	suite.Require().NoError(err)
	suite.Empty(records)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_PacerSuppressesRemote() {
	pacer := pacing.NewPacer(time.Hour)
	pacer.Record()
	svc := suite.newService(nil, pacer)

	records, err := svc.Search(context.Background(), "solana")

	suite.Require().NoError(err)
	suite.Empty(records)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_RemoteFailureDegradesAndSkipsCache() {
	transient := fmt.Errorf("%w: gateway timeout", apperrors.ErrTransient)
	svc := suite.newService(nil, pacing.NewPacer(0))
	suite.mockSource.On("SearchIDs", mock.Anything, "solana").Return(nil, transient).Twice()

	records, err := svc.Search(context.Background(), "solana")
	suite.Require().NoError(err)
	suite.Empty(records)

	// The failed lookup was not cached, so the next call retries upstream.
	records, err = svc.Search(context.Background(), "solana")
	suite.Require().NoError(err)
	suite.Empty(records)
	suite.mockSource.AssertExpectations(suite.T())
}

func (suite *SearchServiceTestSuite) TestSearch_RemoteResultCached() {
	svc := suite.newService(nil, pacing.NewPacer(0))
	suite.mockSource.On("SearchIDs", mock.Anything, "solana").Return([]string{"solana"}, nil).Once()
	suite.mockSource.On("MarketsByIDs", mock.Anything, []string{"solana"}).Return([]domain.CurrencyRecord{
		searchRecord("solana", "SOL", "Solana", 900),
	}, nil).Once()

	first, err := svc.Search(context.Background(), "solana")
	suite.Require().NoError(err)

	second, err := svc.Search(context.Background(), "Solana ")
	suite.Require().NoError(err)

	suite.Equal(first, second)
	suite.mockSource.AssertExpectations(suite.T())
}

func TestSearchServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SearchServiceTestSuite))
}
