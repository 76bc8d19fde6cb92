package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/coindeck/coindeck_backend/internal/apperrors"
	"github.com/coindeck/coindeck_backend/internal/core/domain"
	portssvc "github.com/coindeck/coindeck_backend/internal/core/ports/services"
	"github.com/coindeck/coindeck_backend/internal/dto"
	"github.com/coindeck/coindeck_backend/internal/handlers"
	"github.com/coindeck/coindeck_backend/internal/middleware"
	"github.com/coindeck/coindeck_backend/internal/platform/config"
)

// --- Mock MarketService ---
type MockMarketService struct {
	mock.Mock
}

func (m *MockMarketService) GetTopCurrencies(ctx context.Context, limit int) ([]domain.CurrencyRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CurrencyRecord), args.Error(1)
}

func (m *MockMarketService) Snapshot() *domain.Snapshot {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.Snapshot)
}

func (m *MockMarketService) StartRefresher(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockMarketService) OnRefresh(fn func(*domain.Snapshot)) {
	m.Called(fn)
}

var _ portssvc.MarketSvcFacade = (*MockMarketService)(nil)

// --- Mock SearchService ---
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, query string) ([]domain.CurrencyRecord, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CurrencyRecord), args.Error(1)
}

var _ portssvc.SearchSvcFacade = (*MockSearchService)(nil)

// --- Mock FavoritesService ---
type MockFavoritesService struct {
	mock.Mock
}

func (m *MockFavoritesService) ListFavorites(ctx context.Context, clientID string) ([]string, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFavoritesService) FavoritesOverview(ctx context.Context, clientID string) ([]domain.CurrencyRecord, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CurrencyRecord), args.Error(1)
}

func (m *MockFavoritesService) ResolveMissing(ctx context.Context, favoriteIDs []string, snapshot *domain.Snapshot) ([]domain.CurrencyRecord, error) {
	args := m.Called(ctx, favoriteIDs, snapshot)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CurrencyRecord), args.Error(1)
}

func (m *MockFavoritesService) AddFavorite(ctx context.Context, clientID, coinID string) error {
	args := m.Called(ctx, clientID, coinID)
	return args.Error(0)
}

func (m *MockFavoritesService) RemoveFavorite(ctx context.Context, clientID, coinID string) error {
	args := m.Called(ctx, clientID, coinID)
	return args.Error(0)
}

var _ portssvc.FavoriteSvcFacade = (*MockFavoritesService)(nil)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router        *gin.Engine
	mockMarket    *MockMarketService
	mockSearch    *MockSearchService
	mockFavorites *MockFavoritesService
	clientID      string
}

func (suite *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.Require().NoError(dto.RegisterValidations())

	suite.mockMarket = new(MockMarketService)
	suite.mockSearch = new(MockSearchService)
	suite.mockFavorites = new(MockFavoritesService)
	suite.clientID = uuid.NewString()

	// The price hub subscribes during route registration.
	suite.mockMarket.On("OnRefresh", mock.Anything).Return()

	container := &portssvc.ServiceContainer{
		Market:    suite.mockMarket,
		Search:    suite.mockSearch,
		Favorites: suite.mockFavorites,
	}

	suite.router = gin.New()
	suite.router.Use(middleware.StructuredLoggingMiddleware(slog.Default()))
	handlers.RegisterRoutes(suite.router, &config.Config{IsProduction: true}, container, slog.Default())
}

func (suite *HandlerTestSuite) perform(method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set(middleware.ClientIDHeader, suite.clientID)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

// --- Test Cases ---

func (suite *HandlerTestSuite) TestGetMarkets_Success() {
	records := []domain.CurrencyRecord{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", Rank: 1, PriceUSD: decimal.NewFromInt(64000)},
	}
	suite.mockMarket.On("GetTopCurrencies", mock.Anything, 100).Return(records, nil).Once()

	w := suite.perform(http.MethodGet, "/api/v1/markets")

	suite.Equal(http.StatusOK, w.Code)
	var body []dto.CurrencyResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Require().Len(body, 1)
	suite.Equal("bitcoin", body[0].ID)
	suite.Equal("64000", body[0].PriceUSD)
	suite.Nil(body[0].MaxSupply)
	suite.mockMarket.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestGetMarkets_CustomLimit() {
	suite.mockMarket.On("GetTopCurrencies", mock.Anything, 10).Return([]domain.CurrencyRecord{}, nil).Once()

	w := suite.perform(http.MethodGet, "/api/v1/markets?limit=10")

	suite.Equal(http.StatusOK, w.Code)
	suite.mockMarket.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestGetMarkets_LimitOutOfRange() {
	w := suite.perform(http.MethodGet, "/api/v1/markets?limit=900")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockMarket.AssertNotCalled(suite.T(), "GetTopCurrencies", mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestGetMarkets_DataUnavailable() {
	unavailable := fmt.Errorf("%w: nothing fetched yet", apperrors.ErrDataUnavailable)
	suite.mockMarket.On("GetTopCurrencies", mock.Anything, 100).Return(nil, unavailable).Once()

	w := suite.perform(http.MethodGet, "/api/v1/markets")

	suite.Equal(http.StatusServiceUnavailable, w.Code)
	var body map[string]any
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(true, body["retryable"])
	suite.mockMarket.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestSearchMarkets_Success() {
	records := []domain.CurrencyRecord{{ID: "solana", Symbol: "SOL", Name: "Solana", Rank: 5}}
	suite.mockSearch.On("Search", mock.Anything, "sol").Return(records, nil).Once()

	w := suite.perform(http.MethodGet, "/api/v1/markets/search?q=sol")

	suite.Equal(http.StatusOK, w.Code)
	var body []dto.CurrencyResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Require().Len(body, 1)
	suite.Equal("solana", body[0].ID)
	suite.mockSearch.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestGetFavoriteIDs_EchoesClientID() {
	suite.mockFavorites.On("ListFavorites", mock.Anything, suite.clientID).Return([]string{"bitcoin"}, nil).Once()

	w := suite.perform(http.MethodGet, "/api/v1/favorites/ids")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal(suite.clientID, w.Header().Get(middleware.ClientIDHeader))
	var body dto.FavoriteIDsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal(suite.clientID, body.ClientID)
	suite.Equal([]string{"bitcoin"}, body.CoinIDs)
	suite.mockFavorites.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestGetFavoriteIDs_GeneratesClientIDWhenMissing() {
	suite.mockFavorites.On("ListFavorites", mock.Anything, mock.AnythingOfType("string")).Return([]string{}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites/ids", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusOK, w.Code)
	generated := w.Header().Get(middleware.ClientIDHeader)
	_, err := uuid.Parse(generated)
	suite.NoError(err)
	suite.mockFavorites.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestAddFavorite_ReturnsUpdatedSet() {
	suite.mockFavorites.On("AddFavorite", mock.Anything, suite.clientID, "ethereum").Return(nil).Once()
	suite.mockFavorites.On("ListFavorites", mock.Anything, suite.clientID).Return([]string{"bitcoin", "ethereum"}, nil).Once()

	w := suite.perform(http.MethodPut, "/api/v1/favorites/ethereum")

	suite.Equal(http.StatusOK, w.Code)
	var body dto.FavoriteIDsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal([]string{"bitcoin", "ethereum"}, body.CoinIDs)
	suite.mockFavorites.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestAddFavorite_RejectsMalformedCoinID() {
	w := suite.perform(http.MethodPut, "/api/v1/favorites/Not%20A%20Slug")

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockFavorites.AssertNotCalled(suite.T(), "AddFavorite", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *HandlerTestSuite) TestRemoveFavorite_ReturnsUpdatedSet() {
	suite.mockFavorites.On("RemoveFavorite", mock.Anything, suite.clientID, "ethereum").Return(nil).Once()
	suite.mockFavorites.On("ListFavorites", mock.Anything, suite.clientID).Return([]string{"bitcoin"}, nil).Once()

	w := suite.perform(http.MethodDelete, "/api/v1/favorites/ethereum")

	suite.Equal(http.StatusOK, w.Code)
	var body dto.FavoriteIDsResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	suite.Equal([]string{"bitcoin"}, body.CoinIDs)
	suite.mockFavorites.AssertExpectations(suite.T())
}

func (suite *HandlerTestSuite) TestHealthEndpoint() {
	w := suite.perform(http.MethodGet, "/health")

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func TestHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
