package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coindeck/coindeck_backend/internal/apperrors"
	portssvc "github.com/coindeck/coindeck_backend/internal/core/ports/services"
	"github.com/coindeck/coindeck_backend/internal/dto"
	"github.com/coindeck/coindeck_backend/internal/middleware"
)

// marketHandler handles HTTP requests for the market listing and search.
type marketHandler struct {
	marketService portssvc.MarketSvcFacade
	searchService portssvc.SearchSvcFacade
}

// newMarketHandler creates a new marketHandler.
func newMarketHandler(ms portssvc.MarketSvcFacade, ss portssvc.SearchSvcFacade) *marketHandler {
	return &marketHandler{
		marketService: ms,
		searchService: ss,
	}
}

// registerMarketRoutes registers routes related to the market listing.
func registerMarketRoutes(rg *gin.RouterGroup, ms portssvc.MarketSvcFacade, ss portssvc.SearchSvcFacade) {
	h := newMarketHandler(ms, ss)

	markets := rg.Group("/markets")
	{
		markets.GET("", h.getMarkets)
		markets.GET("/search", h.searchMarkets)
	}
}

// getMarkets godoc
// @Summary List top currencies
// @Description Returns up to limit currencies ranked by descending market cap, served from cache whenever fresh. Stale data is preferred over an error.
// @Tags markets
// @Produce json
// @Param limit query int false "Maximum records returned (1-250)" default(100)
// @Success 200 {array} dto.CurrencyResponse
// @Failure 400 {object} map[string]string "Invalid limit"
// @Failure 503 {object} map[string]string "No market data has ever been fetched"
// @Router /markets [get]
func (h *marketHandler) getMarkets(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.MarketsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Warn("Failed to bind markets query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	records, err := h.marketService.GetTopCurrencies(c.Request.Context(), query.Limit)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrDataUnavailable) {
			logger.Error("Market data unavailable", slog.String("error", err.Error()))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Market data is temporarily unavailable", "retryable": true})
		} else {
			logger.Error("Failed to get top currencies", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve market data"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToListCurrencyResponse(records))
}

// searchMarkets godoc
// @Summary Search currencies
// @Description Filters and ranks the cached listing for the query with a bounded remote fallback. Network failures degrade to local-only results.
// @Tags markets
// @Produce json
// @Param q query string false "Free-text query"
// @Success 200 {array} dto.CurrencyResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Router /markets/search [get]
func (h *marketHandler) searchMarkets(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		logger.Warn("Failed to bind search query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	records, err := h.searchService.Search(c.Request.Context(), query.Q)
	if err != nil {
		logger.Error("Search failed", slog.String("query", query.Q), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListCurrencyResponse(records))
}
