package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coindeck/coindeck_backend/internal/apperrors"
	portssvc "github.com/coindeck/coindeck_backend/internal/core/ports/services"
	"github.com/coindeck/coindeck_backend/internal/dto"
	"github.com/coindeck/coindeck_backend/internal/middleware"
)

// favoritesHandler handles HTTP requests for per-client favorite sets.
type favoritesHandler struct {
	favoritesService portssvc.FavoriteSvcFacade
}

// newFavoritesHandler creates a new favoritesHandler.
func newFavoritesHandler(fs portssvc.FavoriteSvcFacade) *favoritesHandler {
	return &favoritesHandler{favoritesService: fs}
}

// registerFavoriteRoutes registers routes related to favorites.
func registerFavoriteRoutes(rg *gin.RouterGroup, fs portssvc.FavoriteSvcFacade) {
	h := newFavoritesHandler(fs)

	favorites := rg.Group("/favorites")
	{
		favorites.GET("", h.getFavoritesOverview)
		favorites.GET("/ids", h.getFavoriteIDs)
		favorites.PUT("/:coinID", h.addFavorite)
		favorites.DELETE("/:coinID", h.removeFavorite)
	}
}

// getFavoritesOverview godoc
// @Summary Favorites overview
// @Description Returns full market records for every favorite, combining snapshot rows with individually resolved off-snapshot favorites, ordered by rank.
// @Tags favorites
// @Produce json
// @Param X-Client-ID header string false "Anonymous client identity (generated when absent)"
// @Success 200 {object} dto.FavoritesOverviewResponse
// @Failure 500 {object} map[string]string "Failed to load favorites"
// @Router /favorites [get]
func (h *favoritesHandler) getFavoritesOverview(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID, _ := middleware.GetClientIDFromContext(c)

	records, err := h.favoritesService.FavoritesOverview(c.Request.Context(), clientID)
	if err != nil {
		logger.Error("Failed to build favorites overview", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load favorites"})
		return
	}

	c.JSON(http.StatusOK, dto.FavoritesOverviewResponse{
		ClientID:  clientID,
		Favorites: dto.ToListCurrencyResponse(records),
	})
}

// getFavoriteIDs godoc
// @Summary List favorite ids
// @Description Returns the raw favorite coin ids for the calling client.
// @Tags favorites
// @Produce json
// @Param X-Client-ID header string false "Anonymous client identity (generated when absent)"
// @Success 200 {object} dto.FavoriteIDsResponse
// @Failure 500 {object} map[string]string "Failed to load favorites"
// @Router /favorites/ids [get]
func (h *favoritesHandler) getFavoriteIDs(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID, _ := middleware.GetClientIDFromContext(c)

	ids, err := h.favoritesService.ListFavorites(c.Request.Context(), clientID)
	if err != nil {
		logger.Error("Failed to list favorites", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load favorites"})
		return
	}

	c.JSON(http.StatusOK, dto.FavoriteIDsResponse{ClientID: clientID, CoinIDs: ids})
}

// addFavorite godoc
// @Summary Add a favorite
// @Description Adds a coin id to the client's favorite set. Idempotent.
// @Tags favorites
// @Produce json
// @Param coinID path string true "Coin id (lowercase slug)"
// @Param X-Client-ID header string false "Anonymous client identity (generated when absent)"
// @Success 200 {object} dto.FavoriteIDsResponse
// @Failure 400 {object} map[string]string "Invalid coin id"
// @Failure 500 {object} map[string]string "Failed to save favorites"
// @Router /favorites/{coinID} [put]
func (h *favoritesHandler) addFavorite(c *gin.Context) {
	h.mutateFavorite(c, h.favoritesService.AddFavorite)
}

// removeFavorite godoc
// @Summary Remove a favorite
// @Description Removes a coin id from the client's favorite set. Idempotent.
// @Tags favorites
// @Produce json
// @Param coinID path string true "Coin id (lowercase slug)"
// @Param X-Client-ID header string false "Anonymous client identity (generated when absent)"
// @Success 200 {object} dto.FavoriteIDsResponse
// @Failure 400 {object} map[string]string "Invalid coin id"
// @Failure 500 {object} map[string]string "Failed to save favorites"
// @Router /favorites/{coinID} [delete]
func (h *favoritesHandler) removeFavorite(c *gin.Context) {
	h.mutateFavorite(c, h.favoritesService.RemoveFavorite)
}

// mutateFavorite binds the coin id, applies the mutation, and responds with
// the updated id set.
func (h *favoritesHandler) mutateFavorite(c *gin.Context, op func(ctx context.Context, clientID, coinID string) error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	clientID, _ := middleware.GetClientIDFromContext(c)

	var uri dto.FavoriteURI
	if err := c.ShouldBindUri(&uri); err != nil {
		logger.Warn("Invalid coin id in favorites request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coin id"})
		return
	}

	if err := op(c.Request.Context(), clientID, uri.CoinID); err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to mutate favorites",
			slog.String("coin_id", uri.CoinID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save favorites"})
		return
	}

	ids, err := h.favoritesService.ListFavorites(c.Request.Context(), clientID)
	if err != nil {
		logger.Error("Failed to reload favorites after mutation", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load favorites"})
		return
	}

	c.JSON(http.StatusOK, dto.FavoriteIDsResponse{ClientID: clientID, CoinIDs: ids})
}
