package dto

// FavoriteURI binds the coin id path parameter for favorite mutations.
// The coinid rule is registered on the binding engine at startup.
type FavoriteURI struct {
	CoinID string `uri:"coinID" binding:"required,coinid"`
}

// FavoriteIDsResponse returns the raw favorite id set for a client.
type FavoriteIDsResponse struct {
	ClientID string   `json:"clientId"`
	CoinIDs  []string `json:"coinIds"`
}

// FavoritesOverviewResponse returns full market records for every favorite,
// ordered by rank.
type FavoritesOverviewResponse struct {
	ClientID  string             `json:"clientId"`
	Favorites []CurrencyResponse `json:"favorites"`
}
