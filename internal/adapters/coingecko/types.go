package coingecko

// marketItem mirrors the subset of the upstream /coins/markets payload that
// the dashboard consumes. Numeric fields are pointers because the upstream
// reports null for assets it has no data for.
type marketItem struct {
	ID                       string   `json:"id"`
	Symbol                   string   `json:"symbol"`
	Name                     string   `json:"name"`
	CurrentPrice             *float64 `json:"current_price"`
	MarketCap                *float64 `json:"market_cap"`
	MarketCapRank            int      `json:"market_cap_rank"`
	TotalVolume              *float64 `json:"total_volume"`
	PriceChangePercentage24h *float64 `json:"price_change_percentage_24h"`
	CirculatingSupply        *float64 `json:"circulating_supply"`
	MaxSupply                *float64 `json:"max_supply"`
}

// searchResponse mirrors the /search payload; only coin ids are consumed.
type searchResponse struct {
	Coins []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Symbol        string `json:"symbol"`
		MarketCapRank int    `json:"market_cap_rank"`
	} `json:"coins"`
}
