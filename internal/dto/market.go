package dto

import (
	"github.com/coindeck/coindeck_backend/internal/core/domain"
)

// MarketsQuery defines the query parameters for the top-currencies listing.
type MarketsQuery struct {
	Limit int `form:"limit,default=100" binding:"omitempty,min=1,max=250"`
}

// SearchQuery defines the query parameters for the search endpoint.
type SearchQuery struct {
	Q string `form:"q" binding:"omitempty,max=100"`
}

// CurrencyResponse defines the data returned for one market snapshot row.
// All numeric fields are decimal strings.
type CurrencyResponse struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Symbol            string  `json:"symbol"`
	Rank              int     `json:"rank"`
	PriceUSD          string  `json:"priceUsd"`
	PercentChange24h  string  `json:"percentChange24h"`
	MarketCapUSD      string  `json:"marketCapUsd"`
	Volume24hUSD      string  `json:"volume24hUsd"`
	CirculatingSupply string  `json:"circulatingSupply"`
	MaxSupply         *string `json:"maxSupply"` // null when the asset is uncapped
}

// ToCurrencyResponse converts a domain.CurrencyRecord to its response DTO.
func ToCurrencyResponse(rec *domain.CurrencyRecord) CurrencyResponse {
	resp := CurrencyResponse{
		ID:                rec.ID,
		Name:              rec.Name,
		Symbol:            rec.Symbol,
		Rank:              rec.Rank,
		PriceUSD:          rec.PriceUSD.String(),
		PercentChange24h:  rec.PercentChange24h.String(),
		MarketCapUSD:      rec.MarketCapUSD.String(),
		Volume24hUSD:      rec.Volume24hUSD.String(),
		CirculatingSupply: rec.CirculatingSupply.String(),
	}
	if rec.MaxSupply != nil {
		max := rec.MaxSupply.String()
		resp.MaxSupply = &max
	}
	return resp
}

// ToListCurrencyResponse converts a slice of records to response DTOs.
func ToListCurrencyResponse(records []domain.CurrencyRecord) []CurrencyResponse {
	res := make([]CurrencyResponse, len(records))
	for i := range records {
		res[i] = ToCurrencyResponse(&records[i])
	}
	return res
}
