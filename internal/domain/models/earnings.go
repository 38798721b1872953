package models

// EarningsEvent is one upcoming earnings date for a symbol. Estimates are
// nullable because the upstream often omits them.
type EarningsEvent struct {
	Ticker          string   `json:"ticker"`
	EarningsDate    string   `json:"earningsDate"` // YYYY-MM-DD
	EarningsHour    string   `json:"earningsHour"` // BMO, AMC, or TNS when not specified
	EpsEstimate     *float64 `json:"epsEstimate,omitempty"`
	RevenueEstimate *float64 `json:"revenueEstimate,omitempty"`
}

// EarningsResult is the outcome of a single-symbol earnings request. An
// empty Events slice with Cached true means the symbol was previously
// confirmed to have no calendar (ETFs, index funds).
type EarningsResult struct {
	Events []EarningsEvent `json:"events"`
	Cached bool            `json:"cached"`
}

// BatchEarningsResult maps each requested symbol to its calendar. Failed
// symbols resolve to an empty calendar rather than an error entry.
type BatchEarningsResult struct {
	Results map[string][]EarningsEvent `json:"results"`
}

// SearchResult is one ticker-search match.
type SearchResult struct {
	Ticker    string `json:"ticker"`
	Name      string `json:"name"`
	AssetType string `json:"assetType"`
	IsActive  bool   `json:"isActive"`
}

// EarningsRequest is the single-symbol earnings query.
type EarningsRequest struct {
	Ticker string `query:"ticker" validate:"required,ticker"`
}

// BatchEarningsRequest is the multi-symbol earnings query body.
type BatchEarningsRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,max=20,dive,ticker"`
}

// SearchRequest is the ticker-search query.
type SearchRequest struct {
	Query string `query:"query" validate:"required,max=100"`
}
